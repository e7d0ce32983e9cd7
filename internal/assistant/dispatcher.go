package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/maitri-mission/maitri/internal/observe"
	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/provider/live"
)

// Effects receives UI-facing tool side effects. The browser bridge forwards
// them to the client; headless callers use NopEffects.
type Effects interface {
	// Navigate switches the UI to the named screen.
	Navigate(screen string)

	// OpenCamera opens the capture UI for the given media type, bound to the
	// symptom log with the given ID (may be empty when no symptom was logged
	// this session).
	OpenCamera(mediaType, symptomLogID string)

	// ApplyScene applies a generated ambient scene to the UI theme.
	ApplyScene(s scene.Scene)
}

// NopEffects discards all UI side effects.
type NopEffects struct{}

func (NopEffects) Navigate(string) {}

func (NopEffects) OpenCamera(string, string) {}

func (NopEffects) ApplyScene(scene.Scene) {}

// Dispatcher maps tool invocations from the model to store mutations and UI
// effects. Every invocation produces exactly one response: malformed or
// unknown requests are answered with a descriptive error string rather than
// dropped, so the model can self-correct conversationally, and side-effect
// failures are logged and answered with a degraded acknowledgment rather than
// left unanswered.
//
// Dispatcher is safe for concurrent use, though batches are normally
// dispatched sequentially by the session event loop.
type Dispatcher struct {
	astronaut string
	store     store.Store
	scenes    *scene.Generator
	effects   Effects
	logger    *slog.Logger
	metrics   *observe.Metrics

	mu sync.Mutex
	// lastSymptomID binds a follow-up camera invocation to the most recently
	// logged symptom.
	lastSymptomID string
}

// NewDispatcher creates a Dispatcher acting on behalf of the named astronaut.
// effects may be nil, in which case UI side effects are discarded.
func NewDispatcher(astronaut string, st store.Store, scenes *scene.Generator, effects Effects, logger *slog.Logger) *Dispatcher {
	if effects == nil {
		effects = NopEffects{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		astronaut: astronaut,
		store:     st,
		scenes:    scenes,
		effects:   effects,
		logger:    logger.With("astronaut", astronaut),
		metrics:   observe.DefaultMetrics(),
	}
}

// LastSymptomID returns the ID of the most recently logged symptom, or the
// empty string.
func (d *Dispatcher) LastSymptomID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSymptomID
}

// DispatchBatch handles one batch of invocations sequentially and returns one
// response per invocation, each echoing its invocation ID.
func (d *Dispatcher) DispatchBatch(ctx context.Context, calls []live.ToolCall) []live.ToolResponse {
	resps := make([]live.ToolResponse, 0, len(calls))
	for _, call := range calls {
		resps = append(resps, d.Dispatch(ctx, call))
	}
	return resps
}

// Dispatch handles a single invocation and returns its response.
func (d *Dispatcher) Dispatch(ctx context.Context, call live.ToolCall) live.ToolResponse {
	start := time.Now()
	result, status := d.dispatch(ctx, call)
	d.metrics.DispatchDuration.Record(ctx, time.Since(start).Seconds())
	d.metrics.RecordToolCall(ctx, call.Name, status)
	return live.ToolResponse{ID: call.ID, Name: call.Name, Result: result}
}

func (d *Dispatcher) dispatch(ctx context.Context, call live.ToolCall) (result, status string) {
	args := map[string]string{}
	if call.Args != "" {
		if err := json.Unmarshal([]byte(call.Args), &args); err != nil {
			d.logger.Warn("unparseable tool arguments", "tool", call.Name, "error", err)
			return "Error: could not parse tool arguments.", "invalid"
		}
	}

	switch call.Name {
	case ToolNavigate:
		return d.navigate(args)
	case ToolLogSymptom:
		return d.logSymptom(ctx, args)
	case ToolAddTask:
		return d.addTask(ctx, args)
	case ToolOpenCamera:
		return d.openCamera(args)
	case ToolSendToFamily:
		return d.sendToFamily(ctx, args)
	case ToolSensoryScene:
		return d.sensoryScene(ctx, args)
	default:
		return fmt.Sprintf("Error: unknown tool '%s'.", call.Name), "unknown"
	}
}

func (d *Dispatcher) navigate(args map[string]string) (string, string) {
	screen := strings.ToLower(strings.TrimSpace(args["screen"]))
	if !knownScreens[screen] {
		return fmt.Sprintf("Error: unknown screen '%s'.", args["screen"]), "invalid"
	}
	d.effects.Navigate(screen)
	return "ok", "ok"
}

func (d *Dispatcher) logSymptom(ctx context.Context, args map[string]string) (string, string) {
	symptom := strings.TrimSpace(args["symptom"])
	if symptom == "" {
		return "Error: symptom must not be empty.", "invalid"
	}
	severity := strings.ToLower(strings.TrimSpace(args["severity"]))
	if !store.ValidSeverity(severity) {
		return fmt.Sprintf("Error: invalid severity value '%s'.", args["severity"]), "invalid"
	}

	entry, err := d.store.AddSymptomLog(ctx, d.astronaut, store.SymptomLog{
		Symptom:  symptom,
		Severity: severity,
		Notes:    args["notes"],
	})
	if err != nil {
		d.logger.Error("symptom log persist failed", "symptom", symptom, "error", err)
		return "ok", "degraded"
	}

	d.mu.Lock()
	d.lastSymptomID = entry.ID
	d.mu.Unlock()
	return "ok", "ok"
}

func (d *Dispatcher) addTask(ctx context.Context, args map[string]string) (string, string) {
	name := strings.TrimSpace(args["name"])
	if name == "" {
		return "Error: task name must not be empty.", "invalid"
	}
	if _, err := d.store.AddTask(ctx, d.astronaut, store.MissionTask{
		Time: args["time"],
		Name: name,
	}); err != nil {
		d.logger.Error("task persist failed", "task", name, "error", err)
		return "ok", "degraded"
	}
	return "ok", "ok"
}

func (d *Dispatcher) openCamera(args map[string]string) (string, string) {
	mediaType := strings.ToLower(strings.TrimSpace(args["mediaType"]))
	if mediaType != "photo" && mediaType != "video" {
		return fmt.Sprintf("Error: invalid mediaType '%s'.", args["mediaType"]), "invalid"
	}
	d.effects.OpenCamera(mediaType, d.LastSymptomID())
	return fmt.Sprintf("Opening camera for %s.", mediaType), "ok"
}

func (d *Dispatcher) sendToFamily(ctx context.Context, args map[string]string) (string, string) {
	content := strings.TrimSpace(args["messageContent"])
	if content == "" {
		return "Error: message content must not be empty.", "invalid"
	}
	if _, err := d.store.AddEarthlinkMessage(ctx, d.astronaut, store.EarthlinkMessage{
		From: d.astronaut,
		Text: content,
	}); err != nil {
		d.logger.Error("family message persist failed", "error", err)
		return "Message sent.", "degraded"
	}
	return "Message sent.", "ok"
}

func (d *Dispatcher) sensoryScene(ctx context.Context, args map[string]string) (string, string) {
	prompt := strings.TrimSpace(args["prompt"])
	if prompt == "" {
		return "Error: scene prompt must not be empty.", "invalid"
	}
	if d.scenes == nil {
		// Voice-only deployments have no text model to render scenes with.
		d.logger.Warn("scene generation unavailable, no llm provider")
		return scene.FallbackDescription, "degraded"
	}
	s, err := d.scenes.Generate(ctx, prompt)
	if err != nil {
		d.logger.Error("scene generation cancelled", "error", err)
		return scene.FallbackDescription, "degraded"
	}
	d.effects.ApplyScene(s)
	return s.Description, "ok"
}
