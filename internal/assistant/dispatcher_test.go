package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/provider/live"
	"github.com/maitri-mission/maitri/pkg/provider/llm"
	llmmock "github.com/maitri-mission/maitri/pkg/provider/llm/mock"
)

const testAstronaut = "Sharma"

// recordingEffects captures UI side effects for inspection.
type recordingEffects struct {
	mu      sync.Mutex
	screens []string
	cameras [][2]string
	scenes  []scene.Scene
}

func (e *recordingEffects) Navigate(screen string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.screens = append(e.screens, screen)
}

func (e *recordingEffects) OpenCamera(mediaType, symptomLogID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cameras = append(e.cameras, [2]string{mediaType, symptomLogID})
}

func (e *recordingEffects) ApplyScene(s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes = append(e.scenes, s)
}

func newTestStore(t *testing.T) *store.MemStore {
	t.Helper()
	st := store.NewMemStore()
	if err := st.Create(context.Background(), &store.Astronaut{Name: testAstronaut}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return st
}

func newTestScenes() *scene.Generator {
	return scene.NewGenerator(&llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{
			Content: `{"description":"You drift above a glowing aurora.","dominant_color_hex":"#22c55e"}`,
		},
	}, nil)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *store.MemStore, *recordingEffects) {
	t.Helper()
	st := newTestStore(t)
	effects := &recordingEffects{}
	return NewDispatcher(testAstronaut, st, newTestScenes(), effects, nil), st, effects
}

func mustArgs(t *testing.T, kv map[string]string) string {
	t.Helper()
	out := "{"
	first := true
	for k, v := range kv {
		if !first {
			out += ","
		}
		first = false
		out += fmt.Sprintf("%q:%q", k, v)
	}
	return out + "}"
}

func TestDispatch_Navigate(t *testing.T) {
	t.Parallel()

	d, _, effects := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		ID:   "call-1",
		Name: ToolNavigate,
		Args: mustArgs(t, map[string]string{"screen": "guardian"}),
	})

	if resp.Result != "ok" {
		t.Errorf("result = %q, want %q", resp.Result, "ok")
	}
	if resp.ID != "call-1" {
		t.Errorf("response ID = %q, want %q", resp.ID, "call-1")
	}
	if len(effects.screens) != 1 || effects.screens[0] != "guardian" {
		t.Errorf("navigated screens = %v, want [guardian]", effects.screens)
	}
}

func TestDispatch_Navigate_UnknownScreen(t *testing.T) {
	t.Parallel()

	d, _, effects := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolNavigate,
		Args: mustArgs(t, map[string]string{"screen": "cargo-bay"}),
	})

	if want := "Error: unknown screen 'cargo-bay'."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
	if len(effects.screens) != 0 {
		t.Errorf("unexpected navigation to %v", effects.screens)
	}
}

func TestDispatch_LogSymptom_PersistsAndRetainsID(t *testing.T) {
	t.Parallel()

	d, st, effects := newTestDispatcher(t)
	ctx := context.Background()

	resp := d.Dispatch(ctx, live.ToolCall{
		Name: ToolLogSymptom,
		Args: mustArgs(t, map[string]string{"symptom": "headache", "severity": "severe", "notes": ""}),
	})
	if resp.Result != "ok" {
		t.Fatalf("result = %q, want %q", resp.Result, "ok")
	}

	a, err := st.Get(ctx, testAstronaut)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(a.SymptomLogs) != 1 {
		t.Fatalf("symptom logs = %d, want 1", len(a.SymptomLogs))
	}
	entry := a.SymptomLogs[0]
	if entry.Symptom != "headache" || entry.Severity != "severe" {
		t.Errorf("stored entry = %+v", entry)
	}
	if d.LastSymptomID() != entry.ID {
		t.Errorf("LastSymptomID = %q, want %q", d.LastSymptomID(), entry.ID)
	}

	// A camera follow-up with no explicit id binds to the retained entry.
	resp = d.Dispatch(ctx, live.ToolCall{
		Name: ToolOpenCamera,
		Args: mustArgs(t, map[string]string{"mediaType": "photo"}),
	})
	if want := "Opening camera for photo."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
	if len(effects.cameras) != 1 || effects.cameras[0] != [2]string{"photo", entry.ID} {
		t.Errorf("camera effects = %v, want [[photo %s]]", effects.cameras, entry.ID)
	}
}

func TestDispatch_LogSymptom_SeverityCaseInsensitive(t *testing.T) {
	t.Parallel()

	d, st, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolLogSymptom,
		Args: mustArgs(t, map[string]string{"symptom": "nausea", "severity": "Moderate"}),
	})
	if resp.Result != "ok" {
		t.Fatalf("result = %q, want %q", resp.Result, "ok")
	}

	a, _ := st.Get(context.Background(), testAstronaut)
	if a.SymptomLogs[0].Severity != store.SeverityModerate {
		t.Errorf("stored severity = %q, want %q", a.SymptomLogs[0].Severity, store.SeverityModerate)
	}
}

func TestDispatch_LogSymptom_InvalidSeverity(t *testing.T) {
	t.Parallel()

	d, st, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolLogSymptom,
		Args: mustArgs(t, map[string]string{"symptom": "nausea", "severity": "extreme"}),
	})

	if want := "Error: invalid severity value 'extreme'."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
	a, _ := st.Get(context.Background(), testAstronaut)
	if len(a.SymptomLogs) != 0 {
		t.Errorf("symptom logs = %d, want 0", len(a.SymptomLogs))
	}
}

func TestDispatch_LogSymptom_EmptySymptom(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolLogSymptom,
		Args: mustArgs(t, map[string]string{"symptom": "", "severity": "mild"}),
	})
	if want := "Error: symptom must not be empty."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
}

func TestDispatch_AddTask(t *testing.T) {
	t.Parallel()

	d, st, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolAddTask,
		Args: mustArgs(t, map[string]string{"time": "14:00", "name": "Solar panel check"}),
	})
	if resp.Result != "ok" {
		t.Fatalf("result = %q, want %q", resp.Result, "ok")
	}

	a, _ := st.Get(context.Background(), testAstronaut)
	if len(a.MissionTasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(a.MissionTasks))
	}
	task := a.MissionTasks[0]
	if task.Time != "14:00" || task.Name != "Solar panel check" || task.Completed {
		t.Errorf("stored task = %+v", task)
	}
}

func TestDispatch_AddTask_EmptyName(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolAddTask,
		Args: mustArgs(t, map[string]string{"time": "14:00", "name": " "}),
	})
	if want := "Error: task name must not be empty."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
}

func TestDispatch_OpenCamera_InvalidMediaType(t *testing.T) {
	t.Parallel()

	d, _, effects := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolOpenCamera,
		Args: mustArgs(t, map[string]string{"mediaType": "audio"}),
	})
	if want := "Error: invalid mediaType 'audio'."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
	if len(effects.cameras) != 0 {
		t.Errorf("unexpected camera effects %v", effects.cameras)
	}
}

func TestDispatch_SendToFamily(t *testing.T) {
	t.Parallel()

	d, st, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolSendToFamily,
		Args: mustArgs(t, map[string]string{"messageContent": "Dinner was freeze-dried lasagna. Miss you all."}),
	})
	if want := "Message sent."; resp.Result != want {
		t.Fatalf("result = %q, want %q", resp.Result, want)
	}

	a, _ := st.Get(context.Background(), testAstronaut)
	if len(a.EarthlinkMessages) != 1 {
		t.Fatalf("earthlink messages = %d, want 1", len(a.EarthlinkMessages))
	}
	msg := a.EarthlinkMessages[0]
	if msg.From != testAstronaut {
		t.Errorf("message from = %q, want %q", msg.From, testAstronaut)
	}
}

func TestDispatch_SendToFamily_EmptyContent(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolSendToFamily,
		Args: mustArgs(t, map[string]string{"messageContent": ""}),
	})
	if want := "Error: message content must not be empty."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
}

func TestDispatch_SensoryScene(t *testing.T) {
	t.Parallel()

	d, _, effects := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolSensoryScene,
		Args: mustArgs(t, map[string]string{"prompt": "northern lights over a fjord"}),
	})

	if want := "You drift above a glowing aurora."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
	if len(effects.scenes) != 1 || effects.scenes[0].ColorHex != "#22c55e" {
		t.Errorf("scene effects = %+v", effects.scenes)
	}
}

func TestDispatch_SensoryScene_NoGenerator(t *testing.T) {
	t.Parallel()

	// Voice-only deployments construct the dispatcher without a scene
	// generator; the tool must still answer with the fallback instead of
	// dereferencing it.
	d := NewDispatcher(testAstronaut, newTestStore(t), nil, &recordingEffects{}, nil)
	resp := d.Dispatch(context.Background(), live.ToolCall{
		Name: ToolSensoryScene,
		Args: mustArgs(t, map[string]string{"prompt": "northern lights over a fjord"}),
	})

	if resp.Result != scene.FallbackDescription {
		t.Errorf("result = %q, want %q", resp.Result, scene.FallbackDescription)
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{Name: "selfDestruct", Args: "{}"})
	if want := "Error: unknown tool 'selfDestruct'."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
}

func TestDispatch_MalformedArguments(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)
	resp := d.Dispatch(context.Background(), live.ToolCall{Name: ToolLogSymptom, Args: "{not json"})
	if want := "Error: could not parse tool arguments."; resp.Result != want {
		t.Errorf("result = %q, want %q", resp.Result, want)
	}
}

func TestDispatchBatch_OneResponsePerInvocation(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)
	calls := []live.ToolCall{
		{ID: "a", Name: ToolLogSymptom, Args: mustArgs(t, map[string]string{"symptom": "x", "severity": "bogus"})},
		{ID: "b", Name: "noSuchTool", Args: "{}"},
		{ID: "c", Name: ToolNavigate, Args: mustArgs(t, map[string]string{"screen": "nowhere"})},
	}

	resps := d.DispatchBatch(context.Background(), calls)
	if len(resps) != len(calls) {
		t.Fatalf("responses = %d, want %d", len(resps), len(calls))
	}
	for i, resp := range resps {
		if resp.ID != calls[i].ID {
			t.Errorf("response %d ID = %q, want %q", i, resp.ID, calls[i].ID)
		}
		if resp.Result == "" {
			t.Errorf("response %d has empty result", i)
		}
	}
}

// failingStore wraps a Store and fails all symptom log writes.
type failingStore struct {
	store.Store
}

func (failingStore) AddSymptomLog(context.Context, string, store.SymptomLog) (store.SymptomLog, error) {
	return store.SymptomLog{}, errors.New("backend unreachable")
}

func TestDispatch_SideEffectFailureStillAnswers(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	d := NewDispatcher(testAstronaut, failingStore{st}, newTestScenes(), nil, nil)

	resp := d.Dispatch(context.Background(), live.ToolCall{
		ID:   "call-9",
		Name: ToolLogSymptom,
		Args: mustArgs(t, map[string]string{"symptom": "dizziness", "severity": "mild"}),
	})

	// Degraded acknowledgment: the invocation is still answered.
	if resp.Result != "ok" {
		t.Errorf("result = %q, want %q", resp.Result, "ok")
	}
	if resp.ID != "call-9" {
		t.Errorf("response ID = %q, want %q", resp.ID, "call-9")
	}
}
