// Package scene generates sensory immersion scenes from free-form
// astronaut prompts. A scene is a short second-person description plus a
// dominant color used to drive the habitat's ambient lighting.
package scene

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

const (
	// FallbackDescription is returned whenever generation fails. The
	// assistant reads it aloud, so it has to be a complete sentence.
	FallbackDescription = "I couldn't quite picture that scene. Could you describe another?"

	// FallbackColor is a calm cyan used when no scene could be generated.
	FallbackColor = "#06b6d4"
)

const systemPrompt = "You are a sensory immersion engine aboard a space habitat. " +
	"Given a scene request, write a vivid, calming second-person description " +
	"of at most three sentences, and pick the single dominant color of the " +
	"scene as a hex value."

var responseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"description": map[string]any{
			"type":        "string",
			"description": "Second-person scene description, at most three sentences.",
		},
		"dominant_color_hex": map[string]any{
			"type":        "string",
			"description": "Dominant scene color as a #rrggbb hex value.",
		},
	},
	"required": []string{"description", "dominant_color_hex"},
}

// Scene is a generated immersion scene.
type Scene struct {
	Description string `json:"description"`
	ColorHex    string `json:"dominant_color_hex"`
}

// Generator turns scene prompts into scenes using a text model.
type Generator struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewGenerator creates a scene generator backed by the given provider.
func NewGenerator(provider llm.Provider, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, logger: logger}
}

// Generate produces a scene for the given prompt. Generation failures are
// logged and answered with the fallback scene; the returned error is only
// non-nil when the context was cancelled.
func (g *Generator) Generate(ctx context.Context, prompt string) (Scene, error) {
	if ctx.Err() != nil {
		return Scene{}, ctx.Err()
	}

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt:   systemPrompt,
		Messages:       []llm.Message{{Role: "user", Content: prompt}},
		ResponseSchema: responseSchema,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Scene{}, ctx.Err()
		}
		g.logger.Warn("scene generation failed", "error", err)
		return fallback(), nil
	}

	scene, ok := parseScene(resp.Content)
	if !ok {
		g.logger.Warn("scene response not parseable", "content", resp.Content)
		return fallback(), nil
	}
	return scene, nil
}

func fallback() Scene {
	return Scene{Description: FallbackDescription, ColorHex: FallbackColor}
}

// parseScene extracts the scene object from model output, tolerating
// markdown code fences around the JSON.
func parseScene(content string) (Scene, bool) {
	trimmed := strings.TrimSpace(content)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	var scene Scene
	if err := json.Unmarshal([]byte(trimmed), &scene); err != nil {
		return Scene{}, false
	}
	if scene.Description == "" {
		return Scene{}, false
	}
	if !validHex(scene.ColorHex) {
		scene.ColorHex = FallbackColor
	}
	return scene, true
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
