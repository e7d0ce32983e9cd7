package resilience_test

import (
	"context"
	"errors"
	"testing"

	"github.com/maitri-mission/maitri/internal/resilience"
	"github.com/maitri-mission/maitri/pkg/provider/llm"
	llmmock "github.com/maitri-mission/maitri/pkg/provider/llm/mock"
)

func TestLLM_PrimaryServes(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from primary"},
	}
	wrapped := resilience.WrapLLM(primary, "primary", resilience.GroupConfig{})

	resp, err := wrapped.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if resp.Content != "from primary" {
		t.Errorf("Content = %q, want %q", resp.Content, "from primary")
	}
}

func TestLLM_FailsOverToFallback(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{CompleteErr: errors.New("backend down")}
	backup := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "from backup"},
	}

	wrapped := resilience.WrapLLM(primary, "primary", resilience.GroupConfig{})
	wrapped.AddFallback("backup", backup)

	resp, err := wrapped.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if resp.Content != "from backup" {
		t.Errorf("Content = %q, want %q", resp.Content, "from backup")
	}
	if len(primary.CompleteCalls) != 1 {
		t.Errorf("primary calls = %d, want 1", len(primary.CompleteCalls))
	}
}

func TestLLM_AllBackendsFail(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{CompleteErr: errors.New("down")}
	wrapped := resilience.WrapLLM(primary, "primary", resilience.GroupConfig{})

	_, err := wrapped.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Fatalf("error = %v, want ErrAllFailed", err)
	}
}

func TestLLM_StreamFailover(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{StreamErr: errors.New("no stream")}
	backup := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: "hi"}, {FinishReason: "stop"}},
	}

	wrapped := resilience.WrapLLM(primary, "primary", resilience.GroupConfig{})
	wrapped.AddFallback("backup", backup)

	ch, err := wrapped.StreamCompletion(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("StreamCompletion() error: %v", err)
	}

	var text string
	for chunk := range ch {
		text += chunk.Text
	}
	if text != "hi" {
		t.Errorf("streamed text = %q, want %q", text, "hi")
	}
}

func TestLLM_Capabilities(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		ModelCapabilities: llm.ModelCapabilities{SupportsToolCalling: true},
	}
	wrapped := resilience.WrapLLM(primary, "primary", resilience.GroupConfig{})

	if !wrapped.Capabilities().SupportsToolCalling {
		t.Error("Capabilities().SupportsToolCalling = false, want true")
	}
}
