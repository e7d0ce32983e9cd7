package resilience

import (
	"context"

	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

// LLM implements [llm.Provider] with a circuit breaker per backend and
// automatic failover. The chat companion and the scene generator call through
// it so that a model outage degrades into fast errors instead of hung
// requests against a dead endpoint.
type LLM struct {
	group *Group[llm.Provider]
}

// Compile-time interface assertion.
var _ llm.Provider = (*LLM)(nil)

// WrapLLM creates an [LLM] with primary as the preferred backend.
func WrapLLM(primary llm.Provider, primaryName string, cfg GroupConfig) *LLM {
	return &LLM{group: NewGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional backend tried when the primary fails.
func (f *LLM) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends the request to the first healthy backend and returns its
// response.
func (f *LLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return DoWithResult(f.group, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// StreamCompletion sends the request to the first healthy backend. Only the
// initial connection attempt participates in failover; once a stream is
// established, mid-stream errors are the caller's responsibility.
func (f *LLM) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	return DoWithResult(f.group, func(p llm.Provider) (<-chan llm.Chunk, error) {
		return p.StreamCompletion(ctx, req)
	})
}

// Capabilities returns the primary backend's capabilities. Static metadata
// does not participate in failover.
func (f *LLM) Capabilities() llm.ModelCapabilities {
	return f.group.entries[0].value.Capabilities()
}
