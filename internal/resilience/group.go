package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [Group] fails or has an open
// breaker.
var ErrAllFailed = errors.New("all providers failed")

// GroupConfig configures the per-entry breaker created for each provider in a
// [Group].
type GroupConfig struct {
	Breaker BreakerConfig
}

// groupEntry pairs a provider value with its dedicated breaker.
type groupEntry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Group wraps a primary and zero or more fallback instances of the same
// provider type. When the primary fails, or its breaker is open, the next
// healthy fallback is tried in registration order.
//
// Group is safe for concurrent use once all fallbacks are registered.
type Group[T any] struct {
	entries []groupEntry[T]
	cfg     GroupConfig
}

// NewGroup creates a [Group] with primary as the first entry. Additional
// fallbacks are registered via [Group.AddFallback].
func NewGroup[T any](primary T, primaryName string, cfg GroupConfig) *Group[T] {
	bc := cfg.Breaker
	bc.Name = primaryName
	return &Group[T]{
		entries: []groupEntry[T]{
			{name: primaryName, value: primary, breaker: NewBreaker(bc)},
		},
		cfg: cfg,
	}
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order
// they are added, after the primary.
func (g *Group[T]) AddFallback(name string, fallback T) {
	bc := g.cfg.Breaker
	bc.Name = name
	g.entries = append(g.entries, groupEntry[T]{
		name: name, value: fallback, breaker: NewBreaker(bc),
	})
}

// Do tries fn against each entry in order until one succeeds. Open-breaker
// entries are skipped. Returns [ErrAllFailed] wrapped with the last error if
// every entry fails.
func (g *Group[T]) Do(fn func(T) error) error {
	var lastErr error
	for i := range g.entries {
		entry := &g.entries[i]
		err := entry.breaker.Do(func() error {
			return fn(entry.value)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		logEntryFailure(entry.name, err)
	}
	return fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// DoWithResult tries fn against each entry until one succeeds, returning the
// result. A package-level function because Go does not support method-level
// type parameters.
func DoWithResult[T any, R any](g *Group[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range g.entries {
		entry := &g.entries[i]
		var result R
		err := entry.breaker.Do(func() error {
			var innerErr error
			result, innerErr = fn(entry.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		logEntryFailure(entry.name, err)
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

func logEntryFailure(name string, err error) {
	if errors.Is(err, ErrBreakerOpen) {
		slog.Debug("skipping provider (circuit open)", "provider", name)
	} else {
		slog.Warn("provider failed, trying next", "provider", name, "error", err)
	}
}
