package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrWong99/lectern/internal/observe"
)

// ErrAllFailed is returned when no entry in a [FallbackGroup] could serve a
// call, either because it failed or because its breaker rejected it.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig holds the breaker settings applied to every entry of a
// [FallbackGroup]. The breaker name is overridden per entry.
type FallbackConfig struct {
	CircuitBreaker CircuitBreakerConfig

	// Kind labels the provider kind ("stt", "generate") on the request and
	// error counters.
	Kind string

	// Metrics receives per-entry request and error counts. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup holds an ordered list of interchangeable backends, each
// guarded by its own [CircuitBreaker]. Calls go to the first entry whose
// breaker admits them and which does not fail.
//
// FallbackGroup is safe for concurrent use once all fallbacks are registered.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a group whose first entry is primary. Register
// lower-priority backends with [FallbackGroup.AddFallback] before use.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.add(primaryName, primary)
	return fg
}

// AddFallback appends a backend behind the primary and any previously added
// fallbacks.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	fg.add(name, fallback)
}

func (fg *FallbackGroup[T]) add(name string, value T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   value,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Execute runs fn against entries in priority order until one succeeds.
// If every entry fails or is rejected by its breaker, the returned error
// wraps [ErrAllFailed] together with the last error seen.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult runs fn against the group's entries in priority order and
// returns the first successful result. Every attempted entry is counted on
// the provider request counter; breaker-rejected entries never reach the
// backend and are not counted. It is a package function rather than a method
// because methods cannot introduce the result type parameter R.
func ExecuteWithResult[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var lastErr error
	for i := range fg.entries {
		entry := &fg.entries[i]

		var result R
		err := entry.breaker.Execute(func() error {
			var callErr error
			result, callErr = fn(entry.value)
			return callErr
		})
		if err == nil {
			fg.cfg.Metrics.RecordProviderRequest(ctx, entry.name, fg.cfg.Kind, "ok")
			return result, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("backend skipped, breaker open", "provider", entry.name)
			continue
		}
		fg.cfg.Metrics.RecordProviderRequest(ctx, entry.name, fg.cfg.Kind, "error")
		fg.cfg.Metrics.RecordProviderError(ctx, entry.name, fg.cfg.Kind)
		slog.Warn("backend failed, trying next",
			"provider", entry.name, "error", err)
	}

	var zero R
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
