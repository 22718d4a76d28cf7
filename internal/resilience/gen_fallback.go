package resilience

import (
	"context"

	"github.com/MrWong99/lectern/pkg/provider/gen"
)

// GenFallback implements [gen.Provider] with automatic failover across multiple
// text-generation backends. Each backend has its own circuit breaker; when the
// primary fails or its breaker is open, the next healthy fallback is tried.
type GenFallback struct {
	group *FallbackGroup[gen.Provider]
}

// Compile-time interface assertion.
var _ gen.Provider = (*GenFallback)(nil)

// NewGenFallback creates a [GenFallback] with primary as the preferred backend.
func NewGenFallback(primary gen.Provider, primaryName string, cfg FallbackConfig) *GenFallback {
	if cfg.Kind == "" {
		cfg.Kind = "generate"
	}
	return &GenFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional generation provider as a fallback.
func (f *GenFallback) AddFallback(name string, provider gen.Provider) {
	f.group.AddFallback(name, provider)
}

// Complete sends the request to the first healthy provider and returns its
// response. If the primary fails, subsequent fallbacks are tried.
func (f *GenFallback) Complete(ctx context.Context, req gen.Request) (string, error) {
	return ExecuteWithResult(ctx, f.group, func(p gen.Provider) (string, error) {
		return p.Complete(ctx, req)
	})
}
