package resilience

import (
	"context"
	"errors"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across multiple
// STT backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	if cfg.Kind == "" {
		cfg.Kind = "stt"
	}
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe runs the clip through the first healthy provider. If the primary
// fails, subsequent fallbacks are tried. An [stt.ErrUnintelligible] result is a
// verdict about the audio, not a provider failure, so it ends the attempt
// without failover and without tripping the provider's breaker.
func (f *STTFallback) Transcribe(ctx context.Context, clip audio.Clip) (stt.Result, error) {
	var silent bool
	result, err := ExecuteWithResult(ctx, f.group, func(p stt.Provider) (stt.Result, error) {
		res, err := p.Transcribe(ctx, clip)
		if errors.Is(err, stt.ErrUnintelligible) {
			silent = true
			return stt.Result{}, nil
		}
		return res, err
	})
	if err != nil {
		return stt.Result{}, err
	}
	if silent {
		return stt.Result{}, stt.ErrUnintelligible
	}
	return result, nil
}
