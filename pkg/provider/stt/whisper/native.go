// This file contains the NativeProvider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// Compile-time assertion that NativeProvider satisfies stt.Provider.
var _ stt.Provider = (*NativeProvider)(nil)

// NativeProvider implements stt.Provider using the whisper.cpp Go bindings
// (CGO). The model is loaded once at construction and shared across all
// transcriptions; each call creates its own whisper context because contexts
// are not thread-safe.
type NativeProvider struct {
	model    whisperlib.Model
	language string

	// mu serialises inference. whisper.cpp contexts are cheap but the
	// underlying model evaluation saturates the CPU; running calls
	// sequentially keeps latency predictable.
	mu sync.Mutex
}

// NativeOption is a functional option for configuring a [NativeProvider].
type NativeOption func(*NativeProvider)

// WithNativeLanguage sets the language code for transcription (e.g., "en",
// "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *NativeProvider) { p.language = lang }
}

// NewNative creates a NativeProvider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*NativeProvider, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &NativeProvider{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Close releases the whisper model. Must be called when the provider is no
// longer needed.
func (p *NativeProvider) Close() error {
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}

// Transcribe runs batch inference over the whole clip.
func (p *NativeProvider) Transcribe(ctx context.Context, clip audio.Clip) (stt.Result, error) {
	if err := ctx.Err(); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	if len(clip.Data) == 0 {
		return stt.Result{}, stt.ErrUnintelligible
	}

	samples := monoSamplesFromPCM(clip.Data, clip.Channels)

	p.mu.Lock()
	defer p.mu.Unlock()

	wctx, err := p.model.NewContext()
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: create context: %v", stt.ErrUnavailable, err)
	}
	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", p.language, "err", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return stt.Result{}, fmt.Errorf("%w: process audio: %v", stt.ErrUnavailable, err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stt.Result{}, fmt.Errorf("whisper: read segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}

	text := CleanTranscript(strings.Join(parts, " "))
	if text == "" {
		return stt.Result{}, stt.ErrUnintelligible
	}
	return stt.Result{Text: text, AudioDuration: clip.Duration()}, nil
}
