// Package stt defines the Provider interface for speech-to-text backends.
//
// A provider wraps a transcription engine (a whisper.cpp server, the
// whisper.cpp CGO bindings, or the OpenAI transcription API) behind a single
// batch call: one normalised clip in, one transcript out. Failure modes are
// typed errors rather than sentinel strings so that callers can distinguish
// "the audio was noise" from "the service is down" without string matching,
// and so that failure text can never be mistaken for transcript content.
//
// Implementations must be safe for concurrent use; the pipeline may
// transcribe several uploads at once.
package stt

import (
	"context"
	"errors"
	"time"

	"github.com/MrWong99/lectern/pkg/audio"
)

// ErrUnintelligible is returned when the recogniser processed the audio but
// produced no usable text (silence, noise, or an unsupported language).
var ErrUnintelligible = errors.New("stt: could not understand audio")

// ErrUnavailable is returned when the transcription backend cannot be
// reached or rejects the request for operational reasons (connection
// failure, 5xx, quota). The audio itself may be fine.
var ErrUnavailable = errors.New("stt: transcription service unavailable")

// Result is a completed transcription.
type Result struct {
	// Text is the recognised speech, whitespace-trimmed, never empty for a
	// nil-error return.
	Text string

	// Confidence is the overall recognition confidence (0.0–1.0). Zero when
	// the backend does not report one.
	Confidence float64

	// AudioDuration is the playback length of the clip that was transcribed.
	AudioDuration time.Duration
}

// Provider is the abstraction over any speech-to-text backend.
type Provider interface {
	// Transcribe recognises speech in a clip. The clip should already be in
	// [audio.STTFormat]; implementations may reject or internally convert
	// other formats.
	//
	// Returns ErrUnintelligible when no usable text was produced and
	// ErrUnavailable (possibly wrapped) when the backend cannot service the
	// request. Any other error indicates a malformed request.
	Transcribe(ctx context.Context, clip audio.Clip) (Result, error)
}
