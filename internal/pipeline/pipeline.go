// Package pipeline orchestrates the upload path: decode and normalize the
// uploaded audio, cap its length, and transcribe it with the configured STT
// provider. Study-material generation happens downstream so that a cached
// transcript can be re-used without re-running the audio stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrWong99/lectern/internal/observe"
	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// minUsableTranscript is the transcript length (in bytes) below which no
// study material is generated. Very short transcripts are almost always
// noise, a greeting, or a mis-fired upload.
const minUsableTranscript = 50

// DefaultMaxClipDuration caps how much audio is transcribed per upload.
const DefaultMaxClipDuration = 30 * time.Second

// ErrTranscriptTooShort is returned by [Processor.Process] when transcription
// succeeded but produced too little text to summarize. The partial result
// still carries the transcript.
var ErrTranscriptTooShort = errors.New("pipeline: transcript too short to summarize")

// Result is the outcome of processing one upload.
type Result struct {
	// Transcript is the cleaned transcription text.
	Transcript string

	// Confidence is the provider's confidence in the transcript, 0..1,
	// or 0 when the provider does not report one.
	Confidence float64

	// AudioDuration is the length of the audio that was transcribed,
	// after clipping.
	AudioDuration time.Duration
}

// Processor runs uploads through decode, normalize and transcribe stages.
type Processor struct {
	decoder *audio.Decoder
	stt     stt.Provider
	maxClip time.Duration
	metrics *observe.Metrics
}

// Option configures a [Processor].
type Option func(*Processor)

// WithMaxClipDuration overrides [DefaultMaxClipDuration]. Zero disables
// clipping.
func WithMaxClipDuration(d time.Duration) Option {
	return func(p *Processor) {
		p.maxClip = d
	}
}

// WithMetrics sets the metrics instance used for stage latencies. Defaults
// to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// NewProcessor creates a [Processor] transcribing with provider.
func NewProcessor(decoder *audio.Decoder, provider stt.Provider, opts ...Option) *Processor {
	p := &Processor{
		decoder: decoder,
		stt:     provider,
		maxClip: DefaultMaxClipDuration,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Process decodes the named upload, normalizes it to the STT target format,
// clips it to the configured maximum duration and transcribes it.
//
// Decode failures surface [audio.ErrUnsupportedFormat]; transcription
// failures surface the provider's typed errors ([stt.ErrUnintelligible],
// [stt.ErrUnavailable]). A transcript at or under the usable minimum returns
// the partial [Result] together with [ErrTranscriptTooShort].
func (p *Processor) Process(ctx context.Context, filename string, data []byte) (Result, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.process")
	defer span.End()

	start := time.Now()
	format := strings.ToLower(filepath.Ext(filename))

	decodeStart := time.Now()
	clip, err := p.decoder.Decode(ctx, filename, data)
	p.metrics.DecodeDuration.Record(ctx, time.Since(decodeStart).Seconds())
	if err != nil {
		p.metrics.RecordUpload(ctx, format, "decode_error")
		return Result{}, fmt.Errorf("pipeline: decode %s: %w", filename, err)
	}

	if p.maxClip > 0 {
		clip = clip.Truncate(p.maxClip)
	}

	sttStart := time.Now()
	res, err := p.stt.Transcribe(ctx, clip)
	p.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		p.metrics.RecordUpload(ctx, format, "stt_error")
		return Result{}, fmt.Errorf("pipeline: transcribe: %w", err)
	}

	result := Result{
		Transcript:    strings.TrimSpace(res.Text),
		Confidence:    res.Confidence,
		AudioDuration: res.AudioDuration,
	}
	if result.AudioDuration == 0 {
		result.AudioDuration = clip.Duration()
	}

	p.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())

	if len(result.Transcript) <= minUsableTranscript {
		p.metrics.RecordUpload(ctx, format, "too_short")
		return result, ErrTranscriptTooShort
	}
	p.metrics.RecordUpload(ctx, format, "ok")
	return result, nil
}
