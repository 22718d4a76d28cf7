// Package openai provides a speech-to-text provider backed by the OpenAI
// audio transcription API.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = oai.AudioModelWhisper1

// Ensure Provider implements the stt.Provider interface.
var _ stt.Provider = (*Provider)(nil)

// Provider implements stt.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// OpenAI-compatible transcription servers.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs an OpenAI transcription Provider.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai stt: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{
		client: oai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Transcribe uploads the clip as a WAV file to the transcription endpoint.
func (p *Provider) Transcribe(ctx context.Context, clip audio.Clip) (stt.Result, error) {
	if len(clip.Data) == 0 {
		return stt.Result{}, stt.ErrUnintelligible
	}

	wav := audio.EncodeWAV(clip)
	resp, err := p.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: oai.AudioModel(p.model),
	})
	if err != nil {
		return stt.Result{}, classifyError(err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return stt.Result{}, stt.ErrUnintelligible
	}
	return stt.Result{Text: text, AudioDuration: clip.Duration()}, nil
}

// classifyError maps SDK errors onto the stt error taxonomy. Server-side and
// transport failures become ErrUnavailable; 4xx responses other than 429
// indicate a bad request and are passed through wrapped.
func classifyError(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 || apiErr.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: openai HTTP %d", stt.ErrUnavailable, apiErr.StatusCode)
		}
		return fmt.Errorf("openai stt: %w", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", stt.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", stt.ErrUnavailable, err)
}
