// Package whisper provides speech-to-text providers backed by whisper.cpp.
//
// Two implementations are available:
//
//   - [Provider] talks to a running whisper-server binary over its REST API
//     (POST /inference). Suitable when the model runs in a separate process
//     or on another host.
//   - [NativeProvider] (native.go) uses the whisper.cpp CGO bindings and
//     loads the model in-process, eliminating HTTP overhead. Requires
//     libwhisper.a and whisper.h at link time.
//
// Usage:
//
//	p, err := whisper.New("http://localhost:8080", whisper.WithLanguage("en"))
//	res, err := p.Transcribe(ctx, clip)
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 2 * time.Minute
)

// blankMarkers are strings whisper.cpp emits for non-speech audio. A
// response consisting solely of these is treated as unintelligible.
var blankMarkers = []string{"[BLANK_AUDIO]", "[SILENCE]", "(silence)", "[MUSIC]"}

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a [Provider].
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the language code sent to the server (e.g., "en", "de").
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithHTTPClient overrides the HTTP client used for inference requests.
// The default client has a 2-minute timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// Provider implements stt.Provider against a whisper.cpp HTTP server.
// Safe for concurrent use.
type Provider struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Provider that sends inference requests to the whisper.cpp
// server at serverURL (e.g., "http://localhost:8080").
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe encodes the clip as a WAV file and POSTs it to the /inference
// endpoint as multipart/form-data.
func (p *Provider) Transcribe(ctx context.Context, clip audio.Clip) (stt.Result, error) {
	if len(clip.Data) == 0 {
		return stt.Result{}, stt.ErrUnintelligible
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio.EncodeWAV(clip)); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: write wav data: %w", err)
	}
	if p.language != "" {
		if err := mw.WriteField("language", p.language); err != nil {
			return stt.Result{}, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return stt.Result{}, fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/inference", &body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return stt.Result{}, fmt.Errorf("%w: %v", stt.ErrUnavailable, err)
		}
		return stt.Result{}, fmt.Errorf("%w: %v", stt.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stt.Result{}, fmt.Errorf("%w: server returned HTTP %d", stt.ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: read response: %v", stt.ErrUnavailable, err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return stt.Result{}, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	text := CleanTranscript(result.Text)
	if text == "" {
		return stt.Result{}, stt.ErrUnintelligible
	}
	return stt.Result{Text: text, AudioDuration: clip.Duration()}, nil
}

// CleanTranscript trims whitespace and strips whisper.cpp non-speech
// markers. Returns "" when nothing recognisable remains.
func CleanTranscript(text string) string {
	for _, marker := range blankMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	return strings.TrimSpace(text)
}
