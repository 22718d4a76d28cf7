// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider to return pre-canned transcription results without a live
// recognition backend and to verify which clips were submitted.
//
// Example:
//
//	p := &mock.Provider{
//	    Result: stt.Result{Text: "hello world"},
//	}
//	res, _ := p.Transcribe(ctx, clip)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lectern/pkg/audio"
	"github.com/MrWong99/lectern/pkg/provider/stt"
)

// Call records a single invocation of Transcribe.
type Call struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Clip is the clip passed to Transcribe.
	Clip audio.Clip
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe when Err is nil.
	Result stt.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every invocation in order.
	Calls []Call
}

var _ stt.Provider = (*Provider)(nil)

// Transcribe records the call and returns the configured result or error.
func (p *Provider) Transcribe(ctx context.Context, clip audio.Clip) (stt.Result, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Ctx: ctx, Clip: clip})
	p.mu.Unlock()

	if p.Err != nil {
		return stt.Result{}, p.Err
	}
	res := p.Result
	if res.AudioDuration == 0 {
		res.AudioDuration = clip.Duration()
	}
	return res, nil
}

// CallCount returns the number of recorded Transcribe invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
