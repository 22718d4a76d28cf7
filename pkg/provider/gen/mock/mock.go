// Package mock provides a test double for the gen.Provider interface.
//
// Use Provider to return pre-canned completions without a live model and
// to inspect the prompts that were submitted.
//
// Example:
//
//	p := &mock.Provider{Response: "A short summary."}
//	text, _ := p.Complete(ctx, gen.Request{Prompt: "Summarize: ..."})
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/lectern/pkg/provider/gen"
)

// Call records a single invocation of Complete.
type Call struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the request passed to Complete.
	Req gen.Request
}

// Provider is a mock implementation of gen.Provider.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete when Err is nil and Responses is
	// empty.
	Response string

	// Responses, when non-empty, is consumed one entry per call before
	// falling back to Response.
	Responses []string

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// Calls records every invocation in order.
	Calls []Call
}

var _ gen.Provider = (*Provider)(nil)

// Complete records the call and returns the configured response or error.
func (p *Provider) Complete(ctx context.Context, req gen.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, Call{Ctx: ctx, Req: req})
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.Responses) > 0 {
		resp := p.Responses[0]
		p.Responses = p.Responses[1:]
		return resp, nil
	}
	return p.Response, nil
}

// CallCount returns the number of recorded Complete invocations.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// LastPrompt returns the prompt of the most recent call, or "".
func (p *Provider) LastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return ""
	}
	return p.Calls[len(p.Calls)-1].Req.Prompt
}
