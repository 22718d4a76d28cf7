// Package gemini provides a generation provider that talks to the Google
// Gemini API directly through google.golang.org/genai.
//
// Unlike the universal anyllm backend, this provider supports rotating
// through multiple API keys: free-tier Gemini keys are rate-limited per
// key, and lecture summarisation bursts easily exhaust a single one. On a
// 429 / quota error the next key is tried before failing.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/MrWong99/lectern/pkg/provider/gen"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Compile-time assertion that Provider implements gen.Provider.
var _ gen.Provider = (*Provider)(nil)

// Provider implements gen.Provider against the Gemini API with API-key
// rotation. Safe for concurrent use.
type Provider struct {
	model   string
	apiKeys []string

	mu         sync.Mutex
	currentKey int
	clients    map[int]*genai.Client
}

// Option is a functional option for configuring a [Provider].
type Option func(*Provider)

// WithModel sets the Gemini model name. Defaults to [DefaultModel].
func WithModel(model string) Option {
	return func(p *Provider) {
		if model != "" {
			p.model = model
		}
	}
}

// New creates a Provider that rotates through the supplied API keys.
// At least one key is required.
func New(apiKeys []string, opts ...Option) (*Provider, error) {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, strings.TrimSpace(k))
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("gemini: at least one API key is required")
	}

	p := &Provider{
		model:   DefaultModel,
		apiKeys: keys,
		clients: make(map[int]*genai.Client, len(keys)),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Complete implements gen.Provider. Quota errors rotate to the next key;
// when every key is exhausted ErrUnavailable is returned.
func (p *Provider) Complete(ctx context.Context, req gen.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("gemini: prompt must not be empty")
	}

	var genCfg *genai.GenerateContentConfig
	if req.SystemPrompt != "" || req.MaxTokens > 0 || req.Temperature != 0 {
		genCfg = &genai.GenerateContentConfig{}
		if req.SystemPrompt != "" {
			genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
		}
		if req.MaxTokens > 0 {
			genCfg.MaxOutputTokens = int32(req.MaxTokens)
		}
		if req.Temperature != 0 {
			t := float32(req.Temperature)
			genCfg.Temperature = &t
		}
	}

	attempts := len(p.apiKeys)
	var lastErr error

	for range attempts {
		_, idx := p.activeKey()

		client, err := p.clientForKey(ctx, idx)
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			p.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), genCfg)
		if err != nil {
			if isQuotaError(err) {
				slog.Warn("gemini: key rate limited, rotating", "key_index", idx)
				p.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("%w: %v", gen.ErrUnavailable, err)
		}

		text := collectText(result)
		if text == "" {
			return "", fmt.Errorf("gemini: empty response")
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: all API keys exhausted: %v", gen.ErrUnavailable, lastErr)
}

// activeKey returns the currently selected key and its index.
func (p *Provider) activeKey() (string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.apiKeys[p.currentKey], p.currentKey
}

// clientForKey returns the cached client for the key at idx, building it on
// first use. Clients are reused across calls; a rotation back to an earlier
// key picks up its existing client.
func (p *Provider) clientForKey(ctx context.Context, idx int) (*genai.Client, error) {
	p.mu.Lock()
	if c, ok := p.clients[idx]; ok {
		p.mu.Unlock()
		return c, nil
	}
	key := p.apiKeys[idx]
	p.mu.Unlock()

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.clients[idx]; ok {
		return existing, nil
	}
	p.clients[idx] = c
	return c, nil
}

func (p *Provider) rotateKey() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentKey = (p.currentKey + 1) % len(p.apiKeys)
}

// isQuotaError reports whether err looks like a rate-limit or quota
// exhaustion response.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// collectText concatenates the text parts of the first candidate.
func collectText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}
