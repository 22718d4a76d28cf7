package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/lectern/internal/observe"
	"github.com/MrWong99/lectern/internal/study"
	"github.com/MrWong99/lectern/pkg/provider/gen"
)

const (
	notesPrompt      = "Summarize the following lecture notes:\n%s"
	quizPrompt       = "Generate a quiz with questions and answers based on these notes:\n%s"
	flashcardsPrompt = "Generate flashcards with question-answer pairs based on these notes:\n%s"

	systemPrompt = "You are a study assistant. Answer concisely. " +
		"When asked for questions and answers, format each pair as a 'Q:' line followed by an 'A:' line."
)

// LLMConfig tunes the completion requests an [LLM] generator sends.
type LLMConfig struct {
	// MaxTokens bounds the completion length. Zero means provider default.
	MaxTokens int

	// Temperature is the sampling temperature. Study material wants low
	// values; 0 is passed through as-is.
	Temperature float64
}

// LLM implements [Generator] by prompting a text-generation backend. Quiz
// and flashcard responses are parsed out of the model's free-form text; when
// a response yields no parseable pairs, the offline composers run over the
// notes instead so the caller always gets usable material.
type LLM struct {
	provider gen.Provider
	cfg      LLMConfig
	metrics  *observe.Metrics
}

// Compile-time interface assertion.
var _ Generator = (*LLM)(nil)

// LLMOption configures an [LLM].
type LLMOption func(*LLM)

// WithMetrics sets the metrics instance used for completion latency.
// Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) LLMOption {
	return func(l *LLM) {
		l.metrics = m
	}
}

// NewLLM creates an [LLM] generator on top of provider.
func NewLLM(provider gen.Provider, cfg LLMConfig, opts ...LLMOption) *LLM {
	l := &LLM{provider: provider, cfg: cfg}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = observe.DefaultMetrics()
	}
	return l
}

// Notes asks the model to summarize the transcript.
func (l *LLM) Notes(ctx context.Context, transcript string) (string, error) {
	out, err := l.complete(ctx, fmt.Sprintf(notesPrompt, transcript))
	if err != nil {
		return "", fmt.Errorf("generate: notes: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Quiz asks the model for question/answer pairs and parses them from the
// response text.
func (l *LLM) Quiz(ctx context.Context, notes string) ([]study.QA, error) {
	out, err := l.complete(ctx, fmt.Sprintf(quizPrompt, notes))
	if err != nil {
		return nil, fmt.Errorf("generate: quiz: %w", err)
	}
	pairs := parsePairs(out)
	if len(pairs) == 0 {
		slog.Warn("model quiz response had no parseable pairs, composing offline")
		return study.ComposeQuiz(notes), nil
	}
	quiz := make([]study.QA, len(pairs))
	for i, p := range pairs {
		quiz[i] = study.QA{Question: p.prompt, Answer: p.response}
	}
	return quiz, nil
}

// Flashcards asks the model for flashcards and parses them from the
// response text.
func (l *LLM) Flashcards(ctx context.Context, notes string) ([]study.Card, error) {
	out, err := l.complete(ctx, fmt.Sprintf(flashcardsPrompt, notes))
	if err != nil {
		return nil, fmt.Errorf("generate: flashcards: %w", err)
	}
	pairs := parsePairs(out)
	if len(pairs) == 0 {
		slog.Warn("model flashcard response had no parseable pairs, composing offline")
		return study.ComposeFlashcards(notes), nil
	}
	cards := make([]study.Card, len(pairs))
	for i, p := range pairs {
		cards[i] = study.Card{Front: p.prompt, Back: p.response}
	}
	return cards, nil
}

func (l *LLM) complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := l.provider.Complete(ctx, gen.Request{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		MaxTokens:    l.cfg.MaxTokens,
		Temperature:  l.cfg.Temperature,
	})
	l.metrics.GenerateDuration.Record(ctx, time.Since(start).Seconds())
	return out, err
}
