package generate

import (
	"context"
	"log/slog"

	"github.com/MrWong99/lectern/internal/study"
)

// Fallback chains two generators: every call goes to the primary first and
// falls back to the backup when the primary fails. Pairing an [LLM] primary
// with a [Heuristic] backup keeps the service producing study material with
// no model configured or reachable.
type Fallback struct {
	primary Generator
	backup  Generator
}

// Compile-time interface assertion.
var _ Generator = (*Fallback)(nil)

// NewFallback creates a [Fallback] preferring primary.
func NewFallback(primary, backup Generator) *Fallback {
	return &Fallback{primary: primary, backup: backup}
}

// Notes generates notes via the primary, falling back on error.
func (f *Fallback) Notes(ctx context.Context, transcript string) (string, error) {
	notes, err := f.primary.Notes(ctx, transcript)
	if err == nil {
		return notes, nil
	}
	slog.Warn("primary generator failed, using backup", "op", "notes", "error", err)
	return f.backup.Notes(ctx, transcript)
}

// Quiz generates a quiz via the primary, falling back on error.
func (f *Fallback) Quiz(ctx context.Context, notes string) ([]study.QA, error) {
	quiz, err := f.primary.Quiz(ctx, notes)
	if err == nil {
		return quiz, nil
	}
	slog.Warn("primary generator failed, using backup", "op", "quiz", "error", err)
	return f.backup.Quiz(ctx, notes)
}

// Flashcards generates flashcards via the primary, falling back on error.
func (f *Fallback) Flashcards(ctx context.Context, notes string) ([]study.Card, error) {
	cards, err := f.primary.Flashcards(ctx, notes)
	if err == nil {
		return cards, nil
	}
	slog.Warn("primary generator failed, using backup", "op", "flashcards", "error", err)
	return f.backup.Flashcards(ctx, notes)
}
