// Package generate turns lecture transcripts into study material. The
// [Generator] interface has two implementations: [LLM], which prompts a
// configured text-generation backend, and [Heuristic], which composes
// material offline from sentence statistics. [Fallback] chains the two so
// the service keeps producing output when no model is reachable.
package generate

import (
	"context"

	"github.com/MrWong99/lectern/internal/study"
)

// Generator produces study material from lecture text.
type Generator interface {
	// Notes condenses a raw transcript into study notes.
	Notes(ctx context.Context, transcript string) (string, error)

	// Quiz derives question/answer pairs from study notes.
	Quiz(ctx context.Context, notes string) ([]study.QA, error)

	// Flashcards derives flashcards from study notes.
	Flashcards(ctx context.Context, notes string) ([]study.Card, error)
}
