package generate

import (
	"context"

	"github.com/MrWong99/lectern/internal/study"
)

// Heuristic implements [Generator] with the offline sentence-ranking
// composers from the study package. It needs no network, no credentials and
// no model, and its methods never fail.
type Heuristic struct{}

// Compile-time interface assertion.
var _ Generator = (*Heuristic)(nil)

// NewHeuristic creates a [Heuristic] generator.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Notes condenses the transcript with [study.ExtractNotes].
func (h *Heuristic) Notes(_ context.Context, transcript string) (string, error) {
	return study.ExtractNotes(transcript), nil
}

// Quiz composes question/answer pairs with [study.ComposeQuiz].
func (h *Heuristic) Quiz(_ context.Context, notes string) ([]study.QA, error) {
	return study.ComposeQuiz(notes), nil
}

// Flashcards composes cards with [study.ComposeFlashcards].
func (h *Heuristic) Flashcards(_ context.Context, notes string) ([]study.Card, error) {
	return study.ComposeFlashcards(notes), nil
}
