package generate

import (
	"context"
	"strings"
	"testing"

	genmock "github.com/MrWong99/lectern/pkg/provider/gen/mock"
)

func TestFallback_PrefersPrimary(t *testing.T) {
	t.Parallel()
	provider := &genmock.Provider{Response: "Model-written notes."}
	fb := NewFallback(NewLLM(provider, LLMConfig{}), NewHeuristic())

	notes, err := fb.Notes(context.Background(), "a transcript of reasonable length here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notes != "Model-written notes." {
		t.Errorf("notes = %q", notes)
	}
}

func TestFallback_UsesBackupOnError(t *testing.T) {
	t.Parallel()
	provider := &genmock.Provider{Err: context.DeadlineExceeded}
	fb := NewFallback(NewLLM(provider, LLMConfig{}), NewHeuristic())

	transcript := "The mitochondria is the powerhouse of the cell. " +
		"It produces ATP through respiration. This process is essential for life."

	notes, err := fb.Notes(context.Background(), transcript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(notes, "powerhouse of the cell") {
		t.Errorf("backup notes = %q", notes)
	}

	quiz, err := fb.Quiz(context.Background(), notes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quiz) == 0 {
		t.Error("backup quiz is empty")
	}

	cards, err := fb.Flashcards(context.Background(), notes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) == 0 {
		t.Error("backup flashcards are empty")
	}
}

func TestHeuristic_NeverFails(t *testing.T) {
	t.Parallel()
	h := NewHeuristic()
	ctx := context.Background()

	if _, err := h.Notes(ctx, ""); err != nil {
		t.Errorf("Notes: %v", err)
	}
	if _, err := h.Quiz(ctx, ""); err != nil {
		t.Errorf("Quiz: %v", err)
	}
	if _, err := h.Flashcards(ctx, ""); err != nil {
		t.Errorf("Flashcards: %v", err)
	}
}
