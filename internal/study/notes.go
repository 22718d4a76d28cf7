package study

import (
	"slices"
	"strings"
)

const (
	// minTranscriptLen is the minimum transcript length worth summarising.
	// Anything shorter returns [TooShortNotes] untouched.
	minTranscriptLen = 30

	// minNoteFragmentLen is the minimum sentence-fragment length that may
	// contribute to the notes.
	minNoteFragmentLen = 20

	// topFragments is how many of the longest fragments are concatenated.
	topFragments = 3

	// maxNotesLen is the character budget for the produced notes.
	maxNotesLen = 300
)

// TooShortNotes is returned by [ExtractNotes] for transcripts too short to
// summarise.
const TooShortNotes = "Transcript is too short to summarize."

// ExtractNotes condenses a transcript into study notes of at most ~300
// characters by ranking sentence fragments by length and concatenating the
// longest three. Longer sentences tend to carry the lecture's substantive
// statements; filler ("okay, next slide") is short. The fragments appear in
// ranked order, not document order.
//
// ExtractNotes never fails: transcripts under 30 characters yield
// [TooShortNotes], and over-budget output is truncated with an ellipsis.
func ExtractNotes(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if len(transcript) < minTranscriptLen {
		return TooShortNotes
	}

	if !strings.ContainsAny(transcript, ".!?") {
		// No sentence punctuation at all: the transcript is one giant
		// sentence. Return it as is, subject only to the budget; joining
		// would invent a terminator the speaker never produced.
		return truncate(transcript, maxNotesLen)
	}

	fragments := qualifyingFragments(transcript, minNoteFragmentLen)
	if len(fragments) == 0 {
		// Punctuated, but every fragment is below the length floor.
		return truncate(transcript, maxNotesLen)
	}

	// Stable sort by descending length so equal-length fragments keep
	// their document order and the output stays deterministic.
	slices.SortStableFunc(fragments, func(a, b string) int {
		return len(b) - len(a)
	})

	n := min(topFragments, len(fragments))
	notes := strings.Join(fragments[:n], ". ") + "."
	return truncate(notes, maxNotesLen)
}
