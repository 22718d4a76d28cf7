package study

import "strings"

const (
	// maxFlashcards caps how many cards a single set of notes yields.
	maxFlashcards = 6

	// frontWords is how many leading words of a fragment form the card
	// front.
	frontWords = 3

	// minAnswerWordLen is the minimum length of a word eligible as a
	// one-word answer. Shorter words are articles and filler.
	minAnswerWordLen = 5

	// placeholderAnswer fills the back when no word in the fragment
	// qualifies as an answer.
	placeholderAnswer = "KEY"
)

// Card is a single flashcard.
type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ComposeFlashcards synthesizes up to six flashcards from study notes.
// Each qualifying fragment becomes one card: the front shows the
// fragment's first three words as a cue, and the back is a deliberately
// terse one-word answer picked from the words that follow.
func ComposeFlashcards(notes string) []Card {
	fragments := qualifyingFragments(notes, minQuizFragmentLen)
	if len(fragments) > maxFlashcards {
		fragments = fragments[:maxFlashcards]
	}

	cards := make([]Card, 0, len(fragments))
	for _, frag := range fragments {
		words := strings.Fields(frag)
		n := min(frontWords, len(words))
		cards = append(cards, Card{
			Front: strings.Join(words[:n], " "),
			Back:  pickAnswer(words, n),
		})
	}
	return cards
}

// pickAnswer selects the first word after the front window longer than four
// characters, upper-cased. When no word after the window qualifies, the
// fragment's last word serves as the answer. Fragments whose every word is
// already inside the front window get the placeholder instead: their last
// word is printed on the front, so echoing it on the back would give the
// answer away.
func pickAnswer(words []string, after int) string {
	for _, w := range words[after:] {
		if len(w) >= minAnswerWordLen {
			return strings.ToUpper(w)
		}
	}
	if len(words) > after {
		return strings.ToUpper(words[len(words)-1])
	}
	return placeholderAnswer
}
