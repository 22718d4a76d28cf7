package study

const (
	// minQuizFragmentLen is the minimum fragment length that may back a
	// quiz question.
	minQuizFragmentLen = 16

	// maxQuizItems caps how many questions a single set of notes yields.
	maxQuizItems = 4

	// maxQuestionExcerptLen is the fragment excerpt budget inside the
	// question template.
	maxQuestionExcerptLen = 70

	// maxAnswerLen is the character budget for a quiz answer.
	maxAnswerLen = 150
)

// QA is a single quiz question/answer pair.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ComposeQuiz synthesizes up to four question/answer pairs from study
// notes. Each qualifying sentence fragment becomes one pair: the question
// wraps an excerpt of the fragment in a fixed template and the answer is
// the fragment itself, truncated. Fewer qualifying fragments yield fewer
// pairs; ComposeQuiz never pads and never fails.
func ComposeQuiz(notes string) []QA {
	fragments := qualifyingFragments(notes, minQuizFragmentLen)
	if len(fragments) > maxQuizItems {
		fragments = fragments[:maxQuizItems]
	}

	quiz := make([]QA, 0, len(fragments))
	for _, frag := range fragments {
		quiz = append(quiz, QA{
			Question: "What is the key idea in: '" + truncate(frag, maxQuestionExcerptLen) + "'?",
			Answer:   truncate(frag, maxAnswerLen),
		})
	}
	return quiz
}
