package generate

import (
	"regexp"
	"strings"
)

// pair is one prompt/response couple parsed from model output. It maps to a
// quiz question/answer or a flashcard front/back depending on the caller.
type pair struct {
	prompt   string
	response string
}

// Models decorate their pair markers freely: "Q:", "Q1:", "**Q3:**",
// "Question 2:", "Front:". The markers are matched per line after markdown
// emphasis is stripped.
var (
	promptMarker   = regexp.MustCompile(`^(?i)(?:q|question|front)\s*\d*\s*[:.)]\s*`)
	responseMarker = regexp.MustCompile(`^(?i)(?:a|answer|back)\s*\d*\s*[:.)]\s*`)
)

// parsePairs extracts prompt/response pairs from free-form model output.
// A prompt line opens a pair; the following response line completes it.
// Unmatched lines extend whichever side was seen last, so multi-line
// answers survive. Pairs without a response are dropped.
func parsePairs(text string) []pair {
	var (
		pairs   []pair
		current *pair
		inResp  bool
	)
	flush := func() {
		if current != nil && current.prompt != "" && current.response != "" {
			pairs = append(pairs, *current)
		}
		current = nil
	}
	for line := range strings.Lines(text) {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*_"))
		if line == "" {
			continue
		}
		if m := promptMarker.FindString(line); m != "" {
			flush()
			current = &pair{prompt: trimMarkup(line[len(m):])}
			inResp = false
			continue
		}
		if m := responseMarker.FindString(line); m != "" {
			if current == nil {
				continue
			}
			current.response = trimMarkup(line[len(m):])
			inResp = true
			continue
		}
		// Continuation of the previous marker's text.
		if current == nil {
			continue
		}
		if inResp {
			current.response += " " + line
		} else {
			current.prompt += " " + line
		}
	}
	flush()
	return pairs
}

// trimMarkup drops the markdown emphasis and whitespace a marker leaves
// behind, as in "**Q1:** text".
func trimMarkup(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
}
