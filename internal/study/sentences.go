// Package study implements the offline heuristic study-material composers:
// note extraction, quiz composition, and flashcard composition. These are
// the fallback backends used when no language model is configured or
// reachable; they rank and slice sentences with fixed windows and string
// templates, with no semantic understanding.
//
// All functions are pure and deterministic: identical input yields
// byte-identical output.
package study

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// duplicateThreshold is the Jaro-Winkler similarity above which two
// fragments are considered near-duplicates. Lectures often repeat a point
// verbatim; keeping both copies wastes the tight notes budget.
const duplicateThreshold = 0.95

// splitSentences splits text on sentence-terminal punctuation (. ! ?) and
// returns trimmed fragments without their terminators. Text with no
// terminal punctuation comes back as a single fragment.
func splitSentences(text string) []string {
	var (
		fragments []string
		current   strings.Builder
	)
	flush := func() {
		frag := strings.TrimSpace(current.String())
		current.Reset()
		if frag != "" {
			fragments = append(fragments, frag)
		}
	}
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return fragments
}

// qualifyingFragments returns the sentence fragments of text that are at
// least minLen characters long, with near-duplicates removed. Order is
// preserved.
func qualifyingFragments(text string, minLen int) []string {
	var out []string
	for _, frag := range splitSentences(text) {
		if len(frag) < minLen {
			continue
		}
		if isNearDuplicate(frag, out) {
			continue
		}
		out = append(out, frag)
	}
	return out
}

// isNearDuplicate reports whether frag is almost identical to any entry in
// kept, using case-insensitive Jaro-Winkler similarity.
func isNearDuplicate(frag string, kept []string) bool {
	lower := strings.ToLower(frag)
	for _, k := range kept {
		if matchr.JaroWinkler(lower, strings.ToLower(k), false) > duplicateThreshold {
			return true
		}
	}
	return false
}

// truncate cuts s at max bytes without splitting a UTF-8 rune, appending an
// ellipsis when anything was removed.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}

// isRuneStart reports whether b is the first byte of a UTF-8 sequence.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
