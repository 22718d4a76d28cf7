package study

import (
	"strings"
	"testing"
)

const lectureTranscript = "The mitochondria is the powerhouse of the cell. " +
	"It produces ATP through respiration. This process is essential for life. " +
	"Cells need energy."

func TestExtractNotes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: TooShortNotes,
		},
		{
			name: "below minimum length",
			in:   "Short lecture.",
			want: TooShortNotes,
		},
		{
			name: "exactly below threshold",
			in:   strings.Repeat("a", 29),
			want: TooShortNotes,
		},
		{
			name: "ranks fragments by length and drops short ones",
			in:   lectureTranscript,
			want: "The mitochondria is the powerhouse of the cell. " +
				"It produces ATP through respiration. " +
				"This process is essential for life.",
		},
		{
			name: "sorted order not document order",
			in: "A mid-length statement about topics. " +
				"The very longest sentence in the entire transcript by far. " +
				"Another reasonably long remark here.",
			want: "The very longest sentence in the entire transcript by far. " +
				"A mid-length statement about topics. " +
				"Another reasonably long remark here.",
		},
		{
			name: "no sentence punctuation treated as one fragment",
			in:   "a transcript without any terminal punctuation at all",
			want: "a transcript without any terminal punctuation at all",
		},
		{
			name: "only short fragments passes transcript through",
			in:   "Hi there. Ok. Yes. Next slide. Moving on now.",
			want: "Hi there. Ok. Yes. Next slide. Moving on now.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractNotes(tt.in); got != tt.want {
				t.Errorf("ExtractNotes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractNotesTruncates(t *testing.T) {
	t.Parallel()
	in := "Thermodynamics tells us that energy in a closed system is conserved even as it changes form between heat and useful work. " +
		"Photosynthesis converts sunlight, carbon dioxide, and water into glucose, providing the chemical basis of most food chains. " +
		"Plate tectonics explains earthquakes and volcanoes as consequences of rigid crustal plates drifting over the viscous mantle."

	got := ExtractNotes(in)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("ExtractNotes() = %q, want ellipsis suffix", got)
	}
	if len(got) > maxNotesLen+len("...") {
		t.Errorf("ExtractNotes() returned %d characters, want at most %d", len(got), maxNotesLen+len("..."))
	}
}

func TestExtractNotesDeterministic(t *testing.T) {
	t.Parallel()
	first := ExtractNotes(lectureTranscript)
	for range 5 {
		if got := ExtractNotes(lectureTranscript); got != first {
			t.Fatalf("ExtractNotes() not deterministic: %q then %q", first, got)
		}
	}
}

func TestExtractNotesDropsNearDuplicates(t *testing.T) {
	t.Parallel()
	in := "The water cycle moves moisture around the planet. " +
		"The water cycle moves moisture around the planet! " +
		"Evaporation lifts water into the atmosphere. " +
		"Precipitation returns it to the surface below."

	got := ExtractNotes(in)
	if n := strings.Count(strings.ToLower(got), "water cycle moves"); n != 1 {
		t.Errorf("ExtractNotes() kept repeated sentence %d times, want 1: %q", n, got)
	}
}

func TestQualifyingFragments(t *testing.T) {
	t.Parallel()
	got := qualifyingFragments("One tiny bit. Exactly twenty chars!", 20)
	want := []string{"Exactly twenty chars"}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("qualifyingFragments() = %v, want %v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "under budget", in: "short", max: 10, want: "short"},
		{name: "exact budget", in: "1234567890", max: 10, want: "1234567890"},
		{name: "over budget", in: "12345 67890", max: 8, want: "12345 67..."},
		{name: "multibyte boundary", in: "héllo wörld", max: 2, want: "h..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
