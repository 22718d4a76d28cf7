package generate

import "testing"

func TestParsePairs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []pair
	}{
		{
			name: "plain markers",
			in:   "Q: What is osmosis?\nA: Water diffusion across a membrane.",
			want: []pair{{prompt: "What is osmosis?", response: "Water diffusion across a membrane."}},
		},
		{
			name: "numbered and bold markers",
			in: "**Q1:** First question?\n**A1:** First answer.\n" +
				"Q2. Second question?\nA2. Second answer.",
			want: []pair{
				{prompt: "First question?", response: "First answer."},
				{prompt: "Second question?", response: "Second answer."},
			},
		},
		{
			name: "front back markers",
			in:   "Front: Capital of France\nBack: Paris",
			want: []pair{{prompt: "Capital of France", response: "Paris"}},
		},
		{
			name: "multi-line answer",
			in:   "Q: Why is the sky blue?\nA: Rayleigh scattering favours\nshort wavelengths.",
			want: []pair{{prompt: "Why is the sky blue?", response: "Rayleigh scattering favours short wavelengths."}},
		},
		{
			name: "question without answer dropped",
			in:   "Q: Orphaned question?\nQ: Complete question?\nA: Yes.",
			want: []pair{{prompt: "Complete question?", response: "Yes."}},
		},
		{
			name: "preamble and blank lines ignored",
			in:   "Sure, here is the quiz:\n\nQ: One?\n\nA: Two.\n\nHope this helps!",
			want: []pair{{prompt: "One?", response: "Two. Hope this helps!"}},
		},
		{
			name: "no markers",
			in:   "Just prose with no structure at all.",
			want: nil,
		},
		{
			name: "answer before any question ignored",
			in:   "A: floating answer\nQ: real?\nA: yes",
			want: []pair{{prompt: "real?", response: "yes"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parsePairs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parsePairs() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("pair %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
