package text

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func words(n int, w string) string {
	return strings.TrimSpace(strings.Repeat(w+" ", n))
}

func TestChunkMergeRule(t *testing.T) {
	short := words(5, "tiny") + "."
	long := words(12, "longer") + "."

	got := Chunk([]string{short, long})
	if len(got) != 1 {
		t.Fatalf("Chunk() returned %d chunks, want 1: %q", len(got), got)
	}
	if n := len(strings.Fields(got[0])); n != 17 {
		t.Errorf("merged chunk has %d words, want 17", n)
	}
	if got[0] != short+" "+long {
		t.Errorf("Chunk() = %q, want %q", got[0], short+" "+long)
	}
}

func TestChunkKeepsLongSentences(t *testing.T) {
	a := words(9, "first") + "."
	b := words(9, "second") + "."
	got := Chunk([]string{a, b})
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Errorf("Chunk() = %q, want two unchanged chunks", got)
	}
}

func TestChunkSplitRule(t *testing.T) {
	segment := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	parts := make([]string, 11)
	for i := range parts {
		parts[i] = segment
	}
	sentence := strings.Join(parts, ",") + "."
	if utf8.RuneCountInString(sentence) < 600 {
		t.Fatalf("fixture too short: %d", utf8.RuneCountInString(sentence))
	}

	got := Chunk([]string{sentence})
	if len(got) < 2 {
		t.Fatalf("Chunk() returned %d chunks, want a split", len(got))
	}
	for i, c := range got {
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if n := utf8.RuneCountInString(c); n > MaxSegmentLength {
			t.Errorf("chunk %d has %d runes, want <= %d", i, n, MaxSegmentLength)
		}
	}

	// Joining the segments back with commas restores the text.
	if strings.Join(got, ",") != sentence {
		t.Errorf("split lost text:\n got %q\nwant %q", strings.Join(got, ","), sentence)
	}
}

func TestSplitLong(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{
			name:  "greedy accumulation",
			in:    "aaaa,bbbb,cccc",
			limit: 9,
			want:  []string{"aaaa,bbbb", "cccc"},
		},
		{
			name:  "leading empty segments dropped",
			in:    ",,aaaa",
			limit: 3,
			want:  []string{"aaa", "a"},
		},
		{
			name:  "oversized segment split at words",
			in:    "one two three four five",
			limit: 9,
			want:  []string{"one two", "three", "four five"},
		},
		{
			name:  "fits",
			in:    "short, text",
			limit: 350,
			want:  []string{"short, text"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLong(tt.in, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitLong() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SplitLong()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkCommaFreeOverlong(t *testing.T) {
	sentence := words(80, "lengthy") + "."
	got := Chunk([]string{sentence})
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > MaxSegmentLength {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
	if strings.Join(got, " ") != sentence {
		t.Errorf("word split lost text")
	}
}

func TestChunkTrailingFragment(t *testing.T) {
	got := Chunk([]string{"This is long enough.", "Too short."})
	if len(got) != 1 {
		t.Fatalf("Chunk() = %q, want one merged chunk", got)
	}
	if got[0] != "This is long enough. Too short." {
		t.Errorf("Chunk() = %q", got[0])
	}

	a := words(9, "first") + "."
	b := words(9, "second") + "."
	got = Chunk([]string{a, b, "Too short."})
	if len(got) != 2 {
		t.Fatalf("Chunk() = %q, want 2 chunks", got)
	}
	if got[1] != b+" Too short." {
		t.Errorf("trailing fragment not merged backward: %q", got[1])
	}

	got = Chunk([]string{"Alone."})
	if len(got) != 1 || got[0] != "Alone." {
		t.Errorf("single short unit should be kept: %q", got)
	}
}

func TestChunkSkipsBlank(t *testing.T) {
	if got := Chunk([]string{"", "  "}); len(got) != 0 {
		t.Errorf("Chunk() = %q, want none", got)
	}
}

func TestSentenceCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"THE END of chapter", "The end of chapter"},
		{"CHAPTER ONE. It was a dark night.", "Chapter one. it was a dark night."},
		{"The END of chapter", "The END of chapter"},
		{"THE end", "THE end"},
		{"I AM here", "I am here"},
		{"A 1 b", "A 1 b"},
		{"SINGLE", "SINGLE"},
		{`"HELLO THERE" she said`, `"Hello there" she said`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SentenceCase(tt.in); got != tt.want {
				t.Errorf("SentenceCase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunkAppliesCasing(t *testing.T) {
	got := Chunk([]string{"THE END of chapter"})
	if len(got) != 1 || got[0] != "The end of chapter" {
		t.Errorf("Chunk() = %q", got)
	}
}
