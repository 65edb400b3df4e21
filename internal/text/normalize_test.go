package text

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"whitespace", "  one\n\ttwo   three \n", "one two three"},
		{"curly double quotes", "“Hello,” she said.", `"Hello," she said.`},
		{"curly single quotes", "it’s ‘fine’", "it's 'fine'"},
		{"double hyphen", "wait--what", "wait, what"},
		{"spaced double hyphen", "wait -- what", "wait , what"},
		{"compatibility forms", "ﬁne ①", "fine 1"},
		{"empty", " \n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizerSentences(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.Sentences("This is the first sentence.   This is\nthe second one!")
	want := []string{"This is the first sentence.", "This is the second one!"}
	if len(got) != len(want) {
		t.Fatalf("Sentences() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sentences()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := n.Sentences("   "); got != nil {
		t.Errorf("Sentences() of blank = %q, want nil", got)
	}
}

func TestNormalizerCustomTokenizer(t *testing.T) {
	n := NewNormalizer(TokenizerFunc(func(s string) []string {
		return strings.Split(s, "|")
	}))
	got := n.Chunks("one two three four five six seven eight| |nine")
	if len(got) != 1 {
		t.Fatalf("Chunks() = %q, want the trailing word merged", got)
	}
	if got[0] != "one two three four five six seven eight nine" {
		t.Errorf("Chunks() = %q", got[0])
	}
}

func TestSpeakable(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Words.", true},
		{"1984", true},
		{"Été", true},
		{"* * *", false},
		{" ... ", false},
		{"", false},
		{"—", false},
	}
	for _, tt := range tests {
		if got := Speakable(tt.in); got != tt.want {
			t.Errorf("Speakable(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTokenizerFor(t *testing.T) {
	if _, ok := TokenizerFor("en-us").(*Punkt); !ok {
		t.Errorf("TokenizerFor(en-us) should be Punkt")
	}
	if _, ok := TokenizerFor("").(*Punkt); !ok {
		t.Errorf("TokenizerFor(\"\") should be Punkt")
	}
	if _, ok := TokenizerFor("fr").(*RuleTokenizer); !ok {
		t.Errorf("TokenizerFor(fr) should be rule based")
	}
}
