package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	glyphReplacer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
		"--", ", ",
	)
)

// Clean folds compatibility characters, maps curly quotes to straight ones,
// turns the double-hyphen dash into a comma pause and collapses all runs of
// whitespace into single spaces.
func Clean(s string) string {
	s = norm.NFKC.String(s)
	s = glyphReplacer.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalizer cleans paragraphs and splits them into sentences.
type Normalizer struct {
	Tokenizer Tokenizer
}

// NewNormalizer returns a Normalizer using t, or the English tokenizer when
// t is nil.
func NewNormalizer(t Tokenizer) *Normalizer {
	if t == nil {
		t = TokenizerFor("")
	}
	return &Normalizer{Tokenizer: t}
}

// Sentences returns the non-empty sentences of paragraph in order.
func (n *Normalizer) Sentences(paragraph string) []string {
	cleaned := Clean(paragraph)
	if cleaned == "" {
		return nil
	}

	var out []string
	for _, s := range n.Tokenizer.Split(cleaned) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunks normalizes paragraph and regroups its sentences into chunks.
func (n *Normalizer) Chunks(paragraph string) []string {
	return Chunk(n.Sentences(paragraph))
}

// Speakable reports whether s has a letter or digit to pronounce. Scene
// breaks such as "* * *" do not.
func Speakable(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	})
}
