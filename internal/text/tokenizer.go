package text

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Tokenizer splits cleaned prose into sentences.
type Tokenizer interface {
	Split(text string) []string
}

// TokenizerFunc adapts a function to the Tokenizer interface.
type TokenizerFunc func(string) []string

// Split calls f(text).
func (f TokenizerFunc) Split(text string) []string {
	return f(text)
}

// Punkt is the unsupervised Punkt sentence tokenizer trained on English.
type Punkt struct {
	tok *sentences.DefaultSentenceTokenizer
}

var loadEnglish = sync.OnceValues(func() (*sentences.DefaultSentenceTokenizer, error) {
	return english.NewSentenceTokenizer(nil)
})

// NewPunkt loads the bundled English Punkt model.
func NewPunkt() (*Punkt, error) {
	tok, err := loadEnglish()
	if err != nil {
		return nil, err
	}
	return &Punkt{tok: tok}, nil
}

// Split implements Tokenizer.
func (p *Punkt) Split(text string) []string {
	var out []string
	for _, s := range p.tok.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// TokenizerFor picks a tokenizer for a language tag such as "en-us" or "fr".
// English and unknown tags use Punkt; every other language uses the
// rule-based splitter.
func TokenizerFor(lang string) Tokenizer {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || strings.HasPrefix(lang, "en") {
		p, err := NewPunkt()
		if err == nil {
			return p
		}
		log.Warn("Punkt model unavailable, using rule-based sentence splitting", "err", err)
	}
	return NewRuleTokenizer()
}
