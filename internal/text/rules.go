package text

import (
	"strings"
	"unicode"
)

// RuleTokenizer is an abbreviation-aware punctuation splitter for languages
// without a trained Punkt model.
type RuleTokenizer struct {
	abbreviations map[string]bool
}

// NewRuleTokenizer returns a RuleTokenizer with the default abbreviation list.
func NewRuleTokenizer() *RuleTokenizer {
	return &RuleTokenizer{abbreviations: makeAbbreviationMap()}
}

// Split implements Tokenizer.
func (r *RuleTokenizer) Split(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	emit := func(end int) {
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
	}

	for i := 0; i < len(runes); i++ {
		switch {
		case isFullWidthTerminator(runes[i]):
			end := i + 1
			for end < len(runes) && (isFullWidthTerminator(runes[end]) || isCloser(runes[end])) {
				end++
			}
			emit(end)
			start = end
			i = end - 1

		case runes[i] == '.' || runes[i] == '!' || runes[i] == '?':
			end := i + 1
			for end < len(runes) && (runes[end] == '.' || runes[end] == '!' || runes[end] == '?') {
				end++
			}
			for end < len(runes) && isCloser(runes[end]) {
				end++
			}
			if !r.isSentenceEnd(runes, i) {
				i = end - 1
				continue
			}
			emit(end)
			for end < len(runes) && unicode.IsSpace(runes[end]) {
				end++
			}
			start = end
			i = end - 1
		}
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return out
}

// isSentenceEnd reports whether the terminator at pos closes a sentence.
func (r *RuleTokenizer) isSentenceEnd(runes []rune, pos int) bool {
	punct := runes[pos]

	if punct == '.' {
		wordStart := pos - 1
		for wordStart >= 0 && !unicode.IsSpace(runes[wordStart]) {
			wordStart--
		}
		word := strings.ToLower(string(runes[wordStart+1 : pos]))
		word = strings.TrimLeftFunc(word, func(c rune) bool { return isCloser(c) || c == '(' || c == '"' })

		if r.abbreviations[word] {
			return false
		}
		// Initials and dotted abbreviations such as "U.S." or "Ph.D."
		if strings.Contains(word, ".") {
			return false
		}
		if n := len([]rune(word)); n == 1 && unicode.IsUpper(runes[pos-1]) {
			return false
		}
		// Decimal numbers.
		if pos > 0 && pos+1 < len(runes) && unicode.IsDigit(runes[pos-1]) && unicode.IsDigit(runes[pos+1]) {
			return false
		}
	}

	next := pos + 1
	for next < len(runes) && (runes[next] == '.' || runes[next] == '!' || runes[next] == '?' || isCloser(runes[next])) {
		next++
	}
	if next >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[next]) {
		return false
	}
	for next < len(runes) && unicode.IsSpace(runes[next]) {
		next++
	}
	if next >= len(runes) {
		return true
	}

	c := runes[next]
	if unicode.IsUpper(c) || unicode.IsDigit(c) || c == '"' || c == '\'' || c == '¿' || c == '¡' || c == '«' {
		return true
	}
	// Scripts without case start sentences with any letter.
	if unicode.IsLetter(c) && !unicode.IsLower(c) {
		return true
	}
	return punct == '!' || punct == '?'
}

func isCloser(c rune) bool {
	switch c {
	case '"', '\'', ')', ']', '»', '”', '’', '」', '』':
		return true
	}
	return false
}

func isFullWidthTerminator(c rune) bool {
	switch c {
	case '。', '！', '？', '｡':
		return true
	}
	return false
}

func makeAbbreviationMap() map[string]bool {
	abbrevs := []string{
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st",
		"inc", "ltd", "co", "corp",
		"etc", "vs", "cf", "al", "approx",
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
		"no", "vol", "pp", "ed", "ch", "fig",
		// French, Spanish, Italian and Portuguese honorifics.
		"m", "mme", "mlle", "sra", "srta", "dra", "sig", "dott",
	}

	m := make(map[string]bool, len(abbrevs))
	for _, a := range abbrevs {
		m[a] = true
	}
	return m
}
