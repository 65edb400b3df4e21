package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunking thresholds.
const (
	// MinWords is the word count below which a unit is merged with a
	// neighbour.
	MinWords = 8
	// MaxUnitLength is the rune length above which a unit is split at
	// commas.
	MaxUnitLength = 500
	// MaxSegmentLength caps every segment produced by a split.
	MaxSegmentLength = 350
)

// Chunk regroups sentences into synthesis units. A sentence shorter than
// MinWords absorbs the sentence after it, units longer than MaxUnitLength are
// split at commas, a short trailing unit is folded into its predecessor and
// every unit is passed through SentenceCase.
func Chunk(sentences []string) []string {
	in := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			in = append(in, s)
		}
	}

	var units []string
	for i := 0; i < len(in); {
		unit := in[i]
		if wordCount(unit) < MinWords && i+1 < len(in) {
			unit = unit + " " + in[i+1]
			i += 2
		} else {
			i++
		}

		if utf8.RuneCountInString(unit) > MaxUnitLength {
			units = append(units, SplitLong(unit, MaxSegmentLength)...)
		} else {
			units = append(units, unit)
		}
	}

	if n := len(units); n > 1 && wordCount(units[n-1]) < MinWords {
		units[n-2] = units[n-2] + " " + units[n-1]
		units = units[:n-1]
	}

	out := make([]string, 0, len(units))
	for _, u := range units {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, SentenceCase(u))
		}
	}
	return out
}

// SplitLong breaks s at commas into segments of at most limit runes,
// accumulating greedily. A single comma-delimited piece longer than limit is
// further broken at word boundaries. No empty segment is returned.
func SplitLong(s string, limit int) []string {
	var out []string
	cur := ""

	for _, seg := range strings.Split(s, ",") {
		next := seg
		if cur != "" {
			next = cur + "," + seg
		}
		if utf8.RuneCountInString(next) <= limit {
			cur = strings.TrimSpace(next)
			continue
		}

		if cur != "" {
			out = append(out, cur)
		}
		cur = strings.TrimSpace(seg)
		if utf8.RuneCountInString(cur) > limit {
			pieces := splitWords(cur, limit)
			out = append(out, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// splitWords packs the words of s into pieces of at most limit runes. A word
// longer than limit is hard-cut.
func splitWords(s string, limit int) []string {
	var pieces []string
	var b strings.Builder
	n := 0

	flush := func() {
		if b.Len() > 0 {
			pieces = append(pieces, b.String())
			b.Reset()
			n = 0
		}
	}

	for _, w := range strings.Fields(s) {
		for utf8.RuneCountInString(w) > limit {
			flush()
			r := []rune(w)
			pieces = append(pieces, string(r[:limit]))
			w = string(r[limit:])
		}
		wl := utf8.RuneCountInString(w)
		if n > 0 && n+1+wl > limit {
			flush()
		}
		if n > 0 {
			b.WriteByte(' ')
			n++
		}
		b.WriteString(w)
		n += wl
	}
	flush()

	if len(pieces) == 0 {
		pieces = append(pieces, "")
	}
	return pieces
}

// SentenceCase lower-cases s and capitalizes its first letter when the first
// two words are written in capitals, which is usually a heading that leaked
// into body text.
func SentenceCase(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 || !isUpperWord(fields[0]) || !isUpperWord(fields[1]) {
		return s
	}

	lower := []rune(strings.ToLower(s))
	for i, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			lower[i] = unicode.ToUpper(r)
			break
		}
		if !unicode.IsSpace(r) && !unicode.IsPunct(r) {
			break
		}
	}
	return string(lower)
}

// isUpperWord reports whether w has at least one cased letter and no
// lower-case letter.
func isUpperWord(w string) bool {
	cased := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
