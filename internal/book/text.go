package book

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dgnsrekt/epub2tts/internal/text"
)

// ParseText reads the plain-text manuscript convention:
//
//	Title: <title>
//	Author: <author>
//
//	# Chapter heading
//	One paragraph per line.
//
// Up to two leading Title/Author lines are metadata. A line starting with
// '#' opens a chapter; consecutive markers without paragraphs in between
// retitle the pending chapter. Text before the first marker belongs to an
// untitled chapter. name is used as the title when the header has none.
func ParseText(r io.Reader, name string, tok text.Tokenizer) (*Document, error) {
	doc := &Document{Title: name, Author: DefaultAuthor}

	var (
		cur     *Chapter
		skipped int
	)
	flush := func() {
		if cur != nil && len(cur.Paragraphs) > 0 {
			doc.Chapters = append(doc.Chapters, *cur)
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		raw := sc.Text()

		if skipped < 2 && (strings.HasPrefix(raw, "Title") || strings.HasPrefix(raw, "Author")) {
			skipped++
			switch {
			case strings.HasPrefix(raw, "Title: "):
				doc.Title = strings.TrimSpace(strings.TrimPrefix(raw, "Title: "))
			case strings.HasPrefix(raw, "Author: "):
				doc.Author = strings.TrimSpace(strings.TrimPrefix(raw, "Author: "))
			}
			continue
		}

		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "#"):
			if cur == nil || len(cur.Paragraphs) > 0 {
				flush()
				cur = &Chapter{}
			}
			title := strings.TrimSpace(line[1:])
			if !hasAlnum(title) {
				title = BlankTitle
			}
			cur.Title = title

		case line != "":
			if cur == nil {
				cur = &Chapter{Title: BlankTitle}
			}
			if !hasAlnum(line) {
				continue
			}
			var kept []string
			for _, s := range tok.Split(line) {
				if hasAlnum(s) {
					kept = append(kept, strings.TrimSpace(s))
				}
			}
			if p := strings.Join(kept, " "); p != "" {
				cur.Paragraphs = append(cur.Paragraphs, p)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", name, err)
	}
	flush()

	return doc, nil
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}
