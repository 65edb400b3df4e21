package book

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/simp-lee/epub"

	"github.com/dgnsrekt/epub2tts/internal/text"
)

// LoadEPub converts the linear spine of an EPUB into a Document. The first
// chapter is a "Title" announcement; documents without a heading are titled
// "Part N" by their position among the linear spine items.
func LoadEPub(path string, opts Options) (*Document, error) {
	b, err := epub.Open(path)
	if err != nil {
		return nil, err
	}
	defer b.Close() //nolint:errcheck

	return FromEPub(b, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), opts)
}

// FromEPub converts an opened book. name is used when the book has no title.
func FromEPub(b *epub.Book, name string, opts Options) (*Document, error) {
	logger := opts.logger()
	for _, w := range b.Warnings() {
		logger.Debug("EPUB warning", "warning", w)
	}

	md := b.Metadata()
	doc := &Document{
		Title:    text.Clean(first(md.Titles)),
		Author:   text.Clean(authors(md.Authors)),
		Language: first(md.Language),
	}
	if doc.Title == "" {
		doc.Title = name
	}
	if doc.Author == "" {
		doc.Author = DefaultAuthor
	}
	doc.Chapters = append(doc.Chapters, Chapter{
		Title:      TitleChapter,
		Paragraphs: []string{fmt.Sprintf("%s, by %s", doc.Title, doc.Author)},
	})

	part := 0
	for _, item := range b.Chapters() {
		if !item.Linear {
			continue
		}
		if item.Href == "" {
			// Spine entry without a manifest item.
			logger.Warn("Skipping unresolved spine item", "id", item.ID)
			continue
		}
		part++

		data, err := item.RawContent()
		if err != nil {
			return nil, fmt.Errorf("unable to read chapter %s: %w", item.Href, err)
		}
		mc, err := ExtractMarkup(bytes.NewReader(data), logger.With("item", item.Href))
		if err != nil {
			return nil, fmt.Errorf("unable to extract chapter %s: %w", item.Href, err)
		}

		ch := Chapter{Title: text.Clean(mc.Title)}
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Part %d", part)
		}
		for _, p := range mc.Paragraphs {
			if c := text.Clean(p); hasAlnum(c) {
				ch.Paragraphs = append(ch.Paragraphs, c)
			}
		}
		if len(ch.Paragraphs) == 0 {
			logger.Debug("Chapter has no paragraphs", "item", item.Href, "title", ch.Title)
		}
		doc.Chapters = append(doc.Chapters, ch)
	}
	return doc, nil
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func authors(as []epub.Author) string {
	names := make([]string, 0, len(as))
	for _, a := range as {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}
