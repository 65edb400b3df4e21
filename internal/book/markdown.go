package book

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgnsrekt/epub2tts/internal/text"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ParseMarkdown builds a Document from Markdown. Level one and two headings
// open chapters, paragraphs and list items become paragraphs and code is
// skipped. A leading level one heading names the book.
func ParseMarkdown(r io.Reader, name string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", name, err)
	}

	doc := &Document{Title: name, Author: DefaultAuthor}
	root := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var cur *Chapter
	flush := func() {
		if cur != nil && len(cur.Paragraphs) > 0 {
			doc.Chapters = append(doc.Chapters, *cur)
		}
	}
	add := func(p string) {
		p = text.Clean(p)
		if p == "" {
			return
		}
		if cur == nil {
			cur = &Chapter{Title: BlankTitle}
		}
		cur.Paragraphs = append(cur.Paragraphs, p)
	}

	first := true
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := text.Clean(inlineText(node, src))
			if first && node.Level == 1 && title != "" {
				doc.Title = title
			}
			if node.Level <= 2 {
				if cur == nil || len(cur.Paragraphs) > 0 {
					flush()
					cur = &Chapter{}
				}
				if !hasAlnum(title) {
					title = BlankTitle
				}
				cur.Title = title
			} else {
				add(inlineText(node, src))
			}
		case *ast.Paragraph, *ast.TextBlock:
			add(inlineText(node, src))
		case *ast.List:
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				add(inlineText(item, src))
			}
		case *ast.Blockquote:
			for c := node.FirstChild(); c != nil; c = c.NextSibling() {
				add(inlineText(c, src))
			}
		}
		first = false
	}
	flush()
	return doc, nil
}

// inlineText collects the text segments beneath n, skipping code.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.CodeSpan, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		if c.Kind() == ast.KindParagraph || c.Kind() == ast.KindTextBlock {
			if buf.Len() > 0 && !strings.HasSuffix(buf.String(), " ") {
				buf.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
