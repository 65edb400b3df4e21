package book

import (
	"strings"
	"testing"
)

func TestParseMarkdown(t *testing.T) {
	src := "# My Notes\n\nIntro paragraph with *emphasis* here\nand a soft break.\n\n" +
		"## First Section\n\nSome `inline` text.\n\n```go\nfmt.Println(\"skipped\")\n```\n\n" +
		"- item one\n- item two\n\n### Small heading\n\n> quoted words\n\n" +
		"## ---\n\nLast.\n"

	doc, err := ParseMarkdown(strings.NewReader(src), "notes.md")
	if err != nil {
		t.Fatalf("ParseMarkdown() error = %v", err)
	}
	if doc.Title != "My Notes" {
		t.Errorf("Title = %q", doc.Title)
	}

	assertChapters(t, doc.Chapters, []Chapter{
		{Title: "My Notes", Paragraphs: []string{"Intro paragraph with emphasis here and a soft break."}},
		{Title: "First Section", Paragraphs: []string{
			"Some text.",
			"item one",
			"item two",
			"Small heading",
			"quoted words",
		}},
		{Title: BlankTitle, Paragraphs: []string{"Last."}},
	})
}
