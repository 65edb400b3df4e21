package book

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText writes doc in the plain-text manuscript convention read by
// ParseText. Chapters without content are skipped. The output is meant to be
// edited by hand before narration.
func WriteText(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Title: %s\n", oneLine(doc.Title))
	fmt.Fprintf(bw, "Author: %s\n\n", oneLine(doc.Author))

	for _, ch := range doc.Chapters {
		if !ch.HasContent() {
			continue
		}
		title := oneLine(ch.Title)
		if title == "" {
			title = BlankTitle
		}
		fmt.Fprintf(bw, "# %s\n\n", title)
		for _, p := range ch.Paragraphs {
			// A leading '#' would be read back as a chapter marker.
			if p = strings.TrimSpace(strings.TrimLeft(oneLine(p), "#")); p != "" {
				fmt.Fprintf(bw, "%s\n\n", p)
			}
		}
	}
	return bw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
