package book

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkupChapter is the content of one (X)HTML document.
type MarkupChapter struct {
	// Title is the text of the first <h1>, or "" when there is none.
	Title      string
	Paragraphs []string
	// DivFallback is set when the document had no <p> and paragraphs were
	// taken from <div> elements instead, one per div, from the text outside
	// its nested divs.
	DivFallback bool
}

// blacklist holds elements that never carry narratable text.
var blacklist = map[atom.Atom]bool{
	atom.Noscript: true,
	atom.Header:   true,
	atom.Meta:     true,
	atom.Head:     true,
	atom.Input:    true,
	atom.Script:   true,
	atom.Style:    true,
}

// ExtractMarkup parses an (X)HTML chapter. Footnote links without letters
// and numeric superscripts are dropped before text is collected.
func ExtractMarkup(r io.Reader, logger *log.Logger) (MarkupChapter, error) {
	if logger == nil {
		logger = log.Default()
	}

	root, err := html.Parse(r)
	if err != nil {
		return MarkupChapter{}, fmt.Errorf("unable to parse markup: %w", err)
	}

	// The heading is read before pruning; many books wrap it in <header>.
	var mc MarkupChapter
	if h1 := findFirst(root, atom.H1); h1 != nil {
		mc.Title = strings.TrimSpace(textOf(h1))
	}
	prune(root)

	collect := textOf
	ps := findAll(root, func(n *html.Node) bool { return n.DataAtom == atom.P })
	if len(ps) == 0 {
		ps = findAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Div })
		if len(ps) > 0 {
			mc.DivFallback = true
			collect = ownText
			logger.Warn("No <p> elements found, falling back to <div>", "chapter", mc.Title, "divs", len(ps))
		}
	}

	for _, p := range ps {
		if t := strings.TrimSpace(collect(p)); t != "" {
			mc.Paragraphs = append(mc.Paragraphs, t)
		}
	}
	return mc, nil
}

// prune removes blacklisted elements, footnote links and numeric
// superscripts from the tree.
func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && removable(c) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

func removable(n *html.Node) bool {
	if blacklist[n.DataAtom] {
		return true
	}
	switch n.DataAtom {
	case atom.A:
		if _, ok := attr(n, "href"); ok {
			return !strings.ContainsFunc(textOf(n), unicode.IsLetter)
		}
	case atom.Sup:
		t := textOf(n)
		return t != "" && !strings.ContainsFunc(t, func(r rune) bool { return !unicode.IsDigit(r) })
	}
	return false
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// textOf concatenates the text beneath n. Line breaks become spaces.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// ownText is textOf without the subtrees of nested <div> elements, which
// are collected as paragraphs of their own.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Div {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(textOf(c))
	}
	return b.String()
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}
