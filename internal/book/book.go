// Package book extracts an ordered chapter and paragraph structure from
// e-books and manuscripts.
//
// Three sources are understood: EPUB archives, plain-text manuscripts that
// mark chapters with a leading '#', and Markdown documents. Every loader
// produces a Document; downstream stages treat it as read-only.
package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/epub2tts/internal/text"
)

// BlankTitle marks a chapter without a usable title.
const BlankTitle = "blank"

// TitleChapter is the title of the pseudo chapter announcing the book.
const TitleChapter = "Title"

// DefaultAuthor is used when a source names no author.
const DefaultAuthor = "Unknown"

// ErrMalformedDocument is returned when no chapter of a source yields any
// paragraph.
var ErrMalformedDocument = errors.New("no extractable chapter content")

// ErrUnsupportedFormat is returned by Load for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Document is an extracted book.
type Document struct {
	Title    string
	Author   string
	Language string
	Chapters []Chapter
}

// Chapter is a titled run of paragraphs.
type Chapter struct {
	Title      string
	Paragraphs []string
}

// HasContent reports whether the chapter has at least one non-empty
// paragraph.
func (c Chapter) HasContent() bool {
	for _, p := range c.Paragraphs {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// Titled reports whether the chapter carries a title worth narrating.
func (c Chapter) Titled() bool {
	t := strings.TrimSpace(c.Title)
	return t != "" && t != BlankTitle && t != TitleChapter
}

// Readable returns the chapters that have content, in order.
func (d *Document) Readable() []Chapter {
	out := make([]Chapter, 0, len(d.Chapters))
	for _, c := range d.Chapters {
		if c.HasContent() {
			out = append(out, c)
		}
	}
	return out
}

// Validate returns ErrMalformedDocument when no chapter has content.
func (d *Document) Validate() error {
	if len(d.Readable()) == 0 {
		return ErrMalformedDocument
	}
	return nil
}

// Options controls loading.
type Options struct {
	// Tokenizer splits manuscript lines into sentences. Defaults to the
	// English tokenizer.
	Tokenizer text.Tokenizer
	// Logger receives extraction notices. Defaults to log.Default().
	Logger *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o Options) tokenizer() text.Tokenizer {
	if o.Tokenizer != nil {
		return o.Tokenizer
	}
	return text.TokenizerFor("")
}

// Load reads the document at path, choosing the parser by extension.
func Load(path string, opts Options) (*Document, error) {
	var (
		doc *Document
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		doc, err = LoadEPub(path, opts)
	case ".txt":
		doc, err = loadWith(path, func(f *os.File) (*Document, error) {
			return ParseText(f, path, opts.tokenizer())
		})
	case ".md", ".markdown":
		doc, err = loadWith(path, func(f *os.File) (*Document, error) {
			return ParseMarkdown(f, path)
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func loadWith(path string, parse func(*os.File) (*Document, error)) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return parse(f)
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if isAlnum(r) {
			return true
		}
	}
	return false
}
