package book

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func writeEPub(t *testing.T, files map[string]string) string {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for name, content := range files {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "novel.epub")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEPub(t *testing.T) {
	path := writeEPub(t, map[string]string{
		"META-INF/container.xml": `<container><rootfiles><rootfile full-path="OPS/book.opf"/></rootfiles></container>`,
		"OPS/book.opf": `<package xmlns="http://www.idpf.org/2007/opf">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>A “Curly” Novel</dc:title>
    <dc:creator>Sam Scribe</dc:creator>
    <dc:language>en-GB</dc:language>
  </metadata>
  <manifest>
    <item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/>
    <item id="toc" href="toc.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="c2.xhtml" media-type="application/xhtml+xml"/>
    <item id="c3" href="c3.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="toc" linear="no"/>
    <itemref idref="ghost"/>
    <itemref idref="c2"/>
    <itemref idref="c3"/>
  </spine>
</package>`,
		"OPS/c1.xhtml":  `<html><body><h1>Opening</h1><p>It began -- as always -- with rain.</p></body></html>`,
		"OPS/toc.xhtml": `<html><body><p>Contents</p></body></html>`,
		"OPS/c2.xhtml":  `<html><body><div>Untitled   text
spread over lines.</div></body></html>`,
		"OPS/c3.xhtml": `<html><body><img src="map.png"/></body></html>`,
	})

	var logs bytes.Buffer
	doc, err := Load(path, Options{Logger: log.New(&logs)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if doc.Title != `A "Curly" Novel` || doc.Author != "Sam Scribe" || doc.Language != "en-GB" {
		t.Errorf("metadata = %q / %q / %q", doc.Title, doc.Author, doc.Language)
	}

	assertChapters(t, doc.Chapters, []Chapter{
		{Title: TitleChapter, Paragraphs: []string{`A "Curly" Novel, by Sam Scribe`}},
		{Title: "Opening", Paragraphs: []string{"It began , as always , with rain."}},
		{Title: "Part 2", Paragraphs: []string{"Untitled text spread over lines."}},
		{Title: "Part 3"},
	})

	if got := len(doc.Readable()); got != 3 {
		t.Errorf("Readable() has %d chapters, want 3", got)
	}
	if !bytes.Contains(logs.Bytes(), []byte("falling back to <div>")) {
		t.Errorf("div fallback not logged: %s", logs.String())
	}
}

func TestLoadEPubDefaults(t *testing.T) {
	path := writeEPub(t, map[string]string{
		"content.opf": `<package><metadata/><manifest><item id="a" href="a.html"/></manifest><spine><itemref idref="a"/></spine></package>`,
		"a.html":      `<p>Only text.</p>`,
	})

	doc, err := Load(path, Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Title != "novel" || doc.Author != DefaultAuthor {
		t.Errorf("metadata = %q / %q", doc.Title, doc.Author)
	}
	if doc.Chapters[0].Paragraphs[0] != "novel, by Unknown" {
		t.Errorf("title chapter = %q", doc.Chapters[0].Paragraphs[0])
	}
}

func TestLoadEPubAuthors(t *testing.T) {
	path := writeEPub(t, map[string]string{
		"content.opf": `<package><metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title> Shared </dc:title><dc:creator>Ada Writer</dc:creator><dc:creator> </dc:creator><dc:creator>Bo Editor</dc:creator>
</metadata><manifest><item id="a" href="a.html"/></manifest><spine><itemref idref="a"/></spine></package>`,
		"a.html": `<p>Only text.</p>`,
	})

	doc, err := Load(path, Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Title != "Shared" || doc.Author != "Ada Writer, Bo Editor" {
		t.Errorf("metadata = %q / %q", doc.Title, doc.Author)
	}
}
