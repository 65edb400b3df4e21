package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/epub2tts/internal/assemble"
)

const titleWidth = 32

// progressObserver draws a single progress line for the assembly and leaves
// one finished line per chapter behind.
type progressObserver struct {
	w     io.Writer
	bar   progress.Model
	title string
	total int
	start time.Time
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		start: time.Now(),
	}
}

func (p *progressObserver) ChapterStarted(chapter, total int, title string, _ int) {
	p.total = total
	p.title = truncate.StringWithTail(title, titleWidth, "…")
	p.draw(chapter, 0)
}

func (p *progressObserver) ChapterSkipped(a assemble.Artifact, total int) {
	p.total = total
	p.finish(a, "reused")
}

func (p *progressObserver) ParagraphDone(chapter, paragraph, paragraphs int, _ bool) {
	if paragraphs == 0 {
		return
	}
	p.draw(chapter, float64(paragraph)/float64(paragraphs))
}

func (p *progressObserver) ChapterDone(a assemble.Artifact, total int) {
	p.total = total
	p.finish(a, "done")
}

func (p *progressObserver) draw(chapter int, frac float64) {
	if p.total == 0 {
		return
	}
	pct := (float64(chapter-1) + frac) / float64(p.total)
	fmt.Fprintf(p.w, "\r\x1b[2K%s %d/%d %s", p.bar.ViewAs(pct), chapter, p.total, faint(p.title))
}

func (p *progressObserver) finish(a assemble.Artifact, state string) {
	title := truncate.StringWithTail(a.Title, titleWidth, "…")
	fmt.Fprintf(p.w, "\r\x1b[2K%s %d/%d %s %s %s\n", doneStyle.Render("✓"), a.Chapter, p.total,
		title, faint(a.Duration.Round(time.Second).String()), faint(state))
}

// Done clears the progress line.
func (p *progressObserver) Done() {
	fmt.Fprintf(p.w, "\r\x1b[2K%s\n", faint("finished in "+time.Since(p.start).Round(time.Second).String()))
}

var _ assemble.Observer = (*progressObserver)(nil)
