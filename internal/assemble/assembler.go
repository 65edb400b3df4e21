package assemble

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/book"
	"github.com/dgnsrekt/epub2tts/internal/checkpoint"
)

// Default pauses.
const (
	DefaultParagraphPause = 600 * time.Millisecond
	DefaultChapterPause   = 2000 * time.Millisecond
)

// SentenceTemp is the in-flight paragraph file. It is renamed into place
// once complete.
const SentenceTemp = "sntnc1.wav"

// ParagraphFile names the artifact of paragraph p (from 1).
func ParagraphFile(p int) string { return fmt.Sprintf("pgraphs%d.wav", p) }

// ChapterFile names the artifact of chapter n (from 1).
func ChapterFile(n int) string { return fmt.Sprintf("part%d.wav", n) }

// Options control rendering.
type Options struct {
	// Dir holds every artifact; the current directory when empty.
	Dir            string
	ParagraphPause time.Duration
	ChapterPause   time.Duration
	// IncludeTitles reads "<title>. " before a chapter's first paragraph.
	IncludeTitles bool
	// Verify regenerates artifacts whose recorded fingerprint differs from
	// the current inputs. Without it an existing file is always reused.
	Verify bool
}

// Artifact is a finished chapter file.
type Artifact struct {
	Chapter  int
	Title    string
	Path     string
	Duration time.Duration
	Reused   bool
}

// Assembler renders chapters in order, reusing whatever a previous run
// already published.
type Assembler struct {
	driver   *Driver
	ledger   checkpoint.Ledger
	opts     Options
	observer Observer
	logger   *log.Logger
}

// New returns an Assembler. A nil ledger keeps state in memory only and a
// nil observer discards progress.
func New(d *Driver, ledger checkpoint.Ledger, opts Options, obs Observer, logger *log.Logger) *Assembler {
	if ledger == nil {
		ledger = checkpoint.NewMemory()
	}
	if obs == nil {
		obs = NopObserver{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Assembler{driver: d, ledger: ledger, opts: opts, observer: obs, logger: logger}
}

func (a *Assembler) path(name string) string {
	return filepath.Join(a.opts.Dir, name)
}

// Assemble renders every readable chapter of doc and returns the chapter
// artifacts in order.
func (a *Assembler) Assemble(ctx context.Context, doc *book.Document) ([]Artifact, error) {
	chapters := doc.Readable()
	total := len(chapters)
	out := make([]Artifact, 0, total)

	for i, ch := range chapters {
		n := i + 1
		art, err := a.chapter(ctx, n, total, ch)
		if err != nil {
			var ae *Error
			if errors.As(err, &ae) {
				return out, err
			}
			return out, &Error{Chapter: n, Err: err}
		}
		out = append(out, art)
	}
	return out, nil
}

// paragraphs applies the title prefix to a copy of the chapter's non-blank
// paragraphs.
func (a *Assembler) paragraphs(ch book.Chapter) []string {
	ps := make([]string, 0, len(ch.Paragraphs))
	for _, p := range ch.Paragraphs {
		if strings.TrimSpace(p) != "" {
			ps = append(ps, p)
		}
	}
	if a.opts.IncludeTitles && ch.Titled() && len(ps) > 0 {
		ps[0] = strings.TrimSpace(ch.Title) + ". " + ps[0]
	}
	return ps
}

func (a *Assembler) fingerprint(parts ...string) string {
	info := a.driver.Synth.Info()
	base := []string{info.Name, info.Version, a.driver.Voice, strconv.FormatFloat(a.driver.Speed, 'f', 3, 64)}
	return checkpoint.Fingerprint(append(base, parts...)...)
}

// reusable reports whether an existing artifact may be kept.
func (a *Assembler) reusable(ctx context.Context, k checkpoint.Key, path, fp string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if !a.opts.Verify {
		return true, nil
	}
	e, ok, err := a.ledger.Lookup(ctx, k)
	if err != nil {
		return false, err
	}
	// Files from runs without a ledger are trusted.
	if !ok || e.Fingerprint == fp {
		return true, nil
	}
	a.logger.Warn("Regenerating stale artifact", "file", filepath.Base(path), "what", k.String())
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return false, nil
}

func (a *Assembler) chapter(ctx context.Context, n, total int, ch book.Chapter) (Artifact, error) {
	paragraphs := a.paragraphs(ch)
	part := a.path(ChapterFile(n))
	art := Artifact{Chapter: n, Title: ch.Title, Path: part}

	pfps := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		pfps[i] = a.fingerprint(strconv.Itoa(n), a.opts.ParagraphPause.String(), p)
	}
	chapterKey := checkpoint.Key{Granularity: checkpoint.Chapter, Chapter: n}
	cfp := a.fingerprint(append([]string{a.opts.ChapterPause.String()}, pfps...)...)

	ok, err := a.reusable(ctx, chapterKey, part, cfp)
	if err != nil {
		return art, err
	}
	if ok {
		if art.Duration, err = audio.FileDuration(part); err != nil {
			return art, err
		}
		art.Reused = true
		a.logger.Info("Chapter exists, skipping", "chapter", n, "file", filepath.Base(part))
		if err := a.removeLeftovers(ctx, n, len(paragraphs)); err != nil {
			return art, err
		}
		a.observer.ChapterSkipped(art, total)
		return art, nil
	}

	a.logger.Info("Chapter", "chapter", n, "of", total, "title", ch.Title, "paragraphs", len(paragraphs))
	a.observer.ChapterStarted(n, total, ch.Title, len(paragraphs))
	if err := a.ledger.Record(ctx, checkpoint.Entry{Key: chapterKey, Path: part, Fingerprint: cfp, State: checkpoint.InProgress}); err != nil {
		return art, err
	}

	start := time.Now()
	files := make([]string, 0, len(paragraphs))
	for i, p := range paragraphs {
		path, err := a.paragraph(ctx, n, i+1, len(paragraphs), p, pfps[i])
		if err != nil {
			return art, &Error{Chapter: n, Paragraph: i + 1, Err: err}
		}
		files = append(files, path)
	}

	if err := audio.ConcatFiles(part, files, a.opts.ChapterPause); err != nil {
		return art, err
	}
	a.removeParagraphs(ctx, n, len(files))
	if err := a.ledger.Record(ctx, checkpoint.Entry{Key: chapterKey, Path: part, Fingerprint: cfp, State: checkpoint.Complete}); err != nil {
		return art, err
	}

	if art.Duration, err = audio.FileDuration(part); err != nil {
		return art, err
	}
	a.logger.Info("Chapter done", "chapter", n, "audio", art.Duration.Round(time.Second),
		"took", humanize.RelTime(start, time.Now(), "", ""))
	a.observer.ChapterDone(art, total)
	return art, nil
}

// removeParagraphs deletes paragraph files 1..count and their ledger entries
// for chapter n.
func (a *Assembler) removeParagraphs(ctx context.Context, n, count int) {
	for p := 1; p <= count; p++ {
		f := a.path(ParagraphFile(p))
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("Could not remove paragraph file", "file", f, "err", err)
		}
		key := checkpoint.Key{Granularity: checkpoint.Paragraph, Chapter: n, Paragraph: p}
		if err := a.ledger.Forget(ctx, key); err != nil {
			a.logger.Warn("Could not forget paragraph", "what", key.String(), "err", err)
		}
	}
}

// removeLeftovers deletes paragraph files the ledger still attributes to
// the finished chapter n. A run stopped between concatenation and cleanup
// leaves them behind, and the next chapter must not reuse them.
func (a *Assembler) removeLeftovers(ctx context.Context, n, count int) error {
	stale := 0
	for p := 1; p <= count; p++ {
		_, ok, err := a.ledger.Lookup(ctx, checkpoint.Key{Granularity: checkpoint.Paragraph, Chapter: n, Paragraph: p})
		if err != nil {
			return err
		}
		if ok {
			stale = p
		}
	}
	if stale > 0 {
		a.logger.Debug("Removing paragraph files of a finished chapter", "chapter", n, "files", stale)
		a.removeParagraphs(ctx, n, stale)
	}
	return nil
}

func (a *Assembler) paragraph(ctx context.Context, n, p, count int, text, fp string) (string, error) {
	path := a.path(ParagraphFile(p))
	key := checkpoint.Key{Granularity: checkpoint.Paragraph, Chapter: n, Paragraph: p}

	ok, err := a.reusable(ctx, key, path, fp)
	if err != nil {
		return "", err
	}
	if ok {
		a.logger.Debug("Paragraph exists, skipping", "file", filepath.Base(path))
		a.observer.ParagraphDone(n, p, count, true)
		return path, nil
	}

	if err := a.ledger.Record(ctx, checkpoint.Entry{Key: key, Path: path, Fingerprint: fp, State: checkpoint.InProgress}); err != nil {
		return "", err
	}
	temp := a.path(SentenceTemp)
	if err := a.driver.RenderFile(ctx, text, temp, a.opts.ParagraphPause); err != nil {
		_ = os.Remove(temp)
		return "", err
	}
	if err := os.Rename(temp, path); err != nil {
		return "", fmt.Errorf("publish %s: %w", filepath.Base(path), err)
	}
	if err := a.ledger.Record(ctx, checkpoint.Entry{Key: key, Path: path, Fingerprint: fp, State: checkpoint.Complete}); err != nil {
		return "", err
	}
	a.observer.ParagraphDone(n, p, count, false)
	return path, nil
}
