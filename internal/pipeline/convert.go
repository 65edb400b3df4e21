package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/simp-lee/epub"

	"github.com/dgnsrekt/epub2tts/internal/assemble"
	"github.com/dgnsrekt/epub2tts/internal/book"
	"github.com/dgnsrekt/epub2tts/internal/checkpoint"
	"github.com/dgnsrekt/epub2tts/internal/config"
	"github.com/dgnsrekt/epub2tts/internal/metadata"
	"github.com/dgnsrekt/epub2tts/internal/mux"
	"github.com/dgnsrekt/epub2tts/internal/text"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// CoverName is the stem of the cover image extracted into the work dir.
const CoverName = "cover"

// Converter turns one document into an audiobook.
type Converter struct {
	Config config.Config
	Synth  tts.Synthesizer
	// Muxer defaults to ffmpeg from the config.
	Muxer    mux.Muxer
	Observer assemble.Observer
	Logger   *log.Logger
}

// Job names the input and output of a conversion.
type Job struct {
	Source string
	// Output defaults to "<source base> (<voice>).m4b" next to the source.
	Output string
	// Cover overrides the cover embedded in an EPUB.
	Cover string
	// Overwrite replaces an existing output.
	Overwrite bool
}

// Result summarizes a finished conversion.
type Result struct {
	RunID    string
	Output   string
	Chapters []assemble.Artifact
	Markers  []metadata.Marker
	Duration time.Duration
	Elapsed  time.Duration
}

// OutputPath is where job's audiobook is written.
func (c *Converter) OutputPath(job Job) string {
	if job.Output != "" {
		return job.Output
	}
	return mux.OutputName(job.Source, c.Config.Voice)
}

func (c *Converter) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// Run converts job.Source. An existing output without job.Overwrite fails
// with mux.ErrDestinationExists before anything is written.
func (c *Converter) Run(ctx context.Context, job Job) (Result, error) {
	started := time.Now()
	res := Result{RunID: uuid.NewString(), Output: c.OutputPath(job)}
	logger := c.logger().With("run", res.RunID[:8])

	if _, err := os.Stat(res.Output); err == nil && !job.Overwrite {
		return res, fmt.Errorf("%w: %s", mux.ErrDestinationExists, res.Output)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("unable to stat output: %w", err)
	}

	tok := text.TokenizerFor(tts.LanguageForVoice(c.Config.Voice))
	doc, err := book.Load(job.Source, book.Options{Tokenizer: tok, Logger: logger})
	if err != nil {
		return res, err
	}
	chapters := doc.Readable()
	logger.Info("Loaded document", "title", doc.Title, "author", doc.Author, "chapters", len(chapters))

	dir, err := workDir(c.Config.WorkDir)
	if err != nil {
		return res, err
	}

	ledger, err := c.openLedger(ctx, dir)
	if err != nil {
		return res, err
	}
	defer ledger.Close() //nolint:errcheck

	driver := assemble.NewDriver(c.Synth, text.NewNormalizer(tok), c.Config.Voice, c.Config.Speed, logger)
	asm := assemble.New(driver, ledger, c.Config.AssembleOptions(dir), c.Observer, logger)
	arts, err := asm.Assemble(ctx, doc)
	res.Chapters = arts
	if err != nil {
		return res, err
	}

	durations := make([]time.Duration, len(arts))
	titles := make([]string, len(arts))
	paths := make([]string, len(arts))
	for i, a := range arts {
		durations[i] = a.Duration
		titles[i] = a.Title
		paths[i] = a.Path
		res.Duration += a.Duration
	}
	res.Markers = metadata.Markers(durations, titles)

	cover := job.Cover
	if cover == "" && strings.EqualFold(filepath.Ext(job.Source), ".epub") {
		cover = extractCover(job.Source, dir, logger)
	}

	m := c.Muxer
	if m == nil {
		m = mux.NewFFmpeg(c.Config.FFmpeg.Binary, logger)
	}
	err = m.Mux(ctx, mux.Job{
		Chapters: paths,
		Tags: metadata.Tags{
			Artist: doc.Author,
			Album:  doc.Title,
			Title:  doc.Title,
		},
		Markers:      res.Markers,
		Output:       res.Output,
		Cover:        cover,
		WorkDir:      dir,
		KeepChapters: c.Config.FFmpeg.KeepChapters,
	})
	if err != nil {
		return res, err
	}

	res.Elapsed = time.Since(started)
	logger.Info("Audiobook written", "path", res.Output, "length", res.Duration.Round(time.Second),
		"started", humanize.Time(started))
	return res, nil
}

func (c *Converter) openLedger(ctx context.Context, dir string) (checkpoint.Ledger, error) {
	if c.Config.Resume.Ledger == config.LedgerMemory {
		return checkpoint.NewMemory(), nil
	}
	l, err := checkpoint.OpenSQLite(ctx, config.LedgerPath(dir))
	if err != nil {
		return nil, fmt.Errorf("unable to open checkpoint ledger: %w", err)
	}
	return l, nil
}

func workDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create work dir: %w", err)
	}
	return dir, nil
}

// extractCover writes the EPUB's cover image into dir. A book without a
// usable cover yields "".
func extractCover(source, dir string, logger *log.Logger) string {
	b, err := epub.Open(source)
	if err != nil {
		logger.Warn("Could not reopen book for its cover", "err", err)
		return ""
	}
	defer b.Close() //nolint:errcheck

	cv, err := b.Cover()
	if err != nil {
		if errors.Is(err, epub.ErrNoCover) {
			logger.Info("Book has no cover image")
		} else {
			logger.Warn("Could not read cover image", "err", err)
		}
		return ""
	}
	path := filepath.Join(dir, CoverName+coverExt(cv.MediaType))
	if err := os.WriteFile(path, cv.Data, 0o644); err != nil { //nolint:gosec
		logger.Warn("Could not write cover image", "err", err)
		return ""
	}
	logger.Debug("Extracted cover", "from", cv.Path, "path", path, "type", cv.MediaType, "size", humanize.Bytes(uint64(len(cv.Data))))
	return path
}

func coverExt(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
