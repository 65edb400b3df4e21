// Package mux joins chapter WAV files into a chaptered M4B with FFmpeg.
package mux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/metadata"
)

var (
	// ErrMissingCover is reported when the cover image cannot be read. The
	// book is still produced.
	ErrMissingCover = errors.New("cover image not found")

	// ErrDestinationExists is returned when the output exists and the caller
	// did not confirm replacing it.
	ErrDestinationExists = errors.New("destination exists")
)

// Intermediate file names, created in Job.WorkDir.
const (
	FileList     = "filelist.txt"
	MetadataFile = "FFMETADATAFILE"
)

// Job describes one container build.
type Job struct {
	Chapters []string
	Tags     metadata.Tags
	Markers  []metadata.Marker
	Output   string
	// Cover is an optional image path.
	Cover   string
	WorkDir string
	// KeepChapters leaves the chapter WAV files in place.
	KeepChapters bool
}

// Muxer builds a container from chapter audio.
type Muxer interface {
	Mux(ctx context.Context, job Job) error
}

// Runner executes an external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands with os/exec and reports stderr on failure.
type ExecRunner struct {
	Logger *log.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if r.Logger != nil {
		r.Logger.Debug("Running", "cmd", name, "args", strings.Join(args, " "))
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// FFmpeg is a Muxer backed by the ffmpeg binary.
type FFmpeg struct {
	Binary string
	Runner Runner
	Logger *log.Logger
}

// NewFFmpeg returns an FFmpeg muxer using binary, "ffmpeg" when empty.
func NewFFmpeg(binary string, logger *log.Logger) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("ffmpeg")
	return &FFmpeg{Binary: binary, Runner: ExecRunner{Logger: logger}, Logger: logger}
}

// OutputName returns "<source without extension> (<voice>).m4b".
func OutputName(source, voice string) string {
	return fmt.Sprintf("%s (%s).m4b", strings.TrimSuffix(source, filepath.Ext(source)), voice)
}

// quote escapes a path for the concat demuxer's single-quoted syntax.
func quote(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// WriteFileList writes the concat demuxer list for chapters.
func WriteFileList(path string, chapters []string) error {
	var b strings.Builder
	for _, c := range chapters {
		abs, err := filepath.Abs(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file %s\n", quote(abs))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// Mux encodes the chapters, applies the metadata and attaches the cover.
// Intermediate files are removed afterwards.
func (f *FFmpeg) Mux(ctx context.Context, job Job) error {
	if len(job.Chapters) == 0 {
		return errors.New("no chapters to mux")
	}
	list := filepath.Join(job.WorkDir, FileList)
	meta := filepath.Join(job.WorkDir, MetadataFile)
	m4a := strings.TrimSuffix(job.Output, filepath.Ext(job.Output)) + ".m4a"
	temps := []string{list, meta, m4a}
	defer func() {
		for _, p := range temps {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				f.Logger.Debug("Could not remove", "file", p, "err", err)
			}
		}
	}()

	if err := WriteFileList(list, job.Chapters); err != nil {
		return fmt.Errorf("write file list: %w", err)
	}
	if err := metadata.WriteFile(meta, job.Tags, job.Markers); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	f.Logger.Info("Encoding chapters", "chapters", len(job.Chapters))
	if err := f.Runner.Run(ctx, f.Binary, "-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", list,
		"-codec:a", "flac", "-f", "mp4", "-strict", "-2", m4a); err != nil {
		return fmt.Errorf("concat chapters: %w", err)
	}

	f.Logger.Info("Writing audiobook", "file", job.Output)
	if err := f.Runner.Run(ctx, f.Binary, "-hide_banner", "-loglevel", "error", "-y",
		"-i", m4a, "-i", meta, "-map_metadata", "1", "-codec", "aac", job.Output); err != nil {
		return fmt.Errorf("encode m4b: %w", err)
	}

	if job.Cover != "" {
		if err := f.attachCover(ctx, job.Output, job.Cover); err != nil {
			f.Logger.Warn("Cover not embedded", "cover", job.Cover, "err", err)
		}
	}

	if !job.KeepChapters {
		temps = append(temps, job.Chapters...)
	}
	return nil
}

func (f *FFmpeg) attachCover(ctx context.Context, output, cover string) error {
	if _, err := os.Stat(cover); err != nil {
		return fmt.Errorf("%w: %s", ErrMissingCover, cover)
	}
	tmp := strings.TrimSuffix(output, filepath.Ext(output)) + ".cover.m4b"
	if err := f.Runner.Run(ctx, f.Binary, "-hide_banner", "-loglevel", "error", "-y",
		"-i", output, "-i", cover, "-map", "0", "-map", "1", "-c", "copy",
		"-disposition:v:0", "attached_pic", tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, output)
}
