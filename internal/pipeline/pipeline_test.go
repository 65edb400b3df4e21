package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/config"
	"github.com/dgnsrekt/epub2tts/internal/mux"
	"github.com/dgnsrekt/epub2tts/internal/tts"
	"github.com/dgnsrekt/epub2tts/internal/tts/engines"
)

type fakeMuxer struct {
	jobs []mux.Job
	err  error
}

func (f *fakeMuxer) Mux(_ context.Context, job mux.Job) error {
	f.jobs = append(f.jobs, job)
	return f.err
}

const manuscript = `Title: Test Book
Author: Ann Writer

# One
Hello there, said the narrator.
# Two
The second chapter has a few more words.
`

func newConverter(t *testing.T, ledger string) (*Converter, *engines.MockEngine, *fakeMuxer, string) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "book.txt")
	if err := os.WriteFile(src, []byte(manuscript), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Engine = string(tts.EngineMock)
	cfg.WorkDir = filepath.Join(dir, "work")
	cfg.Resume.Ledger = ledger

	mock := engines.NewMockEngine()
	fm := &fakeMuxer{}
	return &Converter{
		Config: cfg,
		Synth:  mock,
		Muxer:  fm,
		Logger: log.New(io.Discard),
	}, mock, fm, src
}

func TestConverterRun(t *testing.T) {
	for _, ledger := range []string{config.LedgerMemory, config.LedgerSQLite} {
		t.Run(ledger, func(t *testing.T) {
			c, mock, fm, src := newConverter(t, ledger)

			res, err := c.Run(context.Background(), Job{Source: src})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if want := strings.TrimSuffix(src, ".txt") + " (af_heart).m4b"; res.Output != want {
				t.Errorf("Output = %q, want %q", res.Output, want)
			}
			if len(fm.jobs) != 1 {
				t.Fatalf("muxer called %d times", len(fm.jobs))
			}
			job := fm.jobs[0]
			if len(job.Chapters) != 2 || filepath.Base(job.Chapters[1]) != "part2.wav" {
				t.Errorf("chapters = %q", job.Chapters)
			}
			if job.Tags.Artist != "Ann Writer" || job.Tags.Album != "Test Book" {
				t.Errorf("tags = %+v", job.Tags)
			}
			if job.Cover != "" {
				t.Errorf("cover = %q for a text source", job.Cover)
			}
			if len(res.Markers) != 2 || res.Markers[0].Title != "One" || res.Markers[1].Start != res.Markers[0].End {
				t.Errorf("markers = %+v", res.Markers)
			}
			if res.Markers[1].End != res.Duration.Milliseconds() {
				t.Errorf("last marker ends at %d, total %v", res.Markers[1].End, res.Duration)
			}
			if !strings.HasPrefix(mock.Requests()[0].Text, "One. ") {
				t.Errorf("title not read: %q", mock.Requests()[0].Text)
			}
			for _, r := range mock.Requests() {
				if r.Speed != tts.DefaultSpeed || r.Voice != tts.DefaultVoice {
					t.Errorf("request = %+v", r)
				}
			}

			calls := mock.Calls()
			if err := os.WriteFile(res.Output, nil, 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := c.Run(context.Background(), Job{Source: src}); !errors.Is(err, mux.ErrDestinationExists) {
				t.Fatalf("Run() over existing output error = %v, want ErrDestinationExists", err)
			}
			if _, err := c.Run(context.Background(), Job{Source: src, Overwrite: true}); err != nil {
				t.Fatalf("Run(Overwrite) error = %v", err)
			}
			if mock.Calls() != calls {
				t.Errorf("rerun synthesized %d more chunks, want 0", mock.Calls()-calls)
			}
		})
	}
}

func TestConverterRunLedgerFile(t *testing.T) {
	c, _, _, src := newConverter(t, config.LedgerSQLite)
	if _, err := c.Run(context.Background(), Job{Source: src, Output: filepath.Join(t.TempDir(), "out.m4b")}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(config.LedgerPath(c.Config.WorkDir)); err != nil {
		t.Errorf("ledger not created: %v", err)
	}
}

func TestConverterMuxFailure(t *testing.T) {
	c, _, fm, src := newConverter(t, config.LedgerMemory)
	fm.err = errors.New("ffmpeg exploded")
	if _, err := c.Run(context.Background(), Job{Source: src}); !errors.Is(err, fm.err) {
		t.Errorf("Run() error = %v", err)
	}
}

func TestExtractCover(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"META-INF/container.xml": `<container><rootfiles><rootfile full-path="OEBPS/content.opf"/></rootfiles></container>`,
		"OEBPS/content.opf": `<package><metadata><meta name="cover" content="img"/></metadata>
<manifest><item id="img" href="images/front.png" media-type="image/png"/><item id="c" href="c.xhtml" media-type="application/xhtml+xml"/></manifest>
<spine><itemref idref="c"/></spine></package>`,
		"OEBPS/images/front.png": "PNGDATA",
		"OEBPS/c.xhtml":          `<html><body><p>Text.</p></body></html>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "book.epub")
	if err := os.WriteFile(src, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	got := extractCover(src, dir, log.New(io.Discard))
	if got != filepath.Join(dir, "cover.png") {
		t.Fatalf("extractCover() = %q", got)
	}
	data, err := os.ReadFile(got)
	if err != nil || string(data) != "PNGDATA" {
		t.Errorf("cover = %q, %v", data, err)
	}

	if got := extractCover(filepath.Join(dir, "missing.epub"), dir, log.New(io.Discard)); got != "" {
		t.Errorf("extractCover(missing) = %q", got)
	}
}

func TestSpeak(t *testing.T) {
	mock := engines.NewMockEngine()
	b, err := Speak(context.Background(), mock, tts.DefaultVoice, 1, "One two three.\r\n\r\n  Four five.  \n", 600*time.Millisecond, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if b.Duration() != 850*time.Millisecond {
		t.Errorf("Duration() = %v, want 850ms", b.Duration())
	}
	if mock.Calls() != 2 {
		t.Errorf("calls = %d, want 2", mock.Calls())
	}

	if _, err := Speak(context.Background(), mock, tts.DefaultVoice, 1, " \n\n\t", 0, nil); !errors.Is(err, ErrNoText) {
		t.Errorf("Speak(blank) error = %v, want ErrNoText", err)
	}
}

func TestSpeakSceneBreak(t *testing.T) {
	mock := engines.NewMockEngine()
	b, err := Speak(context.Background(), mock, tts.DefaultVoice, 1, "First words here.\n\n* * *\n\nSecond words.", 300*time.Millisecond, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	for _, r := range mock.Requests() {
		if r.Text == "* * *" {
			t.Errorf("scene break sent to the engine")
		}
	}
	if mock.Calls() != 2 {
		t.Errorf("calls = %d, want 2", mock.Calls())
	}
	if b.Duration() != 550*time.Millisecond {
		t.Errorf("Duration() = %v, want 550ms", b.Duration())
	}

	if _, err := Speak(context.Background(), mock, tts.DefaultVoice, 1, "* * *\n\n...", 0, nil); !errors.Is(err, ErrNoText) {
		t.Errorf("Speak(punctuation) error = %v, want ErrNoText", err)
	}
}

func TestSpeakFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "greeting.txt")
	if err := os.WriteFile(src, []byte("Good morning to you."), 0o600); err != nil {
		t.Fatal(err)
	}
	dest := SayName(src)
	if dest != filepath.Join(dir, "greeting.wav") {
		t.Errorf("SayName() = %q", dest)
	}
	if _, err := SpeakFile(context.Background(), engines.NewMockEngine(), "bm_lewis", 1, src, dest, 0, log.New(io.Discard)); err != nil {
		t.Fatal(err)
	}
	d, err := audio.FileDuration(dest)
	if err != nil {
		t.Fatal(err)
	}
	if d != 200*time.Millisecond {
		t.Errorf("FileDuration() = %v, want 200ms", d)
	}
}

func TestSamples(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SampleName("af_bella")), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	mock := engines.NewMockEngine()
	got, err := Samples(context.Background(), mock, dir, []string{"af_heart", "af_bella"}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Samples() error = %v", err)
	}
	if len(got) != 2 || got[0].Skipped || !got[1].Skipped {
		t.Errorf("Samples() = %+v", got)
	}
	if mock.Calls() == 0 || mock.Requests()[0].Speed != 1 || mock.Requests()[0].Voice != "af_heart" {
		t.Errorf("requests = %+v", mock.Requests())
	}
	if !strings.Contains(SampleText("af_heart"), "this voice is heart.") {
		t.Errorf("SampleText() = %q", SampleText("af_heart"))
	}
	if _, err := os.Stat(got[0].Path); err != nil {
		t.Errorf("sample not written: %v", err)
	}
}

func TestOpenEngineCached(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = string(tts.EngineMock)
	cfg.TTS.Device = tts.DeviceCPU
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()
	cfg.Cache.MaxSize = 1 << 20

	synth, err := OpenEngine(cfg, tts.Probe{}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("OpenEngine() error = %v", err)
	}
	req := tts.Request{Text: "Cache this sentence.", Voice: tts.DefaultVoice, Speed: 1}
	for range 2 {
		if _, err := synth.Synthesize(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if err := synth.Close(); err != nil {
		t.Fatal(err)
	}

	var entries int
	_ = filepath.WalkDir(cfg.Cache.Dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(d.Name()) == ".zst" {
			entries++
		}
		return nil
	})
	if entries != 1 {
		t.Errorf("cache holds %d entries, want 1", entries)
	}
}

func TestOpenEngineNone(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = ""
	cfg.TTS.Device = tts.DeviceCPU
	if _, err := OpenEngine(cfg, tts.Probe{}, nil); !errors.Is(err, tts.ErrNoEngineConfigured) {
		t.Errorf("OpenEngine() error = %v, want ErrNoEngineConfigured", err)
	}
}
