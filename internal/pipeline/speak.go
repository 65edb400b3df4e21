package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/assemble"
	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/text"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// ErrNoText is returned when there is nothing to read aloud.
var ErrNoText = errors.New("no text to read")

var blankLines = regexp.MustCompile(`\n\s*\n`)

// SayName is the WAV written for a text file: same path, .wav extension.
func SayName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
}

// Speak renders free text, paragraph by paragraph, into one buffer with the
// paragraph pause between paragraphs.
func Speak(ctx context.Context, synth tts.Synthesizer, voice string, speed float64, s string, pause time.Duration, logger *log.Logger) (*audio.Buffer, error) {
	if logger == nil {
		logger = log.Default()
	}
	tok := text.TokenizerFor(tts.LanguageForVoice(voice))
	d := assemble.NewDriver(synth, text.NewNormalizer(tok), voice, speed, logger)

	out := audio.NewBuffer(audio.SampleRate)
	for _, p := range blankLines.Split(strings.ReplaceAll(s, "\r\n", "\n"), -1) {
		p = text.Clean(p)
		if !text.Speakable(p) {
			if p != "" {
				logger.Debug("Skipping paragraph without words", "text", p)
			}
			continue
		}
		if out.Len() > 0 {
			out.AppendSilence(pause)
		}
		b, err := d.Render(ctx, p)
		if err != nil {
			return nil, err
		}
		if err := out.Append(b); err != nil {
			return nil, err
		}
	}
	if out.Len() == 0 {
		return nil, ErrNoText
	}
	return out, nil
}

// SpeakFile reads src and writes its narration to dest.
func SpeakFile(ctx context.Context, synth tts.Synthesizer, voice string, speed float64, src, dest string, pause time.Duration, logger *log.Logger) (*audio.Buffer, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", src, err)
	}
	b, err := Speak(ctx, synth, voice, speed, string(data), pause, logger)
	if err != nil {
		return nil, err
	}
	if err := audio.WriteFileAtomic(dest, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SampleText introduces a voice and reads a few Harvard sentences.
func SampleText(voice string) string {
	name := voice
	if len(voice) > 3 {
		name = voice[3:]
	}
	return fmt.Sprintf("Hello, this voice is %s. The quick brown fox jumped over the lazy dog. "+
		"The fish twisted and turned on the bent hook. Press the pants and sew a button on the vest. "+
		"The swan dive was far short of perfect.", name)
}

// SampleName is the file a voice sample is written to.
func SampleName(voice string) string { return voice + "_sample.wav" }

// Sample is the outcome for one voice.
type Sample struct {
	Voice   string
	Path    string
	Skipped bool
}

// Samples writes one sample per voice into dir at normal speed, skipping
// voices whose sample already exists.
func Samples(ctx context.Context, synth tts.Synthesizer, dir string, voices []string, logger *log.Logger) ([]Sample, error) {
	if logger == nil {
		logger = log.Default()
	}
	var out []Sample
	for _, v := range voices {
		s := Sample{Voice: v, Path: filepath.Join(dir, SampleName(v))}
		if _, err := os.Stat(s.Path); err == nil {
			logger.Info("Sample already exists", "voice", v)
			s.Skipped = true
			out = append(out, s)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return out, fmt.Errorf("unable to stat sample: %w", err)
		}

		logger.Info("Creating sample", "voice", v)
		b, err := Speak(ctx, synth, v, 1, SampleText(v), 0, logger)
		if err != nil {
			return out, fmt.Errorf("sample %s: %w", v, err)
		}
		if err := audio.WriteFileAtomic(s.Path, b); err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}
