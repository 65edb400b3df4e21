// Package assemble turns a document into per-chapter WAV files, one
// synthesis call per chunk, publishing paragraph and chapter artifacts in
// the working directory so an interrupted run resumes where it stopped.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/text"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

var errNoAudio = errors.New("engine returned no audio")

// Driver renders one paragraph at a time.
type Driver struct {
	Synth      tts.Synthesizer
	Normalizer *text.Normalizer
	Voice      string
	Speed      float64
	Logger     *log.Logger
}

// NewDriver returns a Driver for synth with the English tokenizer when n is
// nil.
func NewDriver(synth tts.Synthesizer, n *text.Normalizer, voice string, speed float64, logger *log.Logger) *Driver {
	if n == nil {
		n = text.NewNormalizer(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Driver{Synth: synth, Normalizer: n, Voice: voice, Speed: speed, Logger: logger}
}

// Render synthesizes paragraph chunk by chunk and joins every returned
// segment in order. Chunks with nothing to pronounce are dropped. It stops
// at the first failing chunk.
func (d *Driver) Render(ctx context.Context, paragraph string) (*audio.Buffer, error) {
	var chunks []string
	for _, c := range d.Normalizer.Chunks(paragraph) {
		if text.Speakable(c) {
			chunks = append(chunks, c)
			continue
		}
		d.Logger.Debug("Skipping chunk without words", "chunk", c)
	}
	if len(chunks) == 0 {
		return nil, &tts.SynthesisError{ChunkText: paragraph, Cause: errNoAudio}
	}

	buf := audio.NewBuffer(audio.SampleRate)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		segs, err := d.Synth.Synthesize(ctx, tts.Request{Text: chunk, Voice: d.Voice, Speed: d.Speed})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &tts.SynthesisError{ChunkIndex: i, ChunkText: chunk, Cause: err}
		}

		frames := 0
		for _, s := range segs {
			frames += len(s.Samples)
			buf.AppendSamples(s.Samples)
		}
		if frames == 0 {
			return nil, &tts.SynthesisError{ChunkIndex: i, ChunkText: chunk, Cause: errNoAudio}
		}
		d.Logger.Debug("Chunk synthesized", "chunk", i+1, "of", len(chunks),
			"audio", audio.FramesDuration(frames, audio.SampleRate), "took", time.Since(start))
	}
	return buf, nil
}

// RenderFile renders paragraph and writes it to dest with tail of silence
// appended.
func (d *Driver) RenderFile(ctx context.Context, paragraph, dest string, tail time.Duration) error {
	buf, err := d.Render(ctx, paragraph)
	if err != nil {
		return err
	}
	buf.AppendSilence(tail)
	if err := audio.WriteFile(dest, buf); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
