package engines

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// ExecConfig configures the subprocess bridge. The command receives one JSON
// request on stdin and answers with one JSON object per emitted segment.
type ExecConfig struct {
	// Command line, shell quoted, e.g. "python3 -m kokoro_bridge".
	Command string
	// Extra environment entries, KEY=value.
	Env []string
	// Timeout per request; DefaultTimeout when zero.
	Timeout time.Duration
	// Device is the resolved compute device forwarded to the bridge.
	Device string
}

// ExecEngine drives an external synthesizer process once per request.
type ExecEngine struct {
	cmd     command
	timeout time.Duration
	device  string
	logger  *log.Logger
}

type execRequest struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Lang       string  `json:"lang"`
	Speed      float64 `json:"speed"`
	SampleRate int     `json:"sample_rate"`
	Device     string  `json:"device"`
}

type execSegment struct {
	Graphemes  string `json:"graphemes"`
	Phonemes   string `json:"phonemes"`
	PCM        string `json:"pcm_base64"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewExecEngine parses the configured command.
func NewExecEngine(cfg ExecConfig, logger *log.Logger) (*ExecEngine, error) {
	if logger == nil {
		logger = log.Default()
	}
	cmd, err := parseCommand(cfg.Command, cfg.Env)
	if err != nil {
		return nil, err
	}
	if err := cmd.lookPath(); err != nil {
		return nil, err
	}
	return &ExecEngine{
		cmd:     cmd,
		timeout: cfg.Timeout,
		device:  cfg.Device,
		logger:  logger.WithPrefix("exec"),
	}, nil
}

func (e *ExecEngine) Synthesize(ctx context.Context, req tts.Request) ([]tts.Segment, error) {
	if req.Text == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "text cannot be empty", nil)
	}
	body, err := json.Marshal(execRequest{
		Text:       req.Text,
		Voice:      req.Voice,
		Lang:       tts.LanguageForVoice(req.Voice),
		Speed:      req.Speed,
		SampleRate: audio.SampleRate,
		Device:     e.device,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := e.cmd.run(ctx, e.timeout, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	segs, err := decodeExecOutput(out)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Synthesized", "segments", len(segs), "took", time.Since(start))
	return segs, nil
}

func decodeExecOutput(out []byte) ([]tts.Segment, error) {
	var segs []tts.Segment
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		var s execSegment
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			return segs, nil
		}
		if err != nil {
			return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "malformed engine output", err)
		}
		if s.Error != "" {
			return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, s.Error, nil)
		}
		pcm, err := base64.StdEncoding.DecodeString(s.PCM)
		if err != nil {
			return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat, "malformed pcm_base64", err)
		}
		if len(pcm)%2 != 0 {
			return nil, tts.NewTTSError(tts.ErrorCodeAudioFormat,
				fmt.Sprintf("odd pcm length %d", len(pcm)), nil)
		}
		samples := audio.DecodePCM16LE(pcm)
		if s.SampleRate > 0 && s.SampleRate != audio.SampleRate {
			samples = audio.Resample(samples, s.SampleRate, audio.SampleRate)
		}
		segs = append(segs, tts.Segment{Graphemes: s.Graphemes, Phonemes: s.Phonemes, Samples: samples})
	}
}

func (e *ExecEngine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:       string(tts.EngineExec),
		Version:    e.cmd.path,
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BitDepth:   audio.BitDepth,
		Device:     e.device,
	}
}

func (e *ExecEngine) Close() error { return nil }

var _ tts.Synthesizer = (*ExecEngine)(nil)
