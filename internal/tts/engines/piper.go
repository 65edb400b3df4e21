package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// PiperConfig holds configuration for the Piper engine.
type PiperConfig struct {
	// Binary is the piper command line, "piper" by default.
	Binary string

	// Model file path (required)
	ModelPath string

	// Config file path (optional, defaults to model path with .json extension)
	ConfigPath string

	// Speaker id for multi-speaker models (optional)
	Speaker string

	Timeout time.Duration
}

// PiperEngine synthesizes with Piper (offline TTS) using a fresh process per
// request and resamples its raw output to the common rate.
type PiperEngine struct {
	cmd        command
	modelPath  string
	configPath string
	speaker    string
	sampleRate int
	timeout    time.Duration
	logger     *log.Logger
}

// NewPiperEngine creates a new Piper TTS engine.
func NewPiperEngine(cfg PiperConfig, logger *log.Logger) (*PiperEngine, error) {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ModelPath == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "model path is required", nil)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineUnavailable, "model file not found", err)
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = cfg.ModelPath + ".json"
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			cfg.ConfigPath = strings.TrimSuffix(cfg.ModelPath, filepath.Ext(cfg.ModelPath)) + ".json"
		}
	}
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	cmd, err := parseCommand(cfg.Binary, nil)
	if err != nil {
		return nil, err
	}

	rate, err := modelSampleRate(cfg.ConfigPath)
	if err != nil {
		logger.Warn("Using default Piper sample rate", "config", cfg.ConfigPath, "err", err)
		rate = 22050
	}

	return &PiperEngine{
		cmd:        cmd,
		modelPath:  cfg.ModelPath,
		configPath: cfg.ConfigPath,
		speaker:    cfg.Speaker,
		sampleRate: rate,
		timeout:    cfg.Timeout,
		logger:     logger.WithPrefix("piper"),
	}, nil
}

func modelSampleRate(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var cfg struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return 0, err
	}
	if cfg.Audio.SampleRate <= 0 {
		return 0, errors.New("no audio.sample_rate")
	}
	return cfg.Audio.SampleRate, nil
}

// Synthesize converts text to audio using Piper.
func (e *PiperEngine) Synthesize(ctx context.Context, req tts.Request) ([]tts.Segment, error) {
	if req.Text == "" {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "text cannot be empty", nil)
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}

	// Speed: 0.5 = half speed (scale 2.0), 2.0 = double speed (scale 0.5)
	args := []string{
		"--model", e.modelPath,
		"--config", e.configPath,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", 1.0/speed),
	}
	if e.speaker != "" {
		args = append(args, "--speaker", e.speaker)
	}

	out, err := e.cmd.run(ctx, e.timeout, strings.NewReader(req.Text), args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, "piper produced no audio output", nil)
	}

	samples := audio.Resample(audio.DecodePCM16LE(out), e.sampleRate, audio.SampleRate)
	return []tts.Segment{{Graphemes: req.Text, Samples: samples}}, nil
}

func (e *PiperEngine) Info() tts.EngineInfo {
	return tts.EngineInfo{
		Name:       string(tts.EnginePiper),
		Version:    filepath.Base(e.modelPath),
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		BitDepth:   audio.BitDepth,
		Device:     tts.DeviceCPU,
	}
}

func (e *PiperEngine) Close() error { return nil }

var _ tts.Synthesizer = (*PiperEngine)(nil)
