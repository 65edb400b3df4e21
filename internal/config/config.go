// Package config loads epub2tts settings from viper (config file, bound
// flags and EPUB2TTS_* variables) and secrets from the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/epub2tts/internal/assemble"
	"github.com/dgnsrekt/epub2tts/internal/checkpoint"
	"github.com/dgnsrekt/epub2tts/internal/tts"
	"github.com/dgnsrekt/epub2tts/internal/tts/engines"
)

// AppName names the config file, the env prefix and the user directories.
const AppName = "epub2tts"

// DefaultCacheSize bounds the synthesis cache, in bytes.
const DefaultCacheSize int64 = 512 << 20

// Ledger kinds.
const (
	LedgerSQLite = "sqlite"
	LedgerMemory = "memory"
)

var errInvalid = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	Voice          string
	Speed          float64
	ParagraphPause time.Duration
	ChapterPause   time.Duration
	Titles         bool
	// WorkDir holds the intermediate artifacts; the current directory when
	// empty.
	WorkDir string
	Engine  string

	TTS    TTSConfig
	Cache  CacheConfig
	Resume ResumeConfig
	FFmpeg FFmpegConfig
	Log    LogConfig
}

type TTSConfig struct {
	Device string
	Exec   engines.ExecConfig
	Piper  engines.PiperConfig
	OpenAI engines.OpenAIConfig
	Edge   engines.EdgeConfig
}

type CacheConfig struct {
	Enabled bool
	Dir     string
	MaxSize int64
}

type ResumeConfig struct {
	// Ledger is "sqlite" or "memory".
	Ledger string
	Verify bool
}

type FFmpegConfig struct {
	Binary       string
	KeepChapters bool
}

type LogConfig struct {
	Level string
	File  string
}

// Secrets are read from the environment only, never from the config file.
type Secrets struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Voice:          tts.DefaultVoice,
		Speed:          tts.DefaultSpeed,
		ParagraphPause: assemble.DefaultParagraphPause,
		ChapterPause:   assemble.DefaultChapterPause,
		Titles:         true,
		Engine:         string(tts.EngineExec),
		TTS: TTSConfig{
			Device: tts.DeviceAuto,
			Exec: engines.ExecConfig{
				Command: "python3 -m kokoro_bridge",
				Timeout: engines.DefaultTimeout,
			},
			Piper: engines.PiperConfig{
				Binary:  "piper",
				Timeout: engines.DefaultTimeout,
			},
			OpenAI: engines.OpenAIConfig{
				Model: "tts-1",
				Voice: "alloy",
			},
		},
		Cache: CacheConfig{
			MaxSize: DefaultCacheSize,
		},
		Resume: ResumeConfig{
			Ledger: LedgerSQLite,
		},
		FFmpeg: FFmpegConfig{
			Binary: "ffmpeg",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers Default() on v so that unset keys resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("voice", d.Voice)
	v.SetDefault("speed", d.Speed)
	v.SetDefault("paragraph_pause_ms", d.ParagraphPause.Milliseconds())
	v.SetDefault("chapter_pause_ms", d.ChapterPause.Milliseconds())
	v.SetDefault("titles", d.Titles)
	v.SetDefault("workdir", d.WorkDir)
	v.SetDefault("engine", d.Engine)

	v.SetDefault("tts.device", d.TTS.Device)
	v.SetDefault("tts.exec.command", d.TTS.Exec.Command)
	v.SetDefault("tts.exec.env", []string{})
	v.SetDefault("tts.exec.timeout", d.TTS.Exec.Timeout)
	v.SetDefault("tts.piper.binary", d.TTS.Piper.Binary)
	v.SetDefault("tts.piper.model", "")
	v.SetDefault("tts.piper.config", "")
	v.SetDefault("tts.piper.speaker", "")
	v.SetDefault("tts.piper.timeout", d.TTS.Piper.Timeout)
	v.SetDefault("tts.openai.model", d.TTS.OpenAI.Model)
	v.SetDefault("tts.openai.voice", d.TTS.OpenAI.Voice)
	v.SetDefault("tts.openai.base_url", "")
	v.SetDefault("tts.openai.rpm", 0)
	v.SetDefault("tts.edge.voice", "")
	v.SetDefault("tts.edge.rpm", 0)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.max_size", d.Cache.MaxSize)

	v.SetDefault("resume.ledger", d.Resume.Ledger)
	v.SetDefault("resume.verify", d.Resume.Verify)

	v.SetDefault("ffmpeg.binary", d.FFmpeg.Binary)
	v.SetDefault("ffmpeg.keep_chapters", d.FFmpeg.KeepChapters)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", "")
}

// Load builds a Config from v and the environment, expands paths and
// validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	cfg.Voice = strings.TrimSpace(v.GetString("voice"))
	cfg.Speed = v.GetFloat64("speed")
	cfg.ParagraphPause = time.Duration(v.GetInt64("paragraph_pause_ms")) * time.Millisecond
	cfg.ChapterPause = time.Duration(v.GetInt64("chapter_pause_ms")) * time.Millisecond
	cfg.Titles = v.GetBool("titles")
	cfg.WorkDir = v.GetString("workdir")
	cfg.Engine = strings.TrimSpace(v.GetString("engine"))

	cfg.TTS.Device = strings.ToLower(v.GetString("tts.device"))
	cfg.TTS.Exec.Command = v.GetString("tts.exec.command")
	cfg.TTS.Exec.Env = v.GetStringSlice("tts.exec.env")
	cfg.TTS.Exec.Timeout = v.GetDuration("tts.exec.timeout")
	cfg.TTS.Piper.Binary = v.GetString("tts.piper.binary")
	cfg.TTS.Piper.ModelPath = v.GetString("tts.piper.model")
	cfg.TTS.Piper.ConfigPath = v.GetString("tts.piper.config")
	cfg.TTS.Piper.Speaker = v.GetString("tts.piper.speaker")
	cfg.TTS.Piper.Timeout = v.GetDuration("tts.piper.timeout")
	cfg.TTS.OpenAI.Model = v.GetString("tts.openai.model")
	cfg.TTS.OpenAI.Voice = v.GetString("tts.openai.voice")
	cfg.TTS.OpenAI.BaseURL = v.GetString("tts.openai.base_url")
	cfg.TTS.OpenAI.RequestsPerMinute = v.GetInt("tts.openai.rpm")
	cfg.TTS.Edge.Voice = v.GetString("tts.edge.voice")
	cfg.TTS.Edge.RequestsPerMinute = v.GetInt("tts.edge.rpm")

	cfg.Cache.Enabled = v.GetBool("cache.enabled")
	cfg.Cache.Dir = v.GetString("cache.dir")
	cfg.Cache.MaxSize = v.GetInt64("cache.max_size")

	cfg.Resume.Ledger = strings.ToLower(v.GetString("resume.ledger"))
	cfg.Resume.Verify = v.GetBool("resume.verify")

	cfg.FFmpeg.Binary = v.GetString("ffmpeg.binary")
	cfg.FFmpeg.KeepChapters = v.GetBool("ffmpeg.keep_chapters")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")

	secrets, err := env.ParseAs[Secrets]()
	if err != nil {
		return cfg, fmt.Errorf("error parsing environment: %w", err)
	}
	cfg.TTS.OpenAI.APIKey = secrets.OpenAIAPIKey
	if cfg.TTS.OpenAI.BaseURL == "" {
		cfg.TTS.OpenAI.BaseURL = secrets.OpenAIBaseURL
	}

	if err := cfg.expandPaths(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.WorkDir, &c.Cache.Dir, &c.TTS.Piper.ModelPath, &c.TTS.Piper.ConfigPath, &c.Log.File} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("unable to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		dir, err := gap.NewScope(gap.User, AppName).CacheDir()
		if err != nil {
			return fmt.Errorf("unable to find cache directory: %w", err)
		}
		c.Cache.Dir = filepath.Join(dir, "synth")
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := tts.ParseVoice(c.Voice); err != nil {
		return fmt.Errorf("%w: voice: %w", errInvalid, err)
	}
	if err := tts.ValidateSpeed(c.Speed); err != nil {
		return fmt.Errorf("%w: %w", errInvalid, err)
	}
	if c.ParagraphPause < 0 || c.ChapterPause < 0 {
		return fmt.Errorf("%w: pauses must not be negative", errInvalid)
	}
	if _, err := tts.ParseEngine(c.Engine); err != nil {
		return fmt.Errorf("%w: engine: %w", errInvalid, err)
	}
	switch c.TTS.Device {
	case tts.DeviceAuto, tts.DeviceCPU, tts.DeviceCUDA, tts.DeviceXPU, tts.DeviceMPS, tts.DeviceROCm:
	default:
		return fmt.Errorf("%w: %w: %q", errInvalid, tts.ErrUnknownDevice, c.TTS.Device)
	}
	if c.TTS.Exec.Timeout < 0 || c.TTS.Piper.Timeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", errInvalid)
	}
	if c.TTS.OpenAI.RequestsPerMinute < 0 || c.TTS.Edge.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: rpm must not be negative", errInvalid)
	}
	if c.Cache.Enabled && c.Cache.MaxSize <= 0 {
		return fmt.Errorf("%w: cache.max_size must be positive, got %d", errInvalid, c.Cache.MaxSize)
	}
	switch c.Resume.Ledger {
	case LedgerSQLite, LedgerMemory:
	default:
		return fmt.Errorf("%w: resume.ledger must be %q or %q, got %q", errInvalid, LedgerSQLite, LedgerMemory, c.Resume.Ledger)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", errInvalid, err)
	}
	return nil
}

// EngineConfig maps the settings onto the engine factory's input. device is
// the already resolved compute device.
func (c Config) EngineConfig(device string) (engines.Config, error) {
	engine, err := tts.ParseEngine(c.Engine)
	if err != nil {
		return engines.Config{}, err
	}
	return engines.Config{
		Engine: engine,
		Device: device,
		Exec:   c.TTS.Exec,
		Piper:  c.TTS.Piper,
		OpenAI: c.TTS.OpenAI,
		Edge:   c.TTS.Edge,
	}, nil
}

// AssembleOptions returns the assembler settings rooted at dir.
func (c Config) AssembleOptions(dir string) assemble.Options {
	return assemble.Options{
		Dir:            dir,
		ParagraphPause: c.ParagraphPause,
		ChapterPause:   c.ChapterPause,
		IncludeTitles:  c.Titles,
		Verify:         c.Resume.Verify,
	}
}

// LedgerPath is where the sqlite ledger lives for a working directory.
func LedgerPath(dir string) string {
	return filepath.Join(dir, checkpoint.DefaultPath)
}
