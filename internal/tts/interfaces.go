package tts

import (
	"context"
	"strings"
)

// Synthesizer defines the contract for text-to-speech engines.
// Implementations return 24 kHz mono 16-bit audio and resample internally
// when their native rate differs.
type Synthesizer interface {
	// Synthesize converts one chunk of text to zero or more audio segments.
	// Segments are returned in emission order.
	Synthesize(ctx context.Context, req Request) ([]Segment, error)

	// Info returns engine capabilities and configuration.
	Info() EngineInfo

	// Close releases any resources held by the engine.
	Close() error
}

// Request is a single synthesis call.
type Request struct {
	Text  string
	Voice string
	Speed float64
}

// Segment is one piece of audio emitted by an engine, with the graphemes and
// phonemes it was produced from when the engine reports them.
type Segment struct {
	Graphemes string
	Phonemes  string
	Samples   []int16
}

// EngineInfo describes engine capabilities and configuration.
type EngineInfo struct {
	Name        string // Engine name (e.g., "exec", "piper")
	Version     string // Engine version or model identifier
	SampleRate  int    // Audio sample rate in Hz after resampling
	Channels    int    // Number of audio channels
	BitDepth    int    // Bits per sample
	MaxTextSize int    // Maximum text size in characters, 0 when unbounded
	IsOnline    bool   // Whether the engine requires internet
	Device      string // Compute device the engine runs on
}

// EngineType represents the TTS engine selection
type EngineType string

const (
	EngineExec   EngineType = "exec"
	EnginePiper  EngineType = "piper"
	EngineOpenAI EngineType = "openai"
	EngineEdge   EngineType = "edge"
	EngineMock   EngineType = "mock"

	// EngineNone represents no engine selected
	EngineNone EngineType = ""
)

// Engines lists every selectable engine.
var Engines = []EngineType{EngineExec, EnginePiper, EngineOpenAI, EngineEdge, EngineMock}

// ParseEngine normalizes an engine name and its aliases.
func ParseEngine(name string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return EngineNone, ErrNoEngineConfigured
	case "exec", "kokoro":
		return EngineExec, nil
	case "piper":
		return EnginePiper, nil
	case "openai":
		return EngineOpenAI, nil
	case "edge", "edge-tts":
		return EngineEdge, nil
	case "mock":
		return EngineMock, nil
	default:
		return EngineNone, &TTSError{
			Code:    ErrorCodeInvalidInput,
			Message: "unsupported engine " + name,
			Cause:   ErrInvalidEngine,
			Context: map[string]any{"supported": Engines},
		}
	}
}
