package engines

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// Config selects and configures one engine.
type Config struct {
	Engine tts.EngineType
	// Device is the already resolved compute device.
	Device string
	Exec   ExecConfig
	Piper  PiperConfig
	OpenAI OpenAIConfig
	Edge   EdgeConfig
}

// New builds the configured engine.
func New(cfg Config, logger *log.Logger) (tts.Synthesizer, error) {
	if logger == nil {
		logger = log.Default()
	}
	switch cfg.Engine {
	case tts.EngineExec:
		ec := cfg.Exec
		ec.Device = cfg.Device
		return NewExecEngine(ec, logger)
	case tts.EnginePiper:
		return NewPiperEngine(cfg.Piper, logger)
	case tts.EngineOpenAI:
		return NewOpenAIEngine(cfg.OpenAI, logger)
	case tts.EngineEdge:
		return NewEdgeEngine(cfg.Edge, logger), nil
	case tts.EngineMock:
		return NewMockEngine(), nil
	case tts.EngineNone:
		return nil, tts.ErrNoEngineConfigured
	default:
		return nil, fmt.Errorf("%w: %s", tts.ErrInvalidEngine, cfg.Engine)
	}
}
