// Package pipeline wires the extractor, synthesis engine, assembler and
// muxer into the conversions the CLI offers.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/epub2tts/internal/cache"
	"github.com/dgnsrekt/epub2tts/internal/config"
	"github.com/dgnsrekt/epub2tts/internal/tts"
	"github.com/dgnsrekt/epub2tts/internal/tts/engines"
)

// engine closes the disk cache together with the synthesizer it serves.
type engine struct {
	tts.Synthesizer
	store *cache.DiskCache
}

func (e engine) Close() error {
	return errors.Join(e.Synthesizer.Close(), e.store.Close())
}

// OpenEngine resolves the compute device once, builds the configured engine
// and wraps it with the synthesis cache when enabled.
func OpenEngine(cfg config.Config, probe tts.Probe, logger *log.Logger) (tts.Synthesizer, error) {
	if logger == nil {
		logger = log.Default()
	}

	device, err := tts.ResolveDevice(cfg.TTS.Device, probe)
	if err != nil {
		return nil, err
	}
	ec, err := cfg.EngineConfig(device)
	if err != nil {
		return nil, err
	}
	synth, err := engines.New(ec, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to start %s engine: %w", ec.Engine, err)
	}
	info := synth.Info()
	logger.Info("Engine ready", "engine", info.Name, "version", info.Version, "device", device, "online", info.IsOnline)

	if !cfg.Cache.Enabled {
		return synth, nil
	}
	store, err := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.MaxSize, logger)
	if err != nil {
		_ = synth.Close()
		return nil, fmt.Errorf("unable to open synthesis cache: %w", err)
	}
	st := store.Stats()
	logger.Debug("Synthesis cache", "dir", cfg.Cache.Dir, "items", st.ItemCount,
		"size", humanize.IBytes(uint64(st.Size)), "capacity", humanize.IBytes(uint64(st.Capacity)))
	return engine{Synthesizer: tts.NewCached(synth, store, logger), store: store}, nil
}
