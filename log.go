package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/epub2tts/internal/config"
)

// logFile is the open log file, if any; closed by the closer from setupLog.
var logFile *os.File

// setupLog sends logs to stderr until the configuration says otherwise.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)
	return func() error {
		if logFile == nil {
			return nil
		}
		return logFile.Close()
	}, nil
}

// configureLog applies the configured level and redirects logs to a file
// when one is set. quiet raises the stderr level so progress output stays
// readable.
func configureLog(cfg config.LogConfig, debug, quiet bool) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	if debug {
		level = log.DebugLevel
	}

	if cfg.File == "" {
		if quiet && level > log.DebugLevel {
			level = max(level, log.WarnLevel)
		}
		log.SetLevel(level)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	logFile = f
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	log.SetLevel(level)
	return nil
}
