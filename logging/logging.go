// Package logging builds the process logger. The terminal belongs to the renderer, so records
// go to a rotating file or nowhere.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns logging disabled with sensible rotation limits
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		File:       "backdrop.log",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 7,
	}
}

// ParseLevel maps a level name to zerolog, unknown names fall back to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to the rotating file, or a no-op logger when disabled
// The returned closer releases the file and is never nil
func New(cfg Config) (zerolog.Logger, io.Closer) {
	if !cfg.Enabled || cfg.File == "" {
		return zerolog.Nop(), nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return NewWriter(file, ParseLevel(cfg.Level)), file
}

// NewWriter builds the structured logger over an arbitrary writer
func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("app", "backdrop").
		Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
