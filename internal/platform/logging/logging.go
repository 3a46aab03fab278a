// Package logging opens the process logger once at startup and hands out the
// tagged and structured views of it.
package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"trustlens-server-go/internal/utils"
)

const (
	defaultDir  = "data/logs"
	defaultFile = "server.log"
)

var knownLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger owns the log file; both views write to it.
type Logger struct {
	tagged *utils.Logger
}

// New opens <Dir>/<Filename>, defaulting to data/logs/server.log. An unknown
// level is rejected rather than silently treated as info.
func New(cfg Config) (*Logger, error) {
	level := strings.ToLower(strings.TrimSpace(cfg.Level))
	if !knownLevels[level] {
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}
	if cfg.Dir == "" {
		cfg.Dir = defaultDir
	}
	if cfg.Filename == "" {
		cfg.Filename = defaultFile
	}

	tagged, err := utils.NewLogger(&utils.LogCfg{LogLevel: level, LogDir: cfg.Dir, LogFile: cfg.Filename})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &Logger{tagged: tagged}, nil
}

// Legacy exposes the tagged printf-style logger used by domain and transport code.
func (l *Logger) Legacy() *utils.Logger {
	return l.tagged
}

func (l *Logger) Slog() *slog.Logger {
	return l.tagged.Slog()
}

func (l *Logger) Close() error {
	return l.tagged.Close()
}
