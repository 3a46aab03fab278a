package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// LogRetentionDays is how long archived daily files are kept.
const LogRetentionDays = 7

// DefaultLogger is the first logger created by NewLogger. Packages fall back to it
// when no logger is injected.
var DefaultLogger *Logger

type LogCfg struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
	LogDir   string `yaml:"log_dir" json:"log_dir"`
	LogFile  string `yaml:"log_file" json:"log_file"`
}

// Logger writes JSON lines to a daily-rotated file and coloured text to stdout.
// A nil *Logger discards everything.
type Logger struct {
	level     slog.Level
	file      *dailyFile
	json      *slog.Logger
	console   *slog.Logger
	structLog *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// ParseLevel maps a config level name to slog. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger opens (or creates) <LogDir>/<LogFile>.
func NewLogger(config *LogCfg) (*Logger, error) {
	if config == nil {
		return nil, fmt.Errorf("log config is nil")
	}
	file, err := openDailyFile(config.LogDir, config.LogFile, LogRetentionDays)
	if err != nil {
		return nil, err
	}

	logger := newLogger(ParseLevel(config.LogLevel), file, os.Stdout)
	logger.file = file
	if DefaultLogger == nil {
		DefaultLogger = logger
	}
	return logger, nil
}

// NewDiscardLogger returns a logger that drops every record.
func NewDiscardLogger() *Logger {
	return newLogger(slog.LevelError+1, io.Discard, io.Discard)
}

func newLogger(level slog.Level, fileSink, consoleSink io.Writer) *Logger {
	jsonHandler := slog.NewJSONHandler(fileSink, &slog.HandlerOptions{Level: level})
	console := newConsoleHandler(consoleSink, level)
	return &Logger{
		level:     level,
		json:      slog.New(jsonHandler),
		console:   slog.New(console),
		structLog: slog.New(fanoutHandler{jsonHandler, console}),
	}
}

// Close flushes the log file. Safe to call more than once.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.closeOnce.Do(func() {
		if l.file != nil {
			l.closeErr = l.file.Close()
		}
	})
	return l.closeErr
}

// Slog returns a structured logger writing to both the file and the console.
func (l *Logger) Slog() *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l.structLog
}

// fieldAttrs turns an optional leading map argument into sorted attributes.
func fieldAttrs(fields []interface{}) []slog.Attr {
	if len(fields) == 0 || fields[0] == nil {
		return nil
	}
	m, ok := fields[0].(map[string]interface{})
	if !ok {
		return []slog.Attr{slog.Any("fields", fields[0])}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, m[k]))
	}
	return attrs
}

func (l *Logger) emit(level slog.Level, msg string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	var attrs []slog.Attr
	if len(args) > 0 && strings.Contains(msg, "%") {
		msg = fmt.Sprintf(msg, args...)
	} else {
		attrs = fieldAttrs(args)
	}
	ctx := context.Background()
	l.json.LogAttrs(ctx, level, msg, attrs...)
	l.console.LogAttrs(ctx, level, msg, attrs...)
}

// Debug logs at debug level. A format string with args is rendered printf-style;
// otherwise a leading map argument becomes structured attributes.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.emit(slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.emit(slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.emit(slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.emit(slog.LevelError, msg, args...)
}

// FormatLog prefixes message with a category tag: FormatLog("HTTP", "listening")
// gives "[HTTP] listening". Messages already starting with "[" are kept.
func FormatLog(tag, message string) string {
	tag = strings.TrimSpace(tag)
	message = strings.TrimSpace(message)
	if tag == "" || strings.HasPrefix(message, "[") {
		return message
	}
	return "[" + tag + "] " + message
}

func (l *Logger) DebugTag(tag, msg string, args ...interface{}) {
	l.emit(slog.LevelDebug, FormatLog(tag, msg), args...)
}

func (l *Logger) InfoTag(tag, msg string, args ...interface{}) {
	l.emit(slog.LevelInfo, FormatLog(tag, msg), args...)
}

func (l *Logger) WarnTag(tag, msg string, args ...interface{}) {
	l.emit(slog.LevelWarn, FormatLog(tag, msg), args...)
}

func (l *Logger) ErrorTag(tag, msg string, args ...interface{}) {
	l.emit(slog.LevelError, FormatLog(tag, msg), args...)
}
