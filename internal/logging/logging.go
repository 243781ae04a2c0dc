package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration
type Config struct {
	Level    string
	Format   string // "json" or "text"
	FilePath string // optional rotated log file, written in addition to Output

	// Output defaults to os.Stderr so stdout stays free for command output
	Output io.Writer
}

const (
	fileMaxSizeMB  = 20
	fileMaxBackups = 3
	fileMaxAgeDays = 14
)

// Setup builds a logger from cfg and installs it as the slog default.
// The returned closer releases the log file, if any; it is never nil.
func Setup(cfg Config) (*slog.Logger, io.Closer) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if cfg.FilePath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
		}
		out = io.MultiWriter(out, lj)
		closer = lj
	}

	logger := slog.New(NewHandler(out, ParseLevel(cfg.Level), cfg.Format))
	slog.SetDefault(logger)
	return logger, closer
}

// NewHandler creates a JSON handler, or a text handler when format is "text"
func NewHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseLevel converts a level name to slog.Level, defaulting to Info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Component returns the default logger tagged with a component name
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
