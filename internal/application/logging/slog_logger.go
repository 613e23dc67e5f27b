package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// SlogConfig selects the slog handler behind SlogRunLogger
type SlogConfig struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	Output    io.Writer
	AddSource bool
}

// SlogRunLogger writes run log lines through log/slog
type SlogRunLogger struct {
	logger *slog.Logger
}

// NewSlogRunLogger creates a logger; a nil Output writes to stderr
func NewSlogRunLogger(cfg SlogConfig) *SlogRunLogger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseSlogLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return &SlogRunLogger{logger: slog.New(handler)}
}

// ParseSlogLevel maps config and RunLogger level names onto slog levels
func ParseSlogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog exposes the underlying logger for components that log outside a run
func (l *SlogRunLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *SlogRunLogger) Log(level, message string, metadata map[string]interface{}) {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, metadata[k])
	}
	l.logger.Log(context.Background(), ParseSlogLevel(level), message, attrs...)
}

// OpenOutput resolves a logging output name to a writer. The returned closer is a
// no-op for stdout and stderr.
func OpenOutput(output, filePath string) (io.Writer, func() error, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, func() error { return nil }, nil
	case "stdout":
		return os.Stdout, func() error { return nil }, nil
	case "file":
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown log output %q", output)
	}
}
