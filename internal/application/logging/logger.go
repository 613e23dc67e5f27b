package logging

import "context"

// RunLogger records what happens during one planning run
type RunLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Log levels understood by every RunLogger
const (
	LevelDebug   = "DEBUG"
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger RunLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a no-op logger if not found
func LoggerFromContext(ctx context.Context) RunLogger {
	if logger, ok := ctx.Value(loggerKey).(RunLogger); ok {
		return logger
	}
	return NoOpLogger{}
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (NoOpLogger) Log(level, message string, metadata map[string]interface{}) {}

// MultiLogger fans a line out to several loggers
type MultiLogger []RunLogger

func (m MultiLogger) Log(level, message string, metadata map[string]interface{}) {
	for _, l := range m {
		if l != nil {
			l.Log(level, message, metadata)
		}
	}
}

// WithRunID returns a logger that tags every line with the run ID
func WithRunID(logger RunLogger, runID string) RunLogger {
	return &runScoped{inner: logger, runID: runID}
}

type runScoped struct {
	inner RunLogger
	runID string
}

func (r *runScoped) Log(level, message string, metadata map[string]interface{}) {
	tagged := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		tagged[k] = v
	}
	tagged["run_id"] = r.runID
	r.inner.Log(level, message, tagged)
}
