package logging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
)

// Middleware logs every request handled by the mediator through the context logger
func Middleware() mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		logger := LoggerFromContext(ctx)
		name := requestName(request)
		start := time.Now()

		response, err := next(ctx, request)

		meta := map[string]interface{}{
			"request":     name,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			meta["error"] = err.Error()
			logger.Log(LevelError, "Request failed", meta)
			return response, err
		}
		logger.Log(LevelDebug, "Request handled", meta)
		return response, nil
	}
}

func requestName(request mediator.Request) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", request), "*")
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// DefaultLoggerMiddleware gives requests arriving without a logger (gRPC calls) the daemon's logger.
// Register it before Middleware.
func DefaultLoggerMiddleware(logger RunLogger) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		if _, ok := ctx.Value(loggerKey).(RunLogger); !ok {
			ctx = WithLogger(ctx, logger)
		}
		return next(ctx, request)
	}
}
