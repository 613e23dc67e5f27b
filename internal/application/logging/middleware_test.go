package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/application/logging"
	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
)

type pingQuery struct{}

func TestMiddleware_LogsOutcome(t *testing.T) {
	// Arrange
	rec := &recordingLogger{}
	ctx := logging.WithLogger(context.Background(), rec)
	middleware := logging.Middleware()

	// Act
	_, err := middleware(ctx, &pingQuery{}, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return "pong", nil
	})
	require.NoError(t, err)
	_, err = middleware(ctx, &pingQuery{}, func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return nil, errors.New("boom")
	})

	// Assert
	require.Error(t, err)
	require.Len(t, rec.lines, 2)
	assert.Equal(t, logging.LevelDebug, rec.lines[0]["level"])
	assert.Equal(t, "pingQuery", rec.lines[0]["request"])
	assert.Equal(t, logging.LevelError, rec.lines[1]["level"])
	assert.Equal(t, "boom", rec.lines[1]["error"])
}

func TestDefaultLoggerMiddleware(t *testing.T) {
	fallback := &recordingLogger{}
	own := &recordingLogger{}
	middleware := logging.DefaultLoggerMiddleware(fallback)
	next := func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		logging.LoggerFromContext(ctx).Log(logging.LevelInfo, "handled", nil)
		return nil, nil
	}

	_, err := middleware(context.Background(), &pingQuery{}, next)
	require.NoError(t, err)
	_, err = middleware(logging.WithLogger(context.Background(), own), &pingQuery{}, next)
	require.NoError(t, err)

	assert.Len(t, fallback.lines, 1)
	assert.Len(t, own.lines, 1)
}
