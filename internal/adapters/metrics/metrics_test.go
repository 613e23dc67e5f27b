package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

type sampleCommand struct{}

func withRegistry(t *testing.T) {
	t.Helper()
	InitRegistry()
	t.Cleanup(func() {
		Registry = nil
		SetGlobalPlanCollector(nil)
	})
}

func TestPlanMetricsCollector_RecordPlanRun(t *testing.T) {
	// Arrange
	withRegistry(t)
	collector := NewPlanMetricsCollector()
	require.NoError(t, collector.Register())
	SetGlobalPlanCollector(collector)

	// Act
	RecordPlanRun(PlanRunInfo{Heuristic: "LPT", Outcome: "SCHEDULED", MakespanSeconds: 7200, Jobs: 12, Warnings: 2, Iterations: 30})
	RecordPlanRun(PlanRunInfo{Heuristic: "LPT", Outcome: "NOTHING_TO_SCHEDULE"})
	RecordPlanFailure("SPT", "deadlock")

	// Assert
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.plansTotal.WithLabelValues("LPT", "SCHEDULED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.plansTotal.WithLabelValues("LPT", "NOTHING_TO_SCHEDULE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.failuresTotal.WithLabelValues("SPT", "deadlock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.warnings))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.makespan))
}

func TestRecordHelpers_NoCollector(t *testing.T) {
	SetGlobalPlanCollector(nil)

	assert.NotPanics(t, func() {
		RecordPlanRun(PlanRunInfo{Heuristic: "SPT"})
		RecordPlanFailure("SPT", "deadlock")
	})
	assert.False(t, IsEnabled())
}

func TestRegister_WithoutRegistryIsNoOp(t *testing.T) {
	Registry = nil
	assert.NoError(t, NewPlanMetricsCollector().Register())
	assert.NoError(t, NewCommandMetricsCollector().Register())
}

func TestPrometheusMiddleware(t *testing.T) {
	// Arrange
	withRegistry(t)
	collector := NewCommandMetricsCollector()
	require.NoError(t, collector.Register())
	middleware := PrometheusMiddleware(collector)

	ok := func(ctx context.Context, request mediator.Request) (mediator.Response, error) { return "done", nil }
	fail := func(ctx context.Context, request mediator.Request) (mediator.Response, error) { return nil, errors.New("boom") }
	reject := func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
		return nil, shared.NewConfigurationError("heuristic", "unknown heuristic \"FIFO\"")
	}

	// Act
	resp, err := middleware(context.Background(), &sampleCommand{}, ok)
	require.NoError(t, err)
	_, failErr := middleware(context.Background(), &sampleCommand{}, fail)
	_, rejectErr := middleware(context.Background(), &sampleCommand{}, reject)

	// Assert
	assert.Equal(t, "done", resp)
	assert.Error(t, failErr)
	assert.Error(t, rejectErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("sampleCommand", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("sampleCommand", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.requestsTotal.WithLabelValues("sampleCommand", "rejected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.inFlight))
}

func TestRequestName(t *testing.T) {
	assert.Equal(t, "sampleCommand", requestName(&sampleCommand{}))
	assert.Equal(t, "Unknown", requestName(nil))
}

func TestHandler_ServesRegistry(t *testing.T) {
	withRegistry(t)
	collector := NewPlanMetricsCollector()
	require.NoError(t, collector.Register())
	collector.RecordPlanRun(PlanRunInfo{Heuristic: "SPT", Outcome: "SCHEDULED", Jobs: 1, MakespanSeconds: 60, Iterations: 2})

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "upgrade_planner_planner_plans_total"))
}
