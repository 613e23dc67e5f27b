package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all metrics
	namespace = "upgrade_planner"
	// Subsystem for planner metrics
	subsystem = "planner"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalPlanCollector is the singleton plan metrics collector.
	// Set by SetGlobalPlanCollector() when metrics are enabled
	globalPlanCollector PlanMetricsRecorder
)

// PlanRunInfo describes one finished planning run for metrics purposes
type PlanRunInfo struct {
	Heuristic       string
	Outcome         string
	MakespanSeconds int64
	Jobs            int
	Warnings        int
	Iterations      int
}

// PlanMetricsRecorder defines the interface for recording planning events.
// Application code records through the package-level helpers so metrics stay optional.
type PlanMetricsRecorder interface {
	RecordPlanRun(info PlanRunInfo)
	RecordPlanFailure(heuristic, reason string)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// Handler serves the global registry, or an empty 404 handler when metrics are disabled
func Handler() http.Handler {
	if Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// SetGlobalPlanCollector sets the global plan metrics collector
func SetGlobalPlanCollector(collector PlanMetricsRecorder) {
	globalPlanCollector = collector
}

// RecordPlanRun records a finished planning run globally
func RecordPlanRun(info PlanRunInfo) {
	if globalPlanCollector != nil {
		globalPlanCollector.RecordPlanRun(info)
	}
}

// RecordPlanFailure records a planning run that ended in an error globally
func RecordPlanFailure(heuristic, reason string) {
	if globalPlanCollector != nil {
		globalPlanCollector.RecordPlanFailure(heuristic, reason)
	}
}
