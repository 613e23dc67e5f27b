package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PlanMetricsCollector handles planning run metrics
type PlanMetricsCollector struct {
	plansTotal    *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	makespan      *prometheus.HistogramVec
	jobs          *prometheus.HistogramVec
	iterations    prometheus.Histogram
	warnings      prometheus.Counter
}

// NewPlanMetricsCollector creates a new plan metrics collector
func NewPlanMetricsCollector() *PlanMetricsCollector {
	return &PlanMetricsCollector{
		plansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plans_total",
				Help:      "Total number of planning runs by heuristic and outcome",
			},
			[]string{"heuristic", "outcome"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plan_failures_total",
				Help:      "Planning runs that ended in an error, by heuristic and reason",
			},
			[]string{"heuristic", "reason"},
		),

		// Makespans range from minutes (low halls) to months (maxed bases)
		makespan: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "makespan_seconds",
				Help:      "Makespan of generated plans",
				Buckets:   []float64{3600, 6 * 3600, 86400, 3 * 86400, 7 * 86400, 14 * 86400, 30 * 86400, 60 * 86400, 120 * 86400},
			},
			[]string{"heuristic"},
		),

		jobs: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_per_plan",
				Help:      "Number of scheduled jobs per plan",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"heuristic"},
		),

		iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "scheduler_iterations",
				Help:      "Event-loop iterations used by the scheduler per plan",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),

		warnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warnings_total",
				Help:      "Recovered planning warnings such as missing catalog entries",
			},
		),
	}
}

// Register registers all plan metrics with the Prometheus registry
func (c *PlanMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	collectors := []prometheus.Collector{
		c.plansTotal,
		c.failuresTotal,
		c.makespan,
		c.jobs,
		c.iterations,
		c.warnings,
	}

	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordPlanRun records a finished planning run
func (c *PlanMetricsCollector) RecordPlanRun(info PlanRunInfo) {
	c.plansTotal.WithLabelValues(info.Heuristic, info.Outcome).Inc()
	if info.Warnings > 0 {
		c.warnings.Add(float64(info.Warnings))
	}
	if info.Jobs == 0 {
		return
	}
	c.makespan.WithLabelValues(info.Heuristic).Observe(float64(info.MakespanSeconds))
	c.jobs.WithLabelValues(info.Heuristic).Observe(float64(info.Jobs))
	c.iterations.Observe(float64(info.Iterations))
}

// RecordPlanFailure records a failed planning run
func (c *PlanMetricsCollector) RecordPlanFailure(heuristic, reason string) {
	c.failuresTotal.WithLabelValues(heuristic, reason).Inc()
}
