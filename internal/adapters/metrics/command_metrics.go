package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

// Request outcomes used as the status label
const (
	statusSuccess  = "success"
	statusRejected = "rejected"
	statusError    = "error"
)

// CommandMetricsCollector tracks planner requests passing through the mediator
type CommandMetricsCollector struct {
	handlerSeconds *prometheus.HistogramVec
	requestsTotal  *prometheus.CounterVec
	inFlight       prometheus.Gauge
}

// NewCommandMetricsCollector creates the collector; call Register before use
func NewCommandMetricsCollector() *CommandMetricsCollector {
	return &CommandMetricsCollector{
		// Small bases plan in well under a millisecond, a full home village in tens of ms
		handlerSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "request_duration_seconds",
				Help:      "Time spent in a planner request handler",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 2},
			},
			[]string{"request", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Planner requests handled, by request type and outcome",
			},
			[]string{"request", "status"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_in_flight",
			Help:      "Planner requests currently being handled",
		}),
	}
}

// Register adds the collector's series to Registry. A nil Registry means metrics are off.
func (c *CommandMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}
	for _, col := range []prometheus.Collector{c.handlerSeconds, c.requestsTotal, c.inFlight} {
		if err := Registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// RecordRequest stores one handled request. Bad caller input counts as rejected, not error.
func (c *CommandMetricsCollector) RecordRequest(request string, seconds float64, err error) {
	status := requestStatus(err)
	c.handlerSeconds.WithLabelValues(request, status).Observe(seconds)
	c.requestsTotal.WithLabelValues(request, status).Inc()
}

func requestStatus(err error) string {
	if err == nil {
		return statusSuccess
	}
	var cfgErr *shared.ConfigurationError
	var valErr *shared.ValidationError
	if errors.As(err, &cfgErr) || errors.As(err, &valErr) {
		return statusRejected
	}
	return statusError
}
