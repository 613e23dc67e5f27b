package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
)

// PrometheusMiddleware times every mediator request. A nil collector turns it into a pass-through.
func PrometheusMiddleware(collector *CommandMetricsCollector) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		collector.inFlight.Inc()
		defer collector.inFlight.Dec()

		start := time.Now()
		response, err := next(ctx, request)
		collector.RecordRequest(requestName(request), time.Since(start).Seconds(), err)
		return response, err
	}
}

// requestName turns "*commands.GeneratePlanCommand" into "GeneratePlanCommand"
func requestName(request mediator.Request) string {
	if request == nil {
		return "Unknown"
	}
	name := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
