package analyzer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	outcomeSuccess = "success"
	outcomeStatus  = "http_error"
	outcomeTimeout = "timeout"
	outcomeNetwork = "network_error"
)

type checkMetrics struct {
	checks   metric.Int64Counter
	duration metric.Float64Histogram
}

func newCheckMetrics(meter metric.Meter) (*checkMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("analyzer")
	}
	checks, err := meter.Int64Counter("page_checks",
		metric.WithDescription("Page checks by outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("page_check_duration_seconds",
		metric.WithDescription("Duration of page fetch and extraction"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &checkMetrics{checks: checks, duration: duration}, nil
}

func (m *checkMetrics) record(ctx context.Context, outcome string, started time.Time) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.checks.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(started).Seconds(), attrs)
}
