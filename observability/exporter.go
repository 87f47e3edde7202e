package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type ExporterKind uint8

const (
	NoneExporter ExporterKind = iota
	ConsoleExporter
	PrometheusExporter
)

func (k ExporterKind) String() string {
	switch k {
	case ConsoleExporter:
		return "console"
	case PrometheusExporter:
		return "prometheus"
	default:
	}
	return "none"
}

var ErrUnknownExporter = errors.New("[observability] unknown metrics exporter")

func ParseExporter(s string) (ExporterKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return NoneExporter, nil
	case "console", "stdout":
		return ConsoleExporter, nil
	case "prometheus", "prom":
		return PrometheusExporter, nil
	default:
	}
	return NoneExporter, errors.Wrapf(ErrUnknownExporter, "%q", s)
}

// NewMetricsExporter installs the global meter provider of the given kind
// and returns its shutdown callback.
func NewMetricsExporter(kind ExporterKind, interval time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	switch kind {
	case ConsoleExporter:
		return newConsoleMetricsExporter(interval, interval, opts...)
	case PrometheusExporter:
		return newPrometheusMetricsExporter()
	case NoneExporter:
		return func(context.Context) error { return nil }, nil
	default:
	}
	return nil, errors.Wrapf(ErrUnknownExporter, "%d", kind)
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	if interval <= 0 {
		interval = 10 * time.Second
		timeout = interval
	}
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[observability] stdout exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (func(ctx context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, errors.Wrap(err, "[observability] prometheus exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
