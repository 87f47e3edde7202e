package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterPrefix = "bstviz/app"

var (
	once sync.Once
)

type appStats struct {
	ctx              context.Context
	shutdownCallback func(ctx context.Context) error
	goroutines       metric.Int64ObservableUpDownCounter
	processes        metric.Int64ObservableUpDownCounter
}

func (stats *appStats) waitForShutdown() {
	if stats == nil || stats.shutdownCallback == nil {
		return
	}
	go func() {
		<-stats.ctx.Done()
		_ = stats.shutdownCallback(context.Background())
	}()
}

func MeterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString(meterPrefix)
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitAppStats registers the process level instruments once. The shutdown
// callback, if any, runs when ctx is done.
func InitAppStats(ctx context.Context, name string, shutdown func(ctx context.Context) error) {
	once.Do(func() {
		meter := otel.Meter(
			MeterName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		stats := &appStats{
			ctx:              ctx,
			shutdownCallback: shutdown,
			goroutines: lo.Must(meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must(meter.Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription(`The application processes' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
		}
		_ = otelruntime.Start()
		stats.waitForShutdown()
	})
}

// StepStats groups the instruments fed by the tree explainers and the
// session runner.
type StepStats struct {
	steps      metric.Int64Counter
	terminals  metric.Int64Counter
	pauses     metric.Float64Histogram
	operations metric.Int64Counter
}

// NewStepStats panics if the meter rejects an instrument definition.
func NewStepStats(meter metric.Meter) *StepStats {
	if meter == nil {
		meter = otel.Meter(MeterName("steps"))
	}
	return &StepStats{
		steps: lo.Must(meter.Int64Counter(
			"tree.steps",
			metric.WithDescription("Explained algorithm steps."),
		)),
		terminals: lo.Must(meter.Int64Counter(
			"tree.steps.terminal",
			metric.WithDescription("Steps that ended an operation."),
		)),
		pauses: lo.Must(meter.Float64Histogram(
			"tree.step.pause",
			metric.WithDescription("Time an operation stayed suspended on a step."),
			metric.WithUnit("ms"),
		)),
		operations: lo.Must(meter.Int64Counter(
			"tree.operations",
			metric.WithDescription("Completed tree operations."),
		)),
	}
}

func (s *StepStats) RecordStep(ctx context.Context, kind string, terminal bool) {
	attrs := metric.WithAttributes(attribute.String("tree", kind))
	s.steps.Add(ctx, 1, attrs)
	if terminal {
		s.terminals.Add(ctx, 1, attrs)
	}
}

func (s *StepStats) RecordPause(ctx context.Context, kind string, d time.Duration) {
	s.pauses.Record(ctx, float64(d)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("tree", kind)),
	)
}

func (s *StepStats) RecordOperation(ctx context.Context, kind, op string, err error) {
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tree", kind),
		attribute.String("op", op),
		attribute.Bool("failed", err != nil),
	))
}
