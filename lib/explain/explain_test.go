package explain

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/observability"
	"github.com/benz9527/bstviz/xlog"
)

func TestInteractive_StepByStep(t *testing.T) {
	e := NewInteractive()
	tr := tree.NewNaiveTree(tree.WithExplainer(e))
	require.False(t, e.Next())

	done := make(chan error, 1)
	go func() {
		done <- tr.Insert(5)
	}()
	step := <-e.Steps()
	require.Equal(t, "Position found", step.Title)
	require.True(t, step.Terminal)
	require.True(t, e.Pending())
	select {
	case <-done:
		t.Fatal("operation resumed without Next")
	case <-time.After(20 * time.Millisecond):
	}
	require.True(t, e.Next())
	require.NoError(t, <-done)
	require.False(t, e.Pending())
	require.False(t, e.Next())

	go func() {
		done <- tr.Insert(3)
	}()
	titles := make([]string, 0, 2)
	for len(titles) < 2 {
		titles = append(titles, (<-e.Steps()).Title)
		require.True(t, e.Next())
	}
	require.NoError(t, <-done)
	require.Equal(t, []string{"Compare 3 with 5", "Position found"}, titles)
	require.Equal(t, int64(2), tr.Len())
}

func TestInteractive_LatestStepWins(t *testing.T) {
	e := NewInteractive()
	first := e.Show(tree.Step{Seq: 1, Title: "first"})
	second := e.Show(tree.Step{Seq: 2, Title: "second"})
	require.Equal(t, "second", (<-e.Steps()).Title)
	require.True(t, e.Next())
	<-second
	select {
	case <-first:
		t.Fatal("a replaced token must not resolve")
	default:
	}
}

func TestAuto(t *testing.T) {
	a := NewAuto(15 * time.Millisecond)
	require.Equal(t, 15*time.Millisecond, a.Delay())
	tr := tree.NewRedBlackTree(tree.WithExplainer(a))

	start := time.Now()
	require.NoError(t, tr.Insert(1))
	// Position found and the root repaint.
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	a.SetDelay(0)
	start = time.Now()
	for _, v := range []int{2, 3, 4, 5, 6} {
		require.NoError(t, tr.Insert(v))
	}
	require.Less(t, time.Since(start), time.Second)
	require.NoError(t, tree.Validate(tr))
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	tr := tree.NewNaiveTree(tree.WithExplainer(rec))
	for _, v := range []int{5, 3, 8} {
		require.NoError(t, tr.Insert(v))
	}
	require.Equal(t, []string{
		"Position found",
		"Compare 3 with 5",
		"Position found",
		"Compare 8 with 5",
		"Position found",
	}, rec.Titles())

	steps := rec.Steps()
	require.Len(t, steps, 5)
	require.Len(t, steps[4].Nodes, 3)
	rec.Reset()
	require.Empty(t, rec.Titles())
	require.Len(t, steps, 5)
}

func TestLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.LogLevelInfo),
		xlog.WithXLoggerEncoder(xlog.JSON),
		xlog.WithXLoggerWriter(buf),
	)
	rec := NewRecorder()
	tr := tree.NewNaiveTree(tree.WithExplainer(Logged(rec, logger)))
	require.NoError(t, tr.Insert(5))
	require.NoError(t, tr.Insert(3))

	out := buf.String()
	require.Equal(t, 2, strings.Count(out, `"msg":"Position found"`))
	require.NotContains(t, out, "Compare 3 with 5")
	require.Contains(t, out, `"tree":"naive"`)
	require.Len(t, rec.Steps(), 3)

	require.Equal(t, tree.Explainer(rec), Logged(rec, nil))
}

func TestMetered(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() {
		_ = mp.Shutdown(context.Background())
	}()
	stats := observability.NewStepStats(mp.Meter("test"))

	rec := NewRecorder()
	tr := tree.NewRedBlackTree(tree.WithExplainer(Metered(rec, stats)))
	for _, v := range []int{1, 2, 3} {
		require.NoError(t, tr.Insert(v))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sums := make(map[string]int64)
	pauses := uint64(0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					pauses += dp.Count
				}
			default:
			}
		}
	}
	require.Equal(t, int64(len(rec.Steps())), sums["tree.steps"])
	require.Equal(t, int64(3), sums["tree.steps.terminal"])
	require.Equal(t, uint64(len(rec.Steps())), pauses)

	require.Equal(t, tree.Explainer(rec), Metered(rec, nil))
}

func TestMetered_NilToken(t *testing.T) {
	stats := observability.NewStepStats(sdkmetric.NewMeterProvider().Meter("test"))
	e := Metered(tree.ExplainerFunc(func(tree.Step) <-chan struct{} {
		return nil
	}), stats)
	require.Nil(t, e.Show(tree.Step{Title: "nil"}))
}
