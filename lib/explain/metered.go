package explain

import (
	"context"
	"time"

	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/observability"
)

type metered struct {
	next  tree.Explainer
	stats *observability.StepStats
}

// Metered counts the steps handed to next and records how long each of
// them kept the operation suspended.
func Metered(next tree.Explainer, stats *observability.StepStats) tree.Explainer {
	if stats == nil {
		return next
	}
	return &metered{next: next, stats: stats}
}

func (m *metered) Show(step tree.Step) <-chan struct{} {
	kind := step.Kind.String()
	m.stats.RecordStep(context.Background(), kind, step.Terminal)
	start := time.Now()
	token := m.next.Show(step)
	if token == nil {
		m.stats.RecordPause(context.Background(), kind, 0)
		return nil
	}
	out := make(chan struct{})
	go func() {
		<-token
		m.stats.RecordPause(context.Background(), kind, time.Since(start))
		close(out)
	}()
	return out
}
