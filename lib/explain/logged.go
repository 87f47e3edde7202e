package explain

import (
	"go.uber.org/zap"

	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/xlog"
)

type logged struct {
	next   tree.Explainer
	logger xlog.XLogger
}

// Logged writes every step to the logger before handing it to next.
// Terminal steps are logged at info level, the others at debug level.
func Logged(next tree.Explainer, logger xlog.XLogger) tree.Explainer {
	if logger == nil {
		return next
	}
	return &logged{next: next, logger: logger}
}

func (l *logged) Show(step tree.Step) <-chan struct{} {
	fields := []zap.Field{
		zap.Uint64("seq", step.Seq),
		zap.String("tree", step.Kind.String()),
		zap.String("body", step.Body),
		zap.Int("highlights", len(step.Highlights)),
		zap.Int("nodes", len(step.Nodes)),
	}
	if step.Terminal {
		l.logger.Info(step.Title, fields...)
	} else {
		l.logger.Debug(step.Title, fields...)
	}
	return l.next.Show(step)
}
