package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxXLogger routes the fx lifecycle events into the xlog output.
// Successful wiring events are debug entries, failures are errors.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "start hook failed",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
			)
			return
		}
		l.logger.Debug("start hook done",
			zap.String("function", e.FunctionName),
			zap.Duration("in", e.Runtime),
		)
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.logger.Error(e.Err, "stop hook failed",
				zap.String("function", e.FunctionName),
				zap.String("caller", e.CallerName),
			)
			return
		}
		l.logger.Debug("stop hook done",
			zap.String("function", e.FunctionName),
			zap.Duration("in", e.Runtime),
		)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "supply failed", zap.String("type", e.TypeName))
			return
		}
		l.logger.Debug("supplied", zap.String("type", e.TypeName))
	case *fxevent.Provided:
		if e.Err != nil {
			l.logger.Error(e.Err, "provide failed", zap.String("constructor", e.ConstructorName))
			return
		}
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("provided",
				zap.String("type", rtype),
				zap.String("constructor", e.ConstructorName),
			)
		}
	case *fxevent.Decorated:
		if e.Err != nil {
			l.logger.Error(e.Err, "decorate failed", zap.String("decorator", e.DecoratorName))
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "invoke failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("stopping", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "stop failed")
		}
	case *fxevent.RollingBack:
		l.logger.Warn("start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "rollback failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "start failed")
			return
		}
		l.logger.Debug("running")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "custom logger init failed")
		}
	default:
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: componentLogger(logger, "Fx")}
}
