package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/bstviz/config"
	"github.com/benz9527/bstviz/lib/explain"
	"github.com/benz9527/bstviz/lib/session"
	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/observability"
	"github.com/benz9527/bstviz/xlog"
)

type streams struct {
	in  io.Reader
	out io.Writer
}

func newLogger(cfg config.Config, w io.Writer) xlog.XLogger {
	lvl, _ := xlog.ParseLogLevel(cfg.Log.Level)
	enc, _ := xlog.ParseEncoder(cfg.Log.Encoder)
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(lvl),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerWriter(w),
	)
}

func newStepStats(lc fx.Lifecycle, cfg config.Config, logger xlog.XLogger) (*observability.StepStats, error) {
	kind, err := observability.ParseExporter(cfg.Metrics.Exporter)
	if err != nil {
		return nil, err
	}
	shutdown, err := observability.NewMetricsExporter(kind, cfg.Metrics.Interval)
	if err != nil {
		return nil, err
	}
	if kind != observability.NoneExporter {
		observability.InitAppStats(context.Background(), "cli", nil)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug("metrics exporter shutdown", zap.String("exporter", kind.String()))
			return shutdown(ctx)
		},
	})
	return observability.NewStepStats(nil), nil
}

// printer writes every step to the output before the observer decides
// when the operation resumes.
type printer struct {
	next tree.Explainer
	out  io.Writer
}

func (p *printer) Show(step tree.Step) <-chan struct{} {
	marker := ""
	if step.Terminal {
		marker = " *"
	}
	fmt.Fprintf(p.out, "[%3d] %s%s\n      %s\n", step.Seq, step.Title, marker, step.Body)
	return p.next.Show(step)
}

// driver resumes the suspended operations, either after the configured
// delay or on every line read from the input.
type driver struct {
	auto        *explain.Auto
	interactive *explain.Interactive
	explainer   tree.Explainer
	lines       chan struct{}
	out         io.Writer
}

func newDriver(cfg config.Config, loader *config.Loader, logger xlog.XLogger, stats *observability.StepStats, st streams) *driver {
	d := &driver{out: st.out}
	var base tree.Explainer
	if cfg.StepMode() == config.InteractiveMode {
		d.interactive = explain.NewInteractive()
		d.lines = make(chan struct{})
		go func() {
			defer close(d.lines)
			scanner := bufio.NewScanner(st.in)
			for scanner.Scan() {
				d.lines <- struct{}{}
			}
		}()
		base = d.interactive
	} else {
		d.auto = explain.NewAuto(cfg.Step.Delay)
		base = d.auto
	}
	d.explainer = explain.Metered(explain.Logged(&printer{next: base, out: st.out}, logger.Named("steps")), stats)

	loader.Watch(func(c config.Config, err error) {
		if err != nil {
			logger.Error(err, "configuration reload rejected")
			return
		}
		if d.auto != nil {
			d.auto.SetDelay(c.Step.Delay)
		}
		if lvl, err := zapcore.ParseLevel(c.Log.Level); err == nil {
			logger.IncreaseLogLevel(lvl)
		}
		logger.Info("configuration reloaded",
			zap.Duration("delay", c.Step.Delay),
			zap.String("level", c.Log.Level),
		)
	})
	return d
}

// await blocks until the operation behind ch is done. Once the input is
// exhausted the remaining steps run without pausing.
func (d *driver) await(ch <-chan session.Result) session.Result {
	if d.interactive == nil {
		return <-ch
	}
	for {
		select {
		case res := <-ch:
			return res
		case <-d.interactive.Steps():
			fmt.Fprint(d.out, "      (enter to continue)\n")
			<-d.lines
			d.interactive.Next()
		}
	}
}

func newSession(lc fx.Lifecycle, cfg config.Config, d *driver, logger xlog.XLogger, stats *observability.StepStats) (*session.Session, error) {
	s, err := session.New(cfg.TreeKind(),
		session.WithExplainer(d.explainer),
		session.WithLogger(logger),
		session.WithValidation(cfg.Session.Validate),
		session.WithStats(stats),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(s.Close))
	return s, nil
}
