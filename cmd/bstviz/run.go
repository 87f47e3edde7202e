package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/bstviz/config"
	"github.com/benz9527/bstviz/lib/session"
	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/xlog"
)

type runOptions struct {
	configPath string
	inserts    []int
	removes    []int
	traverse   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "insert, remove and traverse values step by step",
		Long: `Runs the insertions, then the removals, then the optional traversal
on a fresh tree. Every algorithm step is printed. In auto mode the steps
follow each other after the configured delay, in interactive mode every
step waits for a new line on the standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}
	fs := cmd.Flags()
	fs.String("tree", tree.RedBlack.String(), "tree variant: naive or redblack")
	fs.String("mode", config.AutoMode.String(), "step mode: auto or interactive")
	fs.Duration("delay", 300*time.Millisecond, "delay between two steps in auto mode")
	fs.String("log-level", xlog.LogLevelInfo.String(), "DEBUG, INFO, WARN or ERROR")
	fs.Bool("validate", false, "check the tree invariants after every operation")
	fs.StringVar(&opts.configPath, "config", "", "configuration file (toml, yaml or json)")
	fs.IntSliceVar(&opts.inserts, "insert", nil, "values to insert, in order")
	fs.IntSliceVar(&opts.removes, "remove", nil, "values to remove after the insertions")
	fs.StringVar(&opts.traverse, "traverse", "", "final traversal: pre, in or post")
	return cmd
}

func run(cmd *cobra.Command, opts *runOptions) error {
	loader, err := config.Load(config.WithFile(opts.configPath), config.WithFlags(cmd.Flags()))
	if err != nil {
		return err
	}
	cfg := loader.Config()

	var order *tree.Order
	if opts.traverse != "" {
		o, err := tree.ParseOrder(opts.traverse)
		if err != nil {
			return err
		}
		order = &o
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	defer func() {
		_ = logger.Sync()
	}()
	logger.Banner(banner{})
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Logf(zapcore.DebugLevel, format, args...)
	}))
	if err != nil {
		logger.Warn("GOMAXPROCS left unchanged", zap.Error(err))
	}
	defer undo()

	var r *runner
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Supply(cfg, streams{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}),
		fx.Provide(
			func() xlog.XLogger { return logger },
			func() *config.Loader { return loader },
			newStepStats,
			newDriver,
			newSession,
			newRunner,
		),
		fx.Populate(&r),
	)
	if err := app.Err(); err != nil {
		return errors.Wrap(err, "[bstviz] wiring")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return err
	}
	runErr := r.execute(opts.inserts, opts.removes, order)
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return errors.CombineErrors(runErr, app.Stop(stopCtx))
}

type runner struct {
	sess   *session.Session
	driver *driver
	out    io.Writer
	logger xlog.XLogger
}

func newRunner(s *session.Session, d *driver, st streams, logger xlog.XLogger) *runner {
	return &runner{sess: s, driver: d, out: st.out, logger: logger}
}

func (r *runner) execute(inserts, removes []int, order *tree.Order) error {
	fmt.Fprintf(r.out, "tree: %s\n", r.sess.Kind())
	for _, v := range inserts {
		if err := r.do(r.sess.Insert, v); err != nil {
			return err
		}
	}
	for _, v := range removes {
		if err := r.do(r.sess.Remove, v); err != nil {
			return err
		}
	}
	if order != nil {
		ch, err := r.sess.Traverse(*order)
		if err != nil {
			return err
		}
		res := r.driver.await(ch)
		fmt.Fprintf(r.out, "%s: %s\n", *order, joinInts(res.Values))
	}
	views, err := r.sess.Snapshot()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "size: %d, values: [%s]\n", r.sess.Len(), joinInts(r.sess.Known()))
	renderTable(r.out, views)
	return nil
}

func (r *runner) do(op func(int) (<-chan session.Result, error), v int) error {
	ch, err := op(v)
	if err != nil {
		return err
	}
	res := r.driver.await(ch)
	if res.Err != nil {
		// Rejected values leave the tree untouched, keep going.
		fmt.Fprintf(r.out, "%s %d rejected: %v\n", res.Op, v, res.Err)
	}
	if res.Violation != nil {
		r.logger.ErrorStack(res.Violation, "invariant violation", zap.String("op", res.Op.String()))
		return res.Violation
	}
	return nil
}

func joinInts(values []int) string {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, strconv.Itoa(v))
	}
	return strings.Join(strs, " ")
}

func renderTable(w io.Writer, views []tree.NodeView) {
	values := make(map[tree.NodeID]int, len(views))
	for _, v := range views {
		values[v.ID] = v.Value
	}
	ref := func(id tree.NodeID) string {
		if v, ok := values[id]; ok {
			return strconv.Itoa(v)
		}
		return "-"
	}
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Value", "Color", "Depth", "Parent", "Left", "Right"})
	for _, v := range views {
		tbl.Append([]string{
			strconv.Itoa(v.Value),
			v.Color.String(),
			strconv.Itoa(v.Depth),
			ref(v.Parent),
			ref(v.Left),
			ref(v.Right),
		})
	}
	tbl.Render()
}
