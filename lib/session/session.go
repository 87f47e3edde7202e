// Package session runs the tree operations one at a time on a dedicated
// worker goroutine, so the caller stays free to drive the explainer.
package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/bstviz/lib/tree"
	"github.com/benz9527/bstviz/observability"
	"github.com/benz9527/bstviz/xlog"
)

var (
	ErrBusy   = errors.New("[session] an operation is in flight")
	ErrClosed = errors.New("[session] closed")
)

type Op uint8

const (
	OpInsert Op = iota
	OpRemove
	OpTraverse
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpTraverse:
		return "traverse"
	default:
	}
	return "unknown"
}

// Result is delivered exactly once per accepted operation.
type Result struct {
	Op    Op
	Value int
	Order tree.Order
	// Values is the traversal output.
	Values []int
	Err    error
	// Violation is set by the invariant check enabled with WithValidation.
	Violation error
}

type Option func(*Session)

func WithExplainer(e tree.Explainer) Option {
	return func(s *Session) {
		s.explainer = e
	}
}

func WithLogger(l xlog.XLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithValidation(enabled bool) Option {
	return func(s *Session) {
		s.validate = enabled
	}
}

func WithStats(stats *observability.StepStats) Option {
	return func(s *Session) {
		s.stats = stats
	}
}

// Session owns the active tree. At most one operation runs at a time, a
// second submission fails fast with ErrBusy.
type Session struct {
	lock      sync.Mutex
	pool      *ants.Pool
	tree      tree.Tree
	explainer tree.Explainer
	logger    xlog.XLogger
	stats     *observability.StepStats
	validate  bool
	known     []int
	busy      atomic.Bool
	closed    atomic.Bool
}

func New(kind tree.Kind, opts ...Option) (*Session, error) {
	s := &Session{
		logger: xlog.NewNopXLogger(),
		known:  make([]int, 0, 32),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	s.logger = s.logger.Named("session")
	t, err := s.newTree(kind)
	if err != nil {
		return nil, err
	}
	s.tree = t

	// A single worker, the pool blocks only for the short hand-over of the
	// worker between two operations.
	p, err := ants.NewPool(1,
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(s.logger)),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[session] worker pool")
	}
	s.pool = p
	return s, nil
}

func (s *Session) newTree(kind tree.Kind) (tree.Tree, error) {
	return tree.New(kind,
		tree.WithExplainer(s.explainer),
		tree.WithLogger(s.logger.Named(kind.String())),
	)
}

func (s *Session) Kind() tree.Kind {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tree.Kind()
}

// Known returns the values the caller knows to be in the tree, ascending.
func (s *Session) Known() []int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return slices.Clone(s.known)
}

func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Snapshot is only available between operations, a running operation
// exposes the tree through its steps.
func (s *Session) Snapshot() ([]tree.NodeView, error) {
	if !s.acquire() {
		return nil, s.rejection()
	}
	defer s.busy.Store(false)
	return s.tree.Snapshot(), nil
}

func (s *Session) Len() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tree.Len()
}

// Reset discards the tree wholesale and starts an empty one of kind.
func (s *Session) Reset(kind tree.Kind) error {
	if !s.acquire() {
		return s.rejection()
	}
	defer s.busy.Store(false)
	t, err := s.newTree(kind)
	if err != nil {
		return err
	}
	s.lock.Lock()
	s.tree = t
	s.known = s.known[:0]
	s.lock.Unlock()
	s.logger.Info("tree reset", zap.String("tree", kind.String()))
	return nil
}

func (s *Session) Insert(value int) (<-chan Result, error) {
	return s.submit(Result{Op: OpInsert, Value: value})
}

func (s *Session) Remove(value int) (<-chan Result, error) {
	return s.submit(Result{Op: OpRemove, Value: value})
}

func (s *Session) Traverse(order tree.Order) (<-chan Result, error) {
	return s.submit(Result{Op: OpTraverse, Order: order})
}

// Close waits for nothing, an operation still suspended on a step keeps
// its worker until the explainer resumes it.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.pool.Release()
	}
}

func (s *Session) acquire() bool {
	return !s.closed.Load() && s.busy.CompareAndSwap(false, true)
}

func (s *Session) rejection() error {
	if s.closed.Load() {
		return ErrClosed
	}
	return ErrBusy
}

func (s *Session) submit(req Result) (<-chan Result, error) {
	if !s.acquire() {
		return nil, errors.Wrapf(s.rejection(), "%s %d", req.Op, req.Value)
	}
	out := make(chan Result, 1)
	err := s.pool.Submit(func() {
		res := s.run(req)
		s.busy.Store(false)
		out <- res
	})
	if err != nil {
		s.busy.Store(false)
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrClosed
		}
		return nil, errors.Wrap(err, "[session] submit")
	}
	return out, nil
}

func (s *Session) run(req Result) (res Result) {
	res = req
	s.lock.Lock()
	t := s.tree
	s.lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.AssertionFailedf("[session] %s %d aborted: %v", req.Op, req.Value, r)
			s.logger.ErrorStack(res.Err, "operation aborted", zap.String("op", req.Op.String()))
		}
		if s.stats != nil {
			s.stats.RecordOperation(context.Background(), t.Kind().String(), req.Op.String(), res.Err)
		}
	}()

	switch req.Op {
	case OpInsert:
		res.Err = t.Insert(req.Value)
	case OpRemove:
		res.Err = t.Remove(req.Value)
	case OpTraverse:
		res.Values = slices.Collect(tree.Traverse(t, req.Order))
	default:
		res.Err = errors.AssertionFailedf("[session] unknown op %d", req.Op)
	}
	if res.Err != nil {
		s.logger.Warn("operation rejected",
			zap.String("op", req.Op.String()),
			zap.Int("value", req.Value),
			zap.Error(res.Err),
		)
		return res
	}

	s.lock.Lock()
	switch req.Op {
	case OpInsert:
		s.known = lo.Uniq(append(s.known, req.Value))
		slices.Sort(s.known)
	case OpRemove:
		s.known = lo.Without(s.known, req.Value)
	case OpTraverse:
		s.known = lo.Uniq(res.Values)
		slices.Sort(s.known)
	default:
	}
	s.lock.Unlock()

	if s.validate {
		if err := tree.Validate(t); err != nil {
			res.Violation = err
			s.logger.ErrorStack(err, "tree invariants violated",
				zap.String("tree", t.Kind().String()),
				zap.String("op", req.Op.String()),
				zap.Int("value", req.Value),
			)
		}
	}
	return res
}
