package tree

import (
	"fmt"
	"iter"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/benz9527/bstviz/xlog"
)

var resolvedToken = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

type noopExplainer struct{}

func (noopExplainer) Show(Step) <-chan struct{} {
	return resolvedToken
}

// stepper carries the machinery shared by every tree variant: the node
// arena, the step protocol and the traversals.
type stepper struct {
	*arena
	kind       Kind
	explainer  Explainer
	logger     xlog.XLogger
	highlights []Highlight
	count      atomic.Int64
	opCounter  atomic.Uint64
}

type Option func(*stepper)

func WithExplainer(e Explainer) Option {
	return func(s *stepper) {
		if e != nil {
			s.explainer = e
		}
	}
}

func WithLogger(l xlog.XLogger) Option {
	return func(s *stepper) {
		if l != nil {
			s.logger = l
		}
	}
}

func newStepper(kind Kind, opts ...Option) *stepper {
	s := &stepper{
		arena:      newArena(),
		kind:       kind,
		explainer:  noopExplainer{},
		highlights: make([]Highlight, 0, 8),
	}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	if s.logger == nil {
		s.logger = xlog.NewNopXLogger()
	}
	return s
}

func (s *stepper) Kind() Kind {
	return s.kind
}

func (s *stepper) Len() int64 {
	return s.count.Load()
}

func (s *stepper) OperationCounter() uint64 {
	return s.opCounter.Load()
}

func (s *stepper) Contains(value int) bool {
	return s.search(s.root, value) != NilNode
}

func (s *stepper) Snapshot() []NodeView {
	return s.snapshot(nil)
}

func (s *stepper) highlight(id NodeID, tag HighlightTag) {
	s.highlights = append(s.highlights, Highlight{
		Node:  id,
		Value: s.value(id),
		Empty: s.isSentinel(id),
		Tag:   tag,
	})
}

// explainStep is the only suspension point of every operation.
func (s *stepper) explainStep(title, body string, terminal bool) {
	seq := s.opCounter.Add(1)
	var tags map[NodeID]HighlightTag
	if len(s.highlights) > 0 {
		tags = make(map[NodeID]HighlightTag, len(s.highlights))
		for _, h := range s.highlights {
			if !h.Empty {
				tags[h.Node] = h.Tag
			}
		}
	}
	step := Step{
		Seq:        seq,
		Kind:       s.kind,
		Title:      title,
		Body:       body,
		Terminal:   terminal,
		Highlights: slices.Clone(s.highlights),
		Nodes:      s.snapshot(tags),
	}
	if token := s.explainer.Show(step); token != nil {
		<-token
	}
	clear(s.highlights)
	s.highlights = s.highlights[:0]
}

// explainNavigation explains one comparison while descending and returns
// the child to visit next.
func (s *stepper) explainNavigation(target int, from NodeID) NodeID {
	v := s.value(from)
	next, dir, rel := s.right(from), Right, "greater than"
	if target < v {
		next, dir, rel = s.left(from), Left, "smaller than"
	}
	s.highlight(from, TagCurrent)
	s.highlight(next, TagNext)
	body := fmt.Sprintf("%d is %s %d, continue with the %s child of %d.", target, rel, v, dir, v)
	if s.isSentinel(next) {
		body = fmt.Sprintf("%d is %s %d, the %s child of %d is empty.", target, rel, v, dir, v)
	}
	s.explainStep(fmt.Sprintf("Compare %d with %d", target, v), body, false)
	return next
}

// addNodeNaive places value at the sentinel found by a plain BST descent.
func (s *stepper) addNodeNaive(value int, c Color, terminal bool) NodeID {
	aux := s.root
	for !s.isSentinel(aux) {
		aux = s.explainNavigation(value, aux)
	}
	s.fill(aux, value, c)
	s.count.Add(1)

	s.highlight(aux, TagFocus)
	if p := s.parent(aux); p == NilNode {
		s.explainStep(
			"Position found",
			fmt.Sprintf("The tree is empty, %d becomes the root.", value),
			terminal,
		)
	} else {
		s.explainStep(
			"Position found",
			fmt.Sprintf("%d is inserted as the %s child of %d.", value, s.direction(aux), s.value(p)),
			terminal,
		)
	}
	return aux
}

// descend walks down from the given node until value is found, explaining
// every comparison. It returns a sentinel if value is absent.
func (s *stepper) descend(from NodeID, value int) NodeID {
	aux := from
	for !s.isSentinel(aux) && s.value(aux) != value {
		aux = s.explainNavigation(value, aux)
	}
	return aux
}

func (s *stepper) finish(op string, value int) {
	s.opCounter.Add(1)
	s.logger.Debug("tree operation done",
		zap.String("tree", s.kind.String()),
		zap.String("op", op),
		zap.Int("value", value),
		zap.Int64("size", s.count.Load()),
		zap.Uint64("counter", s.opCounter.Load()),
	)
}

func (s *stepper) TraversePreOrder() iter.Seq[int] {
	return s.traverse(PreOrder)
}

func (s *stepper) TraverseInOrder() iter.Seq[int] {
	return s.traverse(InOrder)
}

func (s *stepper) TraversePostOrder() iter.Seq[int] {
	return s.traverse(PostOrder)
}

// traverse never mutates the tree. The final step is shown even if the
// consumer stops early.
func (s *stepper) traverse(order Order) iter.Seq[int] {
	return func(yield func(int) bool) {
		emitted := 0
		done := s.walk(s.root, order, func(v int) bool {
			emitted++
			return yield(v)
		})
		body := fmt.Sprintf("%d value(s) were added to the output.", emitted)
		if !done {
			body = fmt.Sprintf("Stopped after %d value(s).", emitted)
		}
		s.explainStep(fmt.Sprintf("Traversal complete (%s)", order), body, true)
	}
}

func (s *stepper) walk(id NodeID, order Order, yield func(int) bool) bool {
	if s.isSentinel(id) {
		return true
	}
	v := s.value(id)
	visit := func() bool {
		s.highlight(id, TagFocus)
		s.explainStep(fmt.Sprintf("Add %d", v), fmt.Sprintf("%d is added to the %s output.", v, order), false)
		return yield(v)
	}
	visitChild := func(dir Direction) bool {
		c := s.child(id, dir)
		if s.isSentinel(c) {
			return true
		}
		s.highlight(id, TagCurrent)
		s.highlight(c, TagNext)
		s.explainStep(
			fmt.Sprintf("Visit the %s child of %d", dir, v),
			fmt.Sprintf("Descend into the %s subtree rooted at %d.", dir, s.value(c)),
			false,
		)
		return s.walk(c, order, yield)
	}

	switch order {
	case PreOrder:
		return visit() && visitChild(Left) && visitChild(Right)
	case PostOrder:
		return visitChild(Left) && visitChild(Right) && visit()
	default:
	}
	return visitChild(Left) && visit() && visitChild(Right)
}
