package tree

import (
	"iter"
	"strings"

	"github.com/cockroachdb/errors"
)

type Color uint8

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Root:
		return "root"
	default:
	}
	return "unknown"
}

func (d Direction) opposite() Direction {
	return -d
}

type Kind uint8

const (
	Naive Kind = iota
	RedBlack
)

func (k Kind) String() string {
	switch k {
	case Naive:
		return "naive"
	case RedBlack:
		return "redblack"
	default:
	}
	return "unknown"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "naive", "bst", "unbalanced":
		return Naive, nil
	case "redblack", "red-black", "rb", "rbtree":
		return RedBlack, nil
	default:
	}
	return Naive, errors.Wrapf(ErrUnknownKind, "%q", s)
}

type Order uint8

const (
	PreOrder Order = iota
	InOrder
	PostOrder
)

func (o Order) String() string {
	switch o {
	case PreOrder:
		return "pre-order"
	case InOrder:
		return "in-order"
	case PostOrder:
		return "post-order"
	default:
	}
	return "unknown"
}

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pre", "preorder", "pre-order":
		return PreOrder, nil
	case "in", "inorder", "in-order":
		return InOrder, nil
	case "post", "postorder", "post-order":
		return PostOrder, nil
	default:
	}
	return InOrder, errors.Wrapf(ErrUnknownOrder, "%q", s)
}

var (
	ErrDuplicateValue = errors.New("[tree] value already present")
	ErrValueNotFound  = errors.New("[tree] value not found")
	ErrUnknownKind    = errors.New("[tree] unknown tree kind")
	ErrUnknownOrder   = errors.New("[tree] unknown traversal order")
)

// HighlightTag tells a renderer why a node takes part in the current step.
type HighlightTag uint8

const (
	TagNone HighlightTag = iota
	TagCurrent
	TagNext
	TagFocus
	TagSuccessor
	TagRotate
	TagRecolor
)

func (tag HighlightTag) String() string {
	switch tag {
	case TagCurrent:
		return "current"
	case TagNext:
		return "next"
	case TagFocus:
		return "focus"
	case TagSuccessor:
		return "successor"
	case TagRotate:
		return "rotate"
	case TagRecolor:
		return "recolor"
	default:
	}
	return "none"
}

// Highlight references a node taking part in a step. Value is captured when
// the highlight is added, so it survives the node being turned into a sentinel.
type Highlight struct {
	Node  NodeID
	Value int
	Empty bool
	Tag   HighlightTag
}

// NodeView is the read-only rendering hint of a single non-sentinel node.
// Left and Right are NilNode where the child is a sentinel.
type NodeView struct {
	ID     NodeID
	Parent NodeID
	Left   NodeID
	Right  NodeID
	Value  int
	Depth  int
	Color  Color
	Tag    HighlightTag
}

// Step is handed to the Explainer once per elementary algorithm step.
// Nodes holds the pre-order snapshot of the tree at the moment of the step.
type Step struct {
	Seq        uint64
	Kind       Kind
	Title      string
	Body       string
	Terminal   bool
	Highlights []Highlight
	Nodes      []NodeView
}

// Explainer receives every step of a running operation.
// The returned token must resolve exactly once (closed or a single send),
// the operation stays suspended until then. A nil token resumes at once.
type Explainer interface {
	Show(step Step) <-chan struct{}
}

type ExplainerFunc func(step Step) <-chan struct{}

func (fn ExplainerFunc) Show(step Step) <-chan struct{} {
	return fn(step)
}

// Tree is the operation set shared by all the tree variants.
// Implementations are not safe for concurrent use, one operation at a time.
type Tree interface {
	Kind() Kind
	Len() int64
	OperationCounter() uint64
	Contains(value int) bool
	Snapshot() []NodeView
	Insert(value int) error
	Remove(value int) error
	TraversePreOrder() iter.Seq[int]
	TraverseInOrder() iter.Seq[int]
	TraversePostOrder() iter.Seq[int]
}

func Traverse(t Tree, order Order) iter.Seq[int] {
	switch order {
	case PreOrder:
		return t.TraversePreOrder()
	case PostOrder:
		return t.TraversePostOrder()
	default:
	}
	return t.TraverseInOrder()
}

func New(kind Kind, opts ...Option) (Tree, error) {
	switch kind {
	case Naive:
		return NewNaiveTree(opts...), nil
	case RedBlack:
		return NewRedBlackTree(opts...), nil
	default:
	}
	return nil, errors.Wrapf(ErrUnknownKind, "%d", kind)
}
