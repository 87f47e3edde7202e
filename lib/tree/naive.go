package tree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var _ Tree = (*NaiveTree)(nil)

// NaiveTree is a plain binary search tree without any balancing.
// Node colors carry no meaning here, all nodes stay black.
type NaiveTree struct {
	*stepper
}

func NewNaiveTree(opts ...Option) *NaiveTree {
	return &NaiveTree{
		stepper: newStepper(Naive, opts...),
	}
}

func (t *NaiveTree) Insert(value int) error {
	if t.Contains(value) {
		return errors.Wrapf(ErrDuplicateValue, "[bst] insert %d", value)
	}
	t.addNodeNaive(value, Black, true)
	t.finish("insert", value)
	return nil
}

func (t *NaiveTree) Remove(value int) error {
	if !t.Contains(value) {
		return errors.Wrapf(ErrValueNotFound, "[bst] remove %d", value)
	}
	t.removeFrom(t.root, value)
	t.count.Add(-1)
	t.finish("remove", value)
	return nil
}

/*
n1: X is a leaf, turn it into a sentinel.

n2: X has exactly one child C, C takes the position of X.

	  |             |
	  X             C
	 / \    ==>    / \
	C  nil        ..  ..

n3: X has two children. The successor S (minimum of the right subtree)
gives its value to X, then S is removed from the right subtree, which
is n1 or n2 because S has no left child.

	  |                  |
	  X                  S
	 / \                / \
	L   R      ==>     L   R
	   /                  /
	  S                 (S removed)
*/
func (t *NaiveTree) removeFrom(from NodeID, value int) {
	x := t.descend(from, value)
	if t.isSentinel(x) {
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[bst] remove absent value %d", value))
	}

	l, r := t.left(x), t.right(x)
	switch {
	case /* n1 */ t.isLeaf(x):
		t.highlight(x, TagFocus)
		t.makeNull(x)
		t.explainStep(
			fmt.Sprintf("Remove leaf %d", value),
			fmt.Sprintf("%d has no children, it is simply removed.", value),
			true,
		)
	case /* n2 */ t.isSentinel(l) || t.isSentinel(r):
		c := l
		if t.isSentinel(l) {
			c = r
		}
		t.highlight(x, TagFocus)
		t.highlight(c, TagNext)
		t.replace(x, c)
		t.discard(x)
		t.explainStep(
			fmt.Sprintf("Promote child %d", t.value(c)),
			fmt.Sprintf("%d has a single child, %d takes its position.", value, t.value(c)),
			true,
		)
	default /* n3 */ :
		succ := t.minChild(r)
		succVal := t.value(succ)
		t.highlight(x, TagFocus)
		t.highlight(succ, TagSuccessor)
		t.explainStep(
			fmt.Sprintf("Find the successor of %d", value),
			fmt.Sprintf("%d has two children, its in-order successor %d (the smallest value of the right subtree) replaces it.", value, succVal),
			false,
		)
		t.setValue(x, succVal)
		t.removeFrom(r, succVal)
	}
}
