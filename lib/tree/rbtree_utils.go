package tree

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
)

// Tree rule validation utilities, all of them work on the public snapshot.

var (
	ErrRedViolation   = errors.New("rbtree red violation")
	ErrBlackViolation = errors.New("rbtree black violation")
	ErrOrderViolation = errors.New("bst order violation")
	ErrShapeViolation = errors.New("tree shape violation")
)

func indexViews(views []NodeView) map[NodeID]NodeView {
	idx := make(map[NodeID]NodeView, len(views))
	for _, v := range views {
		idx[v.ID] = v
	}
	return idx
}

// RedViolationValidate checks p3 and p5, no red-red edge and a black root.
func RedViolationValidate(tree Tree) error {
	views := tree.Snapshot()
	if len(views) == 0 {
		return nil
	}
	if views[0].Color != Black {
		return errors.Wrapf(ErrRedViolation, "red root %d", views[0].Value)
	}
	idx := indexViews(views)
	for _, v := range views {
		if v.Color != Red {
			continue
		}
		for _, c := range []NodeID{v.Left, v.Right} {
			if c == NilNode {
				continue
			}
			if idx[c].Color == Red {
				return errors.Wrapf(ErrRedViolation, "red node %d has red child %d", v.Value, idx[c].Value)
			}
		}
	}
	return nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or sentinel).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            [16]

Each path from a node down to a sentinel passes the same number of black
nodes.
*/
func BlackViolationValidate(tree Tree) error {
	views := tree.Snapshot()
	if len(views) == 0 {
		return nil
	}
	idx := indexViews(views)
	var blackHeight func(id NodeID) (int, error)
	blackHeight = func(id NodeID) (int, error) {
		if id == NilNode {
			return 0, nil
		}
		v := idx[id]
		lh, err := blackHeight(v.Left)
		if err != nil {
			return 0, err
		}
		rh, err := blackHeight(v.Right)
		if err != nil {
			return 0, err
		}
		if lh != rh {
			return 0, errors.Wrapf(ErrBlackViolation, "node %d black heights %d != %d", v.Value, lh, rh)
		}
		if v.Color == Black {
			lh++
		}
		return lh, nil
	}
	_, err := blackHeight(views[0].ID)
	return err
}

// OrderViolationValidate checks the binary search tree order, strictly
// ascending in-order values.
func OrderViolationValidate(tree Tree) error {
	views := tree.Snapshot()
	if len(views) == 0 {
		return nil
	}
	idx := indexViews(views)
	var check func(id NodeID, lo, hi *int) error
	check = func(id NodeID, lo, hi *int) error {
		if id == NilNode {
			return nil
		}
		v := idx[id]
		if (lo != nil && v.Value <= *lo) || (hi != nil && v.Value >= *hi) {
			return errors.Wrapf(ErrOrderViolation, "node %d out of its subtree range", v.Value)
		}
		return multierr.Append(check(v.Left, lo, &v.Value), check(v.Right, &v.Value, hi))
	}
	return check(views[0].ID, nil, nil)
}

// ShapeViolationValidate checks the back-references and the size counter.
func ShapeViolationValidate(tree Tree) error {
	views := tree.Snapshot()
	if int64(len(views)) != tree.Len() {
		return errors.Wrapf(ErrShapeViolation, "%d nodes reachable, size is %d", len(views), tree.Len())
	}
	if len(views) == 0 {
		return nil
	}
	if views[0].Parent != NilNode {
		return errors.Wrapf(ErrShapeViolation, "root %d has a parent", views[0].Value)
	}
	idx := indexViews(views)
	var err error
	for _, v := range views {
		for _, c := range []NodeID{v.Left, v.Right} {
			if c == NilNode {
				continue
			}
			if idx[c].Parent != v.ID {
				err = multierr.Append(err,
					errors.Wrapf(ErrShapeViolation, "child %d does not point back to %d", idx[c].Value, v.Value))
			}
		}
	}
	return err
}

// Validate runs all the validators fitting the tree kind.
func Validate(tree Tree) error {
	err := multierr.Combine(
		ShapeViolationValidate(tree),
		OrderViolationValidate(tree),
	)
	if tree.Kind() == RedBlack {
		err = multierr.Append(err, multierr.Combine(
			RedViolationValidate(tree),
			BlackViolationValidate(tree),
		))
	}
	return err
}
