package tree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var _ Tree = (*RedBlackTree)(nil)

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All sentinels are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   sentinels goes through the same number of black nodes. (black-violation)
// p5. The root is black.
type RedBlackTree struct {
	*stepper
}

func NewRedBlackTree(opts ...Option) *RedBlackTree {
	return &RedBlackTree{
		stepper: newStepper(RedBlack, opts...),
	}
}

/*
		 |                         |
		 X                         Y
		/ \     rotateLeft(X)     / \
	   L   Y    ============>    X   Yr
		  / \                   / \
		Yl   Yr                L   Yl
*/
func (t *RedBlackTree) rotateLeft(x NodeID) {
	y := t.right(x)
	if t.isSentinel(x) || t.isSentinel(y) {
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[rbtree] left rotate node %d without right child", x))
	}
	t.rotateSteps(x, y, Left)
}

/*
		 |                         |
		 X                         Y
		/ \     rotateRight(X)    / \
	   Y   R    ============>    Yl  X
	  / \                           / \
	Yl   Yr                       Yr   R
*/
func (t *RedBlackTree) rotateRight(x NodeID) {
	y := t.left(x)
	if t.isSentinel(x) || t.isSentinel(y) {
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[rbtree] right rotate node %d without left child", x))
	}
	t.rotateSteps(x, y, Right)
}

// rotate moves x down to the dir side, Left means rotateLeft.
func (t *RedBlackTree) rotate(x NodeID, dir Direction) {
	switch dir {
	case Left:
		t.rotateLeft(x)
	case Right:
		t.rotateRight(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[rbtree] rotate by direction %s", dir))
	}
}

// rotateSteps lowers x to the dir side under its child y.
func (t *RedBlackTree) rotateSteps(x, y NodeID, dir Direction) {
	xv, yv := t.value(x), t.value(y)
	p, pdir := t.parent(x), t.direction(x)
	inner := t.child(y, dir)

	// Promote the inner grandchild into the slot y leaves behind.
	t.setChild(x, dir.opposite(), inner)
	t.highlight(x, TagRotate)
	t.highlight(y, TagNext)
	t.highlight(inner, TagFocus)
	body := fmt.Sprintf("The %s subtree of %d becomes the %s subtree of %d.", dir, yv, dir.opposite(), xv)
	if t.isSentinel(inner) {
		body = fmt.Sprintf("The %s child of %d is empty, %d gets an empty %s child.", dir, yv, xv, dir.opposite())
	}
	t.explainStep(fmt.Sprintf("Rotate %d %s: move grandchild", xv, dir), body, false)

	// Re-parent x under y.
	t.setChild(y, dir, x)
	t.highlight(x, TagRotate)
	t.highlight(y, TagNext)
	t.explainStep(
		fmt.Sprintf("Rotate %d %s: re-parent", xv, dir),
		fmt.Sprintf("%d becomes the %s child of %d.", xv, dir, yv),
		false,
	)

	// Fix up the outer link.
	t.attach(p, pdir, y)
	t.highlight(y, TagFocus)
	if pdir == Root {
		t.explainStep(
			fmt.Sprintf("Rotate %d %s: new root", xv, dir),
			fmt.Sprintf("%d took the place of %d and is the new root.", yv, xv),
			false,
		)
	} else {
		t.highlight(p, TagCurrent)
		t.explainStep(
			fmt.Sprintf("Rotate %d %s: relink parent", xv, dir),
			fmt.Sprintf("%d becomes the %s child of %d.", yv, pdir, t.value(p)),
			false,
		)
	}

	t.highlight(x, TagRotate)
	t.highlight(y, TagRotate)
	t.explainStep(
		fmt.Sprintf("Rotation of %d complete", xv),
		fmt.Sprintf("%d moved up, %d moved down to the %s.", yv, xv, dir),
		false,
	)
}

func (t *RedBlackTree) Insert(value int) error {
	if t.Contains(value) {
		return errors.Wrapf(ErrDuplicateValue, "[rbtree] insert %d", value)
	}
	x := t.addNodeNaive(value, Red, false)
	t.insertRebalance(x)
	t.finish("insert", value)
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or sentinel).

i1: X is the root, repaint it into black.

i2: X's parent P is black, hold p3 and p4.

i3: Both the parent P and the ommer U are red, grandpa G is black.
(red-violation)
After repainted G into red may be still red-violation.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

i4: The parent P is red but the ommer U is black. (red-violation)
(1) X is the inner grandchild. Rotate P down to the side opposite to X
first, then continue with P as X.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

(2) X and P have the same direction, rotate G to the opposite and repaint.

	    [G]                 <P>               [P]
	    / \    rotate(G)    / \    repaint    / \
	  <P> [U]  ========>  <X> [G]  ======>  <X> <G>
	  /                         \                 \
	<X>                         [U]               [U]
*/
func (t *RedBlackTree) insertRebalance(x NodeID) {
	xv := t.value(x)
	if /* i1 */ t.isRoot(x) {
		t.setColor(x, Black)
		t.highlight(x, TagRecolor)
		t.explainStep(
			"Paint the root black",
			fmt.Sprintf("%d is the root, the root is always black.", xv),
			true,
		)
		return
	}

	p := t.parent(x)
	if /* i2 */ t.isBlack(p) {
		t.highlight(x, TagFocus)
		t.highlight(p, TagCurrent)
		t.explainStep(
			"Parent is black",
			fmt.Sprintf("The parent %d of %d is black, no red node has a red child.", t.value(p), xv),
			true,
		)
		return
	}

	g, u := t.grandparent(x), t.ommer(x)
	if /* i3 */ t.isRed(u) {
		t.setColor(p, Black)
		t.setColor(u, Black)
		t.setColor(g, Red)
		t.highlight(p, TagRecolor)
		t.highlight(u, TagRecolor)
		t.highlight(g, TagRecolor)
		t.explainStep(
			"Parent and ommer are red",
			fmt.Sprintf("Paint %d and %d black and %d red, then continue the fixup at %d.",
				t.value(p), t.value(u), t.value(g), t.value(g)),
			false,
		)
		t.insertRebalance(g)
		return
	}

	if /* i4 (1) */ dir := t.direction(x); dir != t.direction(p) {
		t.highlight(x, TagFocus)
		t.highlight(p, TagRotate)
		t.explainStep(
			"Inner grandchild",
			fmt.Sprintf("%d is the %s child of %d which is the %s child of %d, rotate %d %s first.",
				xv, dir, t.value(p), t.direction(p), t.value(g), t.value(p), dir.opposite()),
			false,
		)
		t.rotate(p, dir.opposite())
		x, p = p, x
	}

	/* i4 (2) */
	dir := t.direction(x)
	t.highlight(x, TagFocus)
	t.highlight(p, TagCurrent)
	t.highlight(g, TagRotate)
	t.explainStep(
		"Ommer is black",
		fmt.Sprintf("%d and its parent %d are both %s children, rotate the grandparent %d %s.",
			t.value(x), t.value(p), dir, t.value(g), dir.opposite()),
		false,
	)
	t.rotate(g, dir.opposite())
	t.setColor(p, Black)
	t.setColor(g, Red)
	t.highlight(p, TagRecolor)
	t.highlight(g, TagRecolor)
	t.explainStep(
		"Repaint after rotation",
		fmt.Sprintf("%d took the place of %d, paint %d black and %d red.", t.value(p), t.value(g), t.value(p), t.value(g)),
		true,
	)
}

func (t *RedBlackTree) Remove(value int) error {
	if !t.Contains(value) {
		return errors.Wrapf(ErrValueNotFound, "[rbtree] remove %d", value)
	}

	z := t.descend(t.root, value)
	t.highlight(z, TagFocus)
	t.explainStep(fmt.Sprintf("Found %d", value), fmt.Sprintf("%d is the node to remove.", value), false)

	if /* r1 */ !t.isSentinel(t.left(z)) && !t.isSentinel(t.right(z)) {
		y := t.minChild(t.right(z))
		t.highlight(z, TagFocus)
		t.highlight(y, TagSuccessor)
		t.explainStep(
			fmt.Sprintf("Borrow the successor %d", t.value(y)),
			fmt.Sprintf("%d has two children. Its in-order successor %d moves its value up and is removed instead.",
				value, t.value(y)),
			false,
		)
		t.setValue(z, t.value(y))
		z = y
	}

	t.removeNode(z)
	t.count.Add(-1)
	t.finish("remove", value)
	return nil
}

/*
y has at most one defined child c.

r2: y is the root. A leaf root empties the tree, otherwise c becomes the
black root.

r3: y is red, it must be a leaf (otherwise black-violation). Remove directly.

r4: c is red, y is black. Splice c into the position of y and repaint c
into black, the black depth of the path holds.

r5: y and c are both black, so y is a black leaf (otherwise black-violation).
Removing it shortens the black depth of its path (double-black),
rebalance before turning y into a sentinel.
*/
func (t *RedBlackTree) removeNode(y NodeID) {
	yv := t.value(y)
	c := t.definedChild(y)
	switch {
	case /* r2 */ t.isRoot(y):
		t.highlight(y, TagFocus)
		if t.isLeaf(y) {
			t.makeNull(y)
			t.explainStep(
				fmt.Sprintf("Remove root %d", yv),
				fmt.Sprintf("%d was the only node, the tree is empty now.", yv),
				true,
			)
			return
		}
		t.replace(y, c)
		t.discard(y)
		t.setColor(c, Black)
		t.highlight(c, TagRecolor)
		t.explainStep(
			fmt.Sprintf("Remove root %d", yv),
			fmt.Sprintf("%d becomes the root and is painted black.", t.value(c)),
			true,
		)
	case /* r3 */ t.isRed(y):
		if !t.isLeaf(y) {
			// impossible run to here
			panic( /* debug assertion */ errors.AssertionFailedf("[rbtree] red node %d with a single child", yv))
		}
		t.highlight(y, TagFocus)
		t.makeNull(y)
		t.explainStep(
			fmt.Sprintf("Remove red leaf %d", yv),
			"Removing a red leaf keeps every black depth.",
			true,
		)
	case /* r4 */ t.isRed(c):
		t.highlight(y, TagFocus)
		t.replace(y, c)
		t.discard(y)
		t.setColor(c, Black)
		t.highlight(c, TagRecolor)
		t.explainStep(
			fmt.Sprintf("Replace %d by its red child", yv),
			fmt.Sprintf("%d takes the place of the black node %d and is painted black.", t.value(c), yv),
			true,
		)
	default /* r5 */ :
		if !t.isLeaf(y) {
			// impossible run to here
			panic( /* debug assertion */ errors.AssertionFailedf("[rbtree] black node %d with a single black child", yv))
		}
		t.highlight(y, TagFocus)
		t.explainStep(
			"Double black",
			fmt.Sprintf("%d is a black leaf, removing it would shorten the black depth. Rebalance first.", yv),
			false,
		)
		t.removeRebalance(y)
		t.highlight(y, TagFocus)
		t.makeNull(y)
		t.explainStep(
			fmt.Sprintf("Remove %d", yv),
			fmt.Sprintf("The tree is balanced around %d, it is removed.", yv),
			true,
		)
	}
}

/*
<X> is a RED node.
[X] is a BLACK node (or sentinel).
{X} is either a RED node or a BLACK node.

Sc is the sibling's child on X's side (near nephew), Sd the one on the
opposite side (far nephew).

rm1: X is the root, paint it black and stop.

rm2: X's sibling S is red, so the parent P, nephew node Sc and Sd
must be black. Rotate P to X's side, repaint S into black, P into red,
then restart from X.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

rm3: All of X's parent P, the sibling S, nephew Sc and Sd are black.
Paint S into red to satisfy p4 locally, then recursive to handle P.

	  [P]             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm4: X's parent P is red, the sibling S, nephew Sc and Sd are black.
Swap the colors of S and P.

	  <P>             [P]
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sc] [Sd]       [Sc] [Sd]

rm5: S is black with at least one red child, P may be either color.
(1) Sc is red and Sd is black. Rotate S away from X, repaint Sc into black
and S into red, Sc is the new sibling.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

(2) Sd is red. Rotate P to X's side, S takes the color of P, P and Sd are
painted black.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]
*/
func (t *RedBlackTree) removeRebalance(x NodeID) {
	xv := t.value(x)
	if /* rm1 */ t.isRoot(x) {
		t.setColor(x, Black)
		t.highlight(x, TagRecolor)
		t.explainStep(
			"Double black at the root",
			fmt.Sprintf("The deficiency reached the root %d, every path lost one black node.", xv),
			false,
		)
		return
	}

	p, s, dir := t.parent(x), t.sibling(x), t.direction(x)
	sc, sd := t.child(s, dir), t.child(s, dir.opposite())
	pv, sv := t.value(p), t.value(s)
	nephewsBlack := t.isBlack(sc) && t.isBlack(sd)

	if /* rm2 */ t.isBlack(p) && t.isRed(s) && nephewsBlack {
		t.highlight(x, TagFocus)
		t.highlight(p, TagRotate)
		t.highlight(s, TagCurrent)
		t.explainStep(
			"Sibling is red",
			fmt.Sprintf("The sibling %d of %d is red, rotate the parent %d %s.", sv, xv, pv, dir),
			false,
		)
		t.rotate(p, dir)
		t.setColor(p, Red)
		t.setColor(s, Black)
		t.highlight(p, TagRecolor)
		t.highlight(s, TagRecolor)
		t.explainStep(
			"Repaint parent and sibling",
			fmt.Sprintf("Paint %d red and %d black, %d now has a black sibling.", pv, sv, xv),
			false,
		)
		t.removeRebalance(x)
		return
	}

	if /* rm3 */ t.isBlack(p) && t.isBlack(s) && nephewsBlack {
		t.setColor(s, Red)
		t.highlight(x, TagFocus)
		t.highlight(s, TagRecolor)
		t.highlight(p, TagNext)
		t.explainStep(
			"Parent, sibling and nephews are black",
			fmt.Sprintf("Paint the sibling %d red, the deficiency moves up to %d.", sv, pv),
			false,
		)
		t.removeRebalance(p)
		return
	}

	if /* rm4 */ t.isRed(p) && t.isBlack(s) && nephewsBlack {
		t.setColor(p, Black)
		t.setColor(s, Red)
		t.highlight(p, TagRecolor)
		t.highlight(s, TagRecolor)
		t.explainStep(
			"Parent is red",
			fmt.Sprintf("Swap the colors of the parent %d and the sibling %d.", pv, sv),
			false,
		)
		return
	}

	if t.isRed(s) || nephewsBlack {
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[rbtree] remove rebalance around %d without red nephew", xv))
	}

	if /* rm5 (1) */ t.isBlack(sd) {
		t.highlight(s, TagRotate)
		t.highlight(sc, TagFocus)
		t.explainStep(
			"Near nephew is red",
			fmt.Sprintf("The near nephew %d is red and the far one is black, rotate the sibling %d %s.",
				t.value(sc), sv, dir.opposite()),
			false,
		)
		t.rotate(s, dir.opposite())
		t.setColor(sc, Black)
		t.setColor(s, Red)
		t.highlight(sc, TagRecolor)
		t.highlight(s, TagRecolor)
		t.explainStep(
			"Repaint sibling and nephew",
			fmt.Sprintf("Paint %d black and %d red, %d is the new sibling with a red far nephew.",
				t.value(sc), sv, t.value(sc)),
			false,
		)
		s, sd = sc, s
		sv = t.value(s)
	}

	/* rm5 (2) */
	t.highlight(x, TagFocus)
	t.highlight(p, TagRotate)
	t.highlight(sd, TagCurrent)
	t.explainStep(
		"Far nephew is red",
		fmt.Sprintf("The far nephew %d is red, rotate the parent %d %s.", t.value(sd), pv, dir),
		false,
	)
	t.rotate(p, dir)
	t.setColor(s, t.color(p))
	t.setColor(p, Black)
	t.setColor(sd, Black)
	t.highlight(s, TagRecolor)
	t.highlight(p, TagRecolor)
	t.highlight(sd, TagRecolor)
	t.explainStep(
		"Repaint after rotation",
		fmt.Sprintf("%d takes the color of %d, %d and %d are painted black.", sv, pv, pv, t.value(sd)),
		false,
	)
}
