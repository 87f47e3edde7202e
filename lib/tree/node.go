package tree

import (
	"github.com/cockroachdb/errors"
)

// NodeID addresses a node slot inside the tree arena.
type NodeID int32

const NilNode NodeID = -1

// A node without value is a sentinel, the empty leaf of the tree.
// Non-sentinel nodes always own two children, sentinels own none.
type node struct {
	parent NodeID
	left   NodeID
	right  NodeID
	value  int
	color  Color
	hasVal bool
}

// arena keeps the nodes addressed by handle, so the parent back-references
// never form pointer cycles. Released slots are recycled.
type arena struct {
	nodes []node
	free  []NodeID
	root  NodeID
}

func newArena() *arena {
	a := &arena{
		nodes: make([]node, 0, 16),
		free:  make([]NodeID, 0, 8),
	}
	a.root = a.alloc(NilNode)
	return a
}

func (a *arena) alloc(parent NodeID) NodeID {
	n := node{
		parent: parent,
		left:   NilNode,
		right:  NilNode,
		color:  Black,
	}
	if l := len(a.free); l > 0 {
		id := a.free[l-1]
		a.free = a.free[:l-1]
		a.nodes[id] = n
		return id
	}
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

func (a *arena) release(id NodeID) {
	if id == NilNode {
		return
	}
	a.nodes[id] = node{parent: NilNode, left: NilNode, right: NilNode}
	a.free = append(a.free, id)
}

func (a *arena) isSentinel(id NodeID) bool {
	return id == NilNode || !a.nodes[id].hasVal
}

func (a *arena) value(id NodeID) int {
	if a.isSentinel(id) {
		return 0
	}
	return a.nodes[id].value
}

func (a *arena) setValue(id NodeID, value int) {
	a.nodes[id].value = value
}

func (a *arena) color(id NodeID) Color {
	if a.isSentinel(id) {
		return Black
	}
	return a.nodes[id].color
}

func (a *arena) setColor(id NodeID, c Color) {
	if a.isSentinel(id) {
		return
	}
	a.nodes[id].color = c
}

func (a *arena) isRed(id NodeID) bool {
	return a.color(id) == Red
}

func (a *arena) isBlack(id NodeID) bool {
	return a.color(id) == Black
}

func (a *arena) parent(id NodeID) NodeID {
	if id == NilNode {
		return NilNode
	}
	return a.nodes[id].parent
}

func (a *arena) left(id NodeID) NodeID {
	if id == NilNode {
		return NilNode
	}
	return a.nodes[id].left
}

func (a *arena) right(id NodeID) NodeID {
	if id == NilNode {
		return NilNode
	}
	return a.nodes[id].right
}

func (a *arena) child(id NodeID, dir Direction) NodeID {
	switch dir {
	case Left:
		return a.left(id)
	case Right:
		return a.right(id)
	default:
	}
	return NilNode
}

func (a *arena) isRoot(id NodeID) bool {
	return id != NilNode && id == a.root
}

func (a *arena) direction(id NodeID) Direction {
	p := a.parent(id)
	if p == NilNode {
		return Root
	}
	if a.nodes[p].left == id {
		return Left
	}
	return Right
}

func (a *arena) grandparent(id NodeID) NodeID {
	return a.parent(a.parent(id))
}

func (a *arena) sibling(id NodeID) NodeID {
	switch a.direction(id) {
	case Left:
		return a.right(a.parent(id))
	case Right:
		return a.left(a.parent(id))
	default:
	}
	return NilNode
}

// ommer is the sibling of the parent, aka uncle.
func (a *arena) ommer(id NodeID) NodeID {
	p := a.parent(id)
	if p == NilNode {
		return NilNode
	}
	return a.sibling(p)
}

func (a *arena) isLeaf(id NodeID) bool {
	return !a.isSentinel(id) && a.isSentinel(a.left(id)) && a.isSentinel(a.right(id))
}

// definedChild returns the single non-sentinel child of a node with at most
// one of them, or its left sentinel.
func (a *arena) definedChild(id NodeID) NodeID {
	if r := a.right(id); !a.isSentinel(r) {
		return r
	}
	return a.left(id)
}

func (a *arena) minChild(id NodeID) NodeID {
	if a.isSentinel(id) {
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[tree] min child of a sentinel"))
	}
	for !a.isSentinel(a.left(id)) {
		id = a.left(id)
	}
	return id
}

// fill turns a sentinel in place into a node holding value.
func (a *arena) fill(id NodeID, value int, c Color) {
	if !a.isSentinel(id) {
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[tree] fill a defined node %d", id))
	}
	l, r := a.alloc(id), a.alloc(id)
	n := &a.nodes[id]
	n.value, n.color, n.hasVal = value, c, true
	n.left, n.right = l, r
}

// makeNull turns a node in place into a sentinel, so the link held by its
// parent stays valid. Both children have to be sentinels already.
func (a *arena) makeNull(id NodeID) {
	for _, c := range []NodeID{a.left(id), a.right(id)} {
		if c == NilNode {
			continue
		}
		if !a.isSentinel(c) {
			// impossible run to here
			panic( /* debug assertion */ errors.AssertionFailedf("[tree] make null node %d with defined child %d", id, c))
		}
		a.release(c)
	}
	n := &a.nodes[id]
	n.value, n.color, n.hasVal = 0, Black, false
	n.left, n.right = NilNode, NilNode
}

// setChild links c under p on the dir side and fixes up the back-reference.
func (a *arena) setChild(p NodeID, dir Direction, c NodeID) {
	switch dir {
	case Left:
		a.nodes[p].left = c
	case Right:
		a.nodes[p].right = c
	default:
		// impossible run to here
		panic( /* debug assertion */ errors.AssertionFailedf("[tree] set child by direction %s", dir))
	}
	if c != NilNode {
		a.nodes[c].parent = p
	}
}

// attach puts c into the position described by p and dir, where dir Root
// means c becomes the new root.
func (a *arena) attach(p NodeID, dir Direction, c NodeID) {
	if dir == Root {
		a.root = c
		a.nodes[c].parent = NilNode
		return
	}
	a.setChild(p, dir, c)
}

// replace splices repl into the position held by old.
func (a *arena) replace(old, repl NodeID) {
	a.attach(a.parent(old), a.direction(old), repl)
}

// discard releases a node that was unlinked by replace, together with the
// sentinel children it still owns.
func (a *arena) discard(id NodeID) {
	for _, c := range []NodeID{a.left(id), a.right(id)} {
		if c != NilNode && a.nodes[c].parent == id {
			a.release(c)
		}
	}
	a.release(id)
}

func (a *arena) search(from NodeID, value int) NodeID {
	for aux := from; !a.isSentinel(aux); {
		switch v := a.nodes[aux].value; {
		case value == v:
			return aux
		case value < v:
			aux = a.nodes[aux].left
		default:
			aux = a.nodes[aux].right
		}
	}
	return NilNode
}

// snapshot collects the non-sentinel nodes in pre-order.
func (a *arena) snapshot(tags map[NodeID]HighlightTag) []NodeView {
	views := make([]NodeView, 0, len(a.nodes)>>1)
	type frame struct {
		id    NodeID
		depth int
	}
	stack := make([]frame, 0, 16)
	if !a.isSentinel(a.root) {
		stack = append(stack, frame{id: a.root})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := a.nodes[f.id]
		view := NodeView{
			ID:     f.id,
			Parent: n.parent,
			Left:   NilNode,
			Right:  NilNode,
			Value:  n.value,
			Depth:  f.depth,
			Color:  n.color,
			Tag:    tags[f.id],
		}
		if !a.isSentinel(n.right) {
			view.Right = n.right
			stack = append(stack, frame{id: n.right, depth: f.depth + 1})
		}
		if !a.isSentinel(n.left) {
			view.Left = n.left
			stack = append(stack, frame{id: n.left, depth: f.depth + 1})
		}
		views = append(views, view)
	}
	return views
}
