package tree

import (
	randv2 "math/rand/v2"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

type stepRecorder struct {
	steps []Step
}

func (r *stepRecorder) Show(step Step) <-chan struct{} {
	r.steps = append(r.steps, step)
	return resolvedToken
}

func (r *stepRecorder) since(n int) []Step {
	return r.steps[n:]
}

func (r *stepRecorder) titles(n int) []string {
	titles := make([]string, 0, len(r.steps)-n)
	for _, s := range r.steps[n:] {
		titles = append(titles, s.Title)
	}
	return titles
}

func collect(t *testing.T, tree Tree, order Order) []int {
	t.Helper()
	return slices.Collect(Traverse(tree, order))
}

func mustInsert(t *testing.T, tree Tree, values ...int) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, tree.Insert(v))
		require.NoError(t, Validate(tree))
	}
}

func requireOneTerminal(t *testing.T, steps []Step) {
	t.Helper()
	require.NotEmpty(t, steps)
	for i, s := range steps {
		if i == len(steps)-1 {
			require.True(t, s.Terminal, "last step %q should be terminal", s.Title)
		} else {
			require.False(t, s.Terminal, "step %q should not be terminal", s.Title)
		}
	}
}

func TestNaiveTree_Traversals(t *testing.T) {
	tree := NewNaiveTree()
	mustInsert(t, tree, 5, 3, 8, 1, 4)
	require.Equal(t, int64(5), tree.Len())
	require.Equal(t, []int{1, 3, 4, 5, 8}, collect(t, tree, InOrder))
	require.Equal(t, []int{5, 3, 1, 4, 8}, collect(t, tree, PreOrder))
	require.Equal(t, []int{1, 4, 3, 8, 5}, collect(t, tree, PostOrder))
}

func TestNaiveTree_InsertSteps(t *testing.T) {
	rec := &stepRecorder{}
	tree := NewNaiveTree(WithExplainer(rec))

	require.NoError(t, tree.Insert(5))
	require.Equal(t, []string{"Position found"}, rec.titles(0))
	requireOneTerminal(t, rec.steps)
	require.Equal(t, uint64(2), tree.OperationCounter())

	mustInsert(t, tree, 3, 8)
	n := len(rec.steps)
	require.NoError(t, tree.Insert(4))
	steps := rec.since(n)
	require.Equal(t, []string{"Compare 4 with 5", "Compare 4 with 3", "Position found"}, rec.titles(n))
	requireOneTerminal(t, steps)

	first := steps[0]
	require.Len(t, first.Highlights, 2)
	require.Equal(t, 5, first.Highlights[0].Value)
	require.Equal(t, TagCurrent, first.Highlights[0].Tag)
	require.Equal(t, 3, first.Highlights[1].Value)
	require.Equal(t, TagNext, first.Highlights[1].Tag)
	require.Len(t, first.Nodes, 3)

	second := steps[1]
	require.True(t, second.Highlights[1].Empty)
	require.Equal(t, TagNext, second.Highlights[1].Tag)

	last := steps[2]
	require.Len(t, last.Nodes, 4)
	require.Equal(t, 4, last.Highlights[0].Value)
	for _, v := range last.Nodes {
		if v.Value == 4 {
			require.Equal(t, TagFocus, v.Tag)
		} else {
			require.Equal(t, TagNone, v.Tag)
		}
	}

	// Step sequence numbers follow the operation counter.
	for i := 1; i < len(rec.steps); i++ {
		require.Greater(t, rec.steps[i].Seq, rec.steps[i-1].Seq)
	}
}

func TestNaiveTree_PreconditionErrors(t *testing.T) {
	rec := &stepRecorder{}
	tree := NewNaiveTree(WithExplainer(rec))
	mustInsert(t, tree, 5, 3)

	steps, counter := len(rec.steps), tree.OperationCounter()
	require.ErrorIs(t, tree.Insert(3), ErrDuplicateValue)
	require.ErrorIs(t, tree.Remove(7), ErrValueNotFound)
	require.Len(t, rec.steps, steps)
	require.Equal(t, counter, tree.OperationCounter())
	require.Equal(t, int64(2), tree.Len())
}

func TestNaiveTree_RemoveCases(t *testing.T) {
	rec := &stepRecorder{}
	tree := NewNaiveTree(WithExplainer(rec))
	mustInsert(t, tree, 5, 3, 8, 1, 4, 7)

	// Leaf.
	n := len(rec.steps)
	require.NoError(t, tree.Remove(7))
	require.Equal(t, []string{"Compare 7 with 5", "Compare 7 with 8", "Remove leaf 7"}, rec.titles(n))
	requireOneTerminal(t, rec.since(n))
	require.Equal(t, []int{1, 3, 4, 5, 8}, collect(t, tree, InOrder))

	// Two children, the successor is a leaf.
	n = len(rec.steps)
	require.NoError(t, tree.Remove(3))
	require.Equal(t, []string{"Compare 3 with 5", "Find the successor of 3", "Remove leaf 4"}, rec.titles(n))
	requireOneTerminal(t, rec.since(n))
	require.Equal(t, []int{5, 4, 1, 8}, collect(t, tree, PreOrder))

	// Single child.
	n = len(rec.steps)
	require.NoError(t, tree.Remove(4))
	require.Equal(t, []string{"Compare 4 with 5", "Promote child 1"}, rec.titles(n))
	requireOneTerminal(t, rec.since(n))
	require.Equal(t, []int{5, 1, 8}, collect(t, tree, PreOrder))

	// Root with two children.
	n = len(rec.steps)
	require.NoError(t, tree.Remove(5))
	require.Equal(t, []string{"Find the successor of 5", "Remove leaf 8"}, rec.titles(n))
	require.Equal(t, []int{8, 1}, collect(t, tree, PreOrder))

	require.NoError(t, tree.Remove(8))
	require.NoError(t, tree.Remove(1))
	require.Equal(t, int64(0), tree.Len())
	require.Empty(t, tree.Snapshot())
	require.NoError(t, Validate(tree))
}

func TestNaiveTree_RoundTrip(t *testing.T) {
	tree := NewNaiveTree()
	mustInsert(t, tree, 50, 30, 70, 20, 40, 60, 80)
	before := collect(t, tree, InOrder)
	for _, v := range []int{10, 35, 65, 90, 45} {
		require.NoError(t, tree.Insert(v))
		require.NoError(t, tree.Remove(v))
		require.Equal(t, before, collect(t, tree, InOrder))
		require.NoError(t, Validate(tree))
	}
}

func TestNaiveTree_RandomOperations(t *testing.T) {
	tree := NewNaiveTree()
	present := make(map[int]struct{}, 256)
	for i := 0; i < 2000; i++ {
		v := randv2.IntN(300)
		if _, ok := present[v]; ok {
			require.NoError(t, tree.Remove(v))
			delete(present, v)
		} else {
			require.NoError(t, tree.Insert(v))
			present[v] = struct{}{}
		}
		require.Equal(t, int64(len(present)), tree.Len())
	}
	require.NoError(t, Validate(tree))

	expected := make([]int, 0, len(present))
	for v := range present {
		expected = append(expected, v)
	}
	sort.Ints(expected)
	actual := collect(t, tree, InOrder)
	if len(expected) == 0 {
		require.Empty(t, actual)
	} else {
		require.Equal(t, expected, actual)
	}
}
