package treegen

import (
	"testing"

	"github.com/nodeforge/treegen/errs"
	"github.com/stretchr/testify/require"
)

func buildWellFormedTree() *rootNode {
	watched := newFile("watched.txt", "contents")
	dir := newDirectory("root")
	dir.Entries.Push(Node(watched))
	dir.Entries.Push(Node(newFile("other.txt", "")))

	root := newRoot()
	root.Top.Set(dir)
	root.Watched.Set(watched)
	return root
}

func TestPointerMapAssignsDistinctSequenceNumbers(t *testing.T) {
	root := buildWellFormedTree()
	dir, _ := root.Top.Get()
	pm := NewPointerMap()
	require.NoError(t, dir.FindReachable(pm))
	require.Equal(t, 3, pm.Len()) // dir + 2 files

	for i, item := range dir.Entries.Items() {
		seq, ok := pm.Get(item)
		require.True(t, ok)
		require.Equal(t, i+1, seq, "dir itself takes sequence 0, children follow in order")
	}
}

func TestPointerMapRejectsDuplicateOwnership(t *testing.T) {
	shared := newFile("shared.txt", "")
	dir := newDirectory("root")
	dir.Entries.Push(Node(shared))
	dir.Entries.Push(Node(shared)) // same node owned twice: a uniqueness violation

	pm := NewPointerMap()
	err := dir.FindReachable(pm)
	require.Error(t, err)
	var nwf *errs.NotWellFormed
	require.ErrorAs(t, err, &nwf)
}

func TestCheckWellFormedRejectsDanglingLink(t *testing.T) {
	dir := newDirectory("root")
	dir.Entries.Push(Node(newFile("a.txt", "")))

	root := newRoot()
	root.Top.Set(dir)
	root.Watched.Set(newFile("not-in-tree.txt", "")) // never added to dir.Entries

	err := CheckWellFormed(root)
	require.Error(t, err)
	require.False(t, IsWellFormed(root))
}

func TestCheckWellFormedRejectsErrorMarkerEvenWhenEdgesComplete(t *testing.T) {
	root := buildWellFormedTree()
	err := CheckWellFormed(root)
	require.Error(t, err, "root is the schema's error node: it is never well-formed once present")
	require.False(t, IsWellFormed(root))
}

func TestCheckWellFormedRejectsMissingRequiredEdge(t *testing.T) {
	root := newRoot() // Top never set
	err := CheckWellFormed(root)
	require.Error(t, err)
}

func TestCheckWellFormedAcceptsEmptyTree(t *testing.T) {
	dir := newDirectory("empty")
	err := CheckWellFormed(dir)
	require.NoError(t, err, "a directory with no entries is trivially well-formed")
	require.True(t, IsWellFormed(dir))
}

func TestFindReachableOrderIsDeterministicAcrossRuns(t *testing.T) {
	root := buildWellFormedTree()
	dir, _ := root.Top.Get()

	pm1 := NewPointerMap()
	require.NoError(t, dir.FindReachable(pm1))
	pm2 := NewPointerMap()
	require.NoError(t, dir.FindReachable(pm2))

	for _, item := range dir.Entries.Items() {
		a, _ := pm1.Get(item)
		b, _ := pm2.Get(item)
		require.Equal(t, a, b)
	}
}
