package treegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 1: the empty tree. A single node with no children is trivially
// well-formed, clones to an equal copy, and dumps to a header line, one
// line per field, and a closing line.
func TestScenarioEmptyTree(t *testing.T) {
	dir := newDirectory("empty")
	require.True(t, IsWellFormed(dir))

	cloned := dir.CloneNode()
	require.True(t, dir.EqualsNode(cloned))

	var buf strings.Builder
	require.NoError(t, Dump(&buf, dir, fixtureAncestors, registerFixtureDumper))
	require.Equal(t, "Directory(\n  name: empty\n  entries: [0]\n)\n", buf.String())
}

// Scenario 2: a filesystem-like schema exercised end to end -- construct,
// validate, clone, dump, and compare.
func TestScenarioFilesystemLikeSchema(t *testing.T) {
	watched := newFile("watched.txt", "contents")
	dir := newDirectory("project")
	dir.Entries.Push(Node(watched))
	dir.Entries.Push(Node(newDirectory("nested")))

	require.True(t, IsWellFormed(dir))

	cloned := dir.CloneNode()
	require.True(t, dir.EqualsNode(cloned))

	var buf strings.Builder
	require.NoError(t, Dump(&buf, dir, fixtureAncestors, registerFixtureDumper))
	require.Contains(t, buf.String(), "entries: [2]")
}

// Scenario 3: a uniqueness violation -- the same owned node reachable via
// two distinct owning edges is rejected during FindReachable.
func TestScenarioUniquenessViolation(t *testing.T) {
	shared := newFile("shared.txt", "")
	outer := newDirectory("outer")
	inner := newDirectory("inner")
	inner.Entries.Push(Node(shared))
	outer.Entries.Push(Node(inner))
	outer.Entries.Push(Node(shared)) // also owned directly by outer: violation

	err := CheckWellFormed(outer)
	require.Error(t, err)
	require.Contains(t, err.Error(), "more than one owning edge")
}

// Scenario 4: a dangling link -- a Link/OptLink target that exists but was
// never added to the tree via an owning edge.
func TestScenarioDanglingLink(t *testing.T) {
	dir := newDirectory("root")
	root := newRoot()
	root.Top.Set(dir)
	root.Watched.Set(newFile("ghost.txt", "")) // never placed in dir.Entries

	pm := NewPointerMap()
	require.NoError(t, root.FindReachable(pm))
	err := root.Watched.CheckComplete(pm)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dangling link")
}

// Scenario 5: an annotation round trip -- set, serialize, deserialize,
// clone, and confirm the value survives every transformation.
func TestScenarioAnnotationRoundTrip(t *testing.T) {
	registerSourceLocAnnotation()

	f := newFile("a.tgen", "")
	SetAnnotation(&f.Annotatable, sourceLoc{Path: "a.tgen", Line: 7})

	cloned := f.CloneNode().(*fileNode)
	got, err := GetAnnotation[sourceLoc](&cloned.Annotatable)
	require.NoError(t, err)
	require.Equal(t, sourceLoc{Path: "a.tgen", Line: 7}, got)

	m, finish := newTestMapHandle(t)
	require.NoError(t, f.Annotatable.SerializeAnnotations(m))
	entries := finish()
	require.Len(t, entries, 1)

	var restored Annotatable
	require.NoError(t, restored.DeserializeAnnotation(entries[0].key, entries[0].payload))
	got2, err := GetAnnotation[sourceLoc](&restored)
	require.NoError(t, err)
	require.Equal(t, sourceLoc{Path: "a.tgen", Line: 7}, got2)
}
