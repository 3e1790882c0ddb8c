package treegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func registerFixtureDumper(d *Dumper) {
	d.On("Directory", func(n Node) struct{} {
		dir := n.(*directoryNode)
		d.W.OpenNode(dir, "")
		d.W.FieldPrimitive("name", dir.Name)
		d.W.FieldListHeader("entries", dir.Entries.Len())
		for _, item := range dir.Entries.Items() {
			d.Visit(item)
		}
		d.W.CloseNode()
		return struct{}{}
	})
	d.On("File", func(n Node) struct{} {
		f := n.(*fileNode)
		d.W.OpenNode(f, "")
		d.W.FieldPrimitive("name", f.Name)
		d.W.FieldPrimitive("contents", f.Contents)
		d.W.CloseNode()
		return struct{}{}
	})
	d.On("Root", func(n Node) struct{} {
		r := n.(*rootNode)
		d.W.OpenNode(r, "")
		if v, ok := r.Top.Get(); ok {
			d.W.FieldChildHeader("top", v)
			d.Visit(v)
		} else {
			d.W.FieldMissing("top")
		}
		if v, ok := r.Watched.Get(); ok {
			d.W.FieldLink("watched", v)
		} else {
			d.W.FieldEmpty("watched")
		}
		d.W.CloseNode()
		return struct{}{}
	})
}

func TestDumpProducesIndentedTextRepresentation(t *testing.T) {
	dir := newDirectory("root")
	dir.Entries.Push(Node(newFile("a.txt", "hi")))

	var buf strings.Builder
	err := Dump(&buf, dir, fixtureAncestors, registerFixtureDumper)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Directory(")
	require.Contains(t, out, "name: root")
	require.Contains(t, out, "entries: [1]")
	require.Contains(t, out, "File(")
	require.Contains(t, out, "contents: hi")
	require.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), ")"))
}

func TestDumpIsStableAcrossRepeatedCalls(t *testing.T) {
	watched := newFile("watched.txt", "")
	dir := newDirectory("root")
	dir.Entries.Push(Node(watched))
	root := newRoot()
	root.Top.Set(dir)
	root.Watched.Set(watched)

	var first, second strings.Builder
	require.NoError(t, Dump(&first, root, fixtureAncestors, registerFixtureDumper))
	require.NoError(t, Dump(&second, root, fixtureAncestors, registerFixtureDumper))
	require.Equal(t, first.String(), second.String())
}

func TestDumpFieldLinkDoesNotRecurseIntoTarget(t *testing.T) {
	watched := newFile("watched.txt", "should not expand")
	dir := newDirectory("root")
	dir.Entries.Push(Node(watched))
	root := newRoot()
	root.Top.Set(dir)
	root.Watched.Set(watched)

	var buf strings.Builder
	require.NoError(t, Dump(&buf, root, fixtureAncestors, registerFixtureDumper))
	require.Contains(t, buf.String(), "watched: --> File")
	require.Equal(t, 1, strings.Count(buf.String(), "contents:"), "the linked file is only dumped once, via the owning edge")
}
