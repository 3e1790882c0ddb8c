package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPythonRendersWithoutError(t *testing.T) {
	s := mustSpec(t)
	out, err := Python(s, "filesystem.tgen")
	require.NoError(t, err)
	src := string(out)

	require.Contains(t, src, "Code generated by treegen from filesystem.tgen")
	require.Contains(t, src, "class Entry:")
	require.Contains(t, src, "class Directory(Entry):")
	require.Contains(t, src, "class File(Entry):")
	require.Contains(t, src, "class Root(Node):")

	// Reorder moved size before contents, with inherited name trailing.
	require.Regexp(t, `(?s)class File\(Entry\):.*size: int.*contents: str.*name: str`, src)

	require.Contains(t, src, "def node_kind(self) -> str:")
	require.Contains(t, src, `return "Directory"`)
	require.Contains(t, src, "class RecursiveVisitor:")
	require.Contains(t, src, "class Dumper(RecursiveVisitor):")
	require.Contains(t, src, "def visit_root(self, node):")
}

func TestPythonOmitsSerialization(t *testing.T) {
	s := mustSpec(t)
	out, err := Python(s, "filesystem.tgen")
	require.NoError(t, err)
	src := string(out)

	require.NotContains(t, src, "def serialize")
	require.NotContains(t, src, "cbor")
}
