package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const filesystemSchema = `
source "filesystem schema: directories and files";
namespace filesystem;
support "github.com/nodeforge/treegen";
initialize "Initialize";
location "SourceLocation";

primitive string ser "serializeString" des "deserializeString";

/// A tree node.
node entry {
  /// Human-readable name.
  name: string;

  node directory {
    /// Child entries, in directory order.
    entries: list<entry>;
  }

  node file {
    /// File contents.
    contents: string;
    /// Byte size, cached alongside contents.
    size: int;

    reorder(size, contents);
  }
}

node root error {
  /// The single top-level directory.
  top: exactly<directory>;
}
`

func TestParseFilesystemSchema(t *testing.T) {
	f, err := Parse("filesystem.tgen", filesystemSchema)
	require.NoError(t, err)

	require.Equal(t, "filesystem", f.Namespace)
	require.Equal(t, "github.com/nodeforge/treegen", f.Support)
	require.Equal(t, "Initialize", f.Initialize)
	require.Equal(t, "SourceLocation", f.Location)
	require.Len(t, f.Primitives, 1)
	require.Equal(t, "string", f.Primitives[0].TypeName)
	require.Equal(t, "serializeString", f.Primitives[0].Ser)
	require.Equal(t, "deserializeString", f.Primitives[0].Des)

	require.Len(t, f.Nodes, 2)
	entry := f.Nodes[0]
	require.Equal(t, "entry", entry.Name)
	require.Len(t, entry.Fields, 1)
	require.Equal(t, "name", entry.Fields[0].Name)
	require.Equal(t, EdgeNone, entry.Fields[0].Kind)
	require.Equal(t, "string", entry.Fields[0].Target)

	require.Len(t, entry.Derived, 2)
	dir := entry.Derived[0]
	require.Equal(t, "directory", dir.Name)
	require.Equal(t, EdgeList, dir.Fields[0].Kind)
	require.Equal(t, "entry", dir.Fields[0].Target)

	file := entry.Derived[1]
	require.Equal(t, "file", file.Name)
	require.Equal(t, []string{"size", "contents"}, file.Reorder)

	root := f.Nodes[1]
	require.True(t, root.IsError)
	require.Equal(t, EdgeExactly, root.Fields[0].Kind)
	require.Equal(t, "directory", root.Fields[0].Target)
	require.Contains(t, root.Fields[0].Doc, "single top-level directory")
}

func TestParseRejectsUnknownDirective(t *testing.T) {
	_, err := Parse("bad.tgen", `bogus "x";`)
	require.Error(t, err)
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	_, err := Parse("bad.tgen", `source "unterminated`)
	require.Error(t, err)
}

func TestParseAcceptsUnknownReorderName(t *testing.T) {
	// The parser itself accepts any identifier in reorder(); validating
	// that every name is an actual field is the analyzer's job.
	f, err := Parse("ok.tgen", `
node thing {
  a: string;
  reorder(a, b);
}
`)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, f.Nodes[0].Reorder)
}

func TestLexerDocCommentConcatenation(t *testing.T) {
	f, err := Parse("doc.tgen", `
/// line one
/// line two
node thing {
  a: string;
}
`)
	require.NoError(t, err)
	require.Equal(t, "line one\nline two", f.Nodes[0].Doc)
}
