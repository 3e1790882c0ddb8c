// Package schema implements the schema file lexer and parser (C7):
// tokenizing and parsing the schema grammar into a raw AST, ahead of
// resolution by internal/spec.
package schema

// Pos is a source location, used for diagnostics throughout the schema
// compiler pipeline (lexer, parser, analyzer).
type Pos struct {
	File string
	Line int
	Col  int
}

// PrimitiveFunc names an optional (ser, des) function pair declared for an
// external primitive type, per the "primitive ... ser ... des ..."
// top-level directive.
type PrimitiveFunc struct {
	TypeName string
	Ser      string
	Des      string
	Pos      Pos
}

// File is the raw parse tree of one schema source file: top-level
// directives followed by a forest of node blocks (nesting denotes
// derivation, per §4.7).
type File struct {
	// Source, Header, Python are the free-text documentation directives.
	// The Go emitter writes Source as the file-level doc comment; the
	// Python emitter writes Python, or Source when Python is empty. No
	// emitter writes Header.
	Source string
	Header string
	Python string

	// Namespace is the dotted/"::"-joined target namespace; defaults are
	// applied by the analyzer when empty.
	Namespace string

	// Includes lists the include/import directives in declaration order
	// (not schema-file paths, per §4.8). No emitter writes them into its
	// output.
	Includes []string

	// Support names the runtime support library. The Go emitter does not
	// read it: emitted code always imports github.com/nodeforge/treegen.
	Support string

	// Initialize is the name of the emitted package-level function that
	// performs annotation registration and other one-time setup.
	Initialize string

	// Location is the NodeType name designated to carry the
	// source-location annotation shown inline in dumps (§4.6), if any.
	Location string

	Primitives []PrimitiveFunc

	// Nodes holds only the top-level (non-derived) node blocks; each
	// node's Derived field holds its nested blocks.
	Nodes []*NodeDecl
}

// EdgeKind is the lexical edge-kind keyword a field declaration uses;
// internal/spec maps this to its resolved spec.EdgeKind.
type EdgeKind int

const (
	EdgeNone EdgeKind = iota
	EdgeExactly
	EdgeMaybe
	EdgeList
	EdgeNonEmptyList
	EdgeLink
	EdgeOptLink
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeExactly:
		return "exactly"
	case EdgeMaybe:
		return "maybe"
	case EdgeList:
		return "list"
	case EdgeNonEmptyList:
		return "nonempty_list"
	case EdgeLink:
		return "link"
	case EdgeOptLink:
		return "opt_link"
	default:
		return "<bare>"
	}
}

// FieldDecl is one field line of a node block: `name: Kind<Target>;` or
// the bare-primitive form `name: Target;` (EdgeKind == EdgeNone).
type FieldDecl struct {
	Name   string
	Kind   EdgeKind
	Target string // NodeType name, or opaque primitive type name
	Doc    string
	Pos    Pos
}

// NodeDecl is one node block, possibly with nested (derived) blocks.
type NodeDecl struct {
	Name      string // snake_case, as written
	Doc       string
	IsError   bool
	Fields    []FieldDecl
	Reorder   []string // field names, in the declared reorder() order
	Derived   []*NodeDecl
	ParentPos Pos // position of the enclosing block, zero for top-level
	Pos       Pos
}
