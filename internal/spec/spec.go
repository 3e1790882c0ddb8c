// Package spec defines the resolved, in-memory schema (C8's output):
// internal/schema produces a raw AST, Analyze resolves it into the
// Specification internal/gen consumes.
package spec

// EdgeKind mirrors schema.EdgeKind, resolved: KindPrimitive replaces the
// AST's "bare field, no wrapper" case with an explicit zero value so
// switches over spec.EdgeKind don't need a separate bool.
type EdgeKind int

const (
	KindPrimitive EdgeKind = iota
	KindExactly
	KindMaybe
	KindList
	KindNonEmptyList
	KindLink
	KindOptLink
)

// IsOwning reports whether values held through this edge kind are owned
// (copied, visited, and counted toward reachability) rather than
// non-owning references.
func (k EdgeKind) IsOwning() bool {
	switch k {
	case KindExactly, KindMaybe, KindList, KindNonEmptyList:
		return true
	default:
		return false
	}
}

// IsSequence reports whether the edge holds zero-or-more items rather than
// at most one.
func (k EdgeKind) IsSequence() bool {
	return k == KindList || k == KindNonEmptyList
}

func (k EdgeKind) String() string {
	switch k {
	case KindExactly:
		return "Exactly"
	case KindMaybe:
		return "Maybe"
	case KindList:
		return "List"
	case KindNonEmptyList:
		return "NonEmptyList"
	case KindLink:
		return "Link"
	case KindOptLink:
		return "OptLink"
	default:
		return "Primitive"
	}
}

// PrimitiveFunc is a resolved (ser, des) function pair for an external
// primitive type; a zero value means the primitive participates in trees
// but cannot be serialized.
type PrimitiveFunc struct {
	TypeName string
	Ser      string
	Des      string
}

// Field is one resolved field of a NodeType, in declaration order (before
// any reorder() is applied — see NodeType.AllFields for the final order).
type Field struct {
	Name string
	Doc  string
	Kind EdgeKind

	// NodeTarget is set when Kind is an edge-wrapped field (Exactly,
	// Maybe, List, NonEmptyList, Link, or OptLink): every wrapped edge in
	// this dialect targets a NodeType, not a bare primitive (a scope
	// decision recorded in DESIGN.md — it matches the runtime library's
	// Node-constrained generic edge types).
	NodeTarget *NodeType

	// PrimitiveType is set when Kind is KindPrimitive: the opaque type
	// name handed to the emitter verbatim (a Go type name, e.g. "string",
	// "int64", or a declared external primitive).
	PrimitiveType string
}

// NodeType is one resolved node declaration, with inheritance links
// and the fully computed field order.
type NodeType struct {
	Name    string // snake_case, as declared
	Title   string // TitleCase, derived
	Doc     string
	IsError bool

	Parent   *NodeType
	Children []*NodeType

	// OwnFields are the fields declared directly on this node, in source
	// order.
	OwnFields []Field

	// AllFields is OwnFields followed by each ancestor's OwnFields
	// (nearest ancestor first), with only this node's own reorder()
	// directive (if any) applied — see computeAllFields. An ancestor's
	// reorder() does not affect this list. This is the order every generated
	// operation (construction, visit, dump, equals, serialize) iterates
	// in.
	AllFields []Field

	// Index is the node's position in the Specification's topological
	// node list (roots first, each parent before its children).
	Index int

	// reorderNames is this node's own reorder() directive, consumed by
	// computeAllFields when building AllFields.
	reorderNames []string
}

// IsLeaf reports whether n has no derived types: only leaf NodeTypes get
// a discriminant value and a concrete generated struct (§3.1, §4.5).
func (n *NodeType) IsLeaf() bool { return len(n.Children) == 0 }

// Specification is the fully resolved schema, ready for an emitter.
type Specification struct {
	Source     string
	Header     string
	Python     string
	Namespace  string
	Includes   []string
	Support    string
	Initialize string
	Location   string // Title of the designated source-location NodeType, or "".

	Primitives map[string]PrimitiveFunc

	// Roots holds the top-level (parent-less) NodeTypes, in declaration
	// order.
	Roots []*NodeType

	// Nodes holds every NodeType (root and derived) in topological order:
	// a parent always precedes its children. This is the order the
	// emitter declares Go types in.
	Nodes []*NodeType

	// Leaves holds every leaf NodeType (IsLeaf() == true), in the same
	// relative order as Nodes. This is the discriminant enumeration
	// order (§4.8).
	Leaves []*NodeType
}

// NodeByName looks up a resolved NodeType by its declared snake_case name.
func (s *Specification) NodeByName(name string) (*NodeType, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}
