package treegen

// Visitor is a generic double-dispatch visitor (§4.6): R is the
// caller-chosen return type, and dispatch happens by the dynamic node's
// NodeKind() string rather than a Go type switch, which is what lets this
// type live once in the support library instead of being regenerated per
// schema (Go has no generic methods, so a struct-of-typed-closures would
// have to be declared anew for every schema; a map keyed by kind name does
// not).
//
// ancestors supplies, for every leaf kind, its ancestor kind chain from
// nearest to farthest (e.g. {"File": {"Entry"}}); it is produced once by
// generated code from the schema's inheritance tree and passed to
// NewVisitor. Visit resolves the handler for a node's own kind first, then
// walks the ancestor chain, then falls back — this is the "default body
// delegates to the parent NodeType's method" rule (§4.6) rendered as a
// lookup instead of virtual dispatch (§9 DESIGN NOTES).
type Visitor[R any] struct {
	handlers  map[string]func(Node) R
	fallback  func(Node) R
	ancestors map[string][]string
}

// NewVisitor constructs a Visitor with no per-kind overrides: every node
// visited calls fallback (the equivalent of visit_node).
func NewVisitor[R any](fallback func(Node) R, ancestors map[string][]string) *Visitor[R] {
	return &Visitor[R]{
		handlers:  make(map[string]func(Node) R),
		fallback:  fallback,
		ancestors: ancestors,
	}
}

// On registers fn as the handler for the given NodeType name (title case,
// matching NodeKind()). Returns v so calls can be chained.
func (v *Visitor[R]) On(kind string, fn func(Node) R) *Visitor[R] {
	v.handlers[kind] = fn
	return v
}

// Visit dispatches to the most specific registered handler for n, walking
// n's ancestor chain if n's own kind has no handler, and finally falling
// back to the visitor's default.
func (v *Visitor[R]) Visit(n Node) R {
	kind := n.NodeKind()
	if fn, ok := v.handlers[kind]; ok {
		return fn(n)
	}
	for _, ancestor := range v.ancestors[kind] {
		if fn, ok := v.handlers[ancestor]; ok {
			return fn(n)
		}
	}
	return v.fallback(n)
}

// Recursible is implemented by generated node types to let RecursiveVisitor
// walk owning edges without knowing the schema's field layout: visit is
// called once per owned child, in schema-declared field order, with lists
// expanded element by element.
type Recursible interface {
	Node
	VisitOwnedChildren(visit func(Node))
}

// RecursiveVisitor is the RecursiveVisitor specialization from §4.6: its
// default behavior for any node (no override registered) is to visit each
// of that node's owning-edge children, in order, and otherwise do nothing.
// Links are never followed.
type RecursiveVisitor struct {
	*Visitor[struct{}]
}

// NewRecursiveVisitor constructs a RecursiveVisitor for the given ancestor
// chain table (see Visitor).
func NewRecursiveVisitor(ancestors map[string][]string) *RecursiveVisitor {
	rv := &RecursiveVisitor{}
	rv.Visitor = NewVisitor(func(n Node) struct{} {
		rv.VisitChildren(n)
		return struct{}{}
	}, ancestors)
	return rv
}

// VisitChildren visits every owning-edge child of n directly, without
// going through Visit(n) itself. A handler registered with On that wants
// the default "then visit children" continuation after its own logic
// calls this explicitly — Go's lack of super-call syntax means that
// continuation can't happen implicitly (§9 DESIGN NOTES).
func (rv *RecursiveVisitor) VisitChildren(n Node) {
	if r, ok := n.(Recursible); ok {
		r.VisitOwnedChildren(func(child Node) { rv.Visit(child) })
	}
}
