package spec

import (
	"strings"
	"unicode"

	"github.com/nodeforge/treegen/errs"
	"github.com/nodeforge/treegen/internal/schema"
)

// builtinPrimitives are the bare field type names accepted without a
// "primitive" directive: Go's own scalar types plus the two composite
// wire-friendly shapes (string, bytes) the CBOR codec handles natively.
var builtinPrimitives = map[string]bool{
	"string": true, "bool": true, "bytes": true,
	"int": true, "int32": true, "int64": true,
	"uint": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true,
}

const defaultNamespace = "generated"

// Analyze resolves a raw schema.File into a Specification (C8): every
// field's target is looked up, inheritance links are made bidirectional,
// defaults are applied, and the node list is put in topological order.
// Grounded on reoring-goskema/dsl/irconv.go's "walk a loosely-typed
// source, build a strict IR, fail closed on anything unrecognized" shape,
// rewritten to walk this package's own concrete AST instead of reflecting
// over arbitrary Go values.
func Analyze(f *schema.File) (*Specification, error) {
	s := &Specification{
		Source:     f.Source,
		Header:     f.Header,
		Python:     f.Python,
		Namespace:  f.Namespace,
		Includes:   append([]string(nil), f.Includes...),
		Support:    f.Support,
		Initialize: f.Initialize,
		Primitives: map[string]PrimitiveFunc{},
	}
	if s.Namespace == "" {
		s.Namespace = defaultNamespace
	}
	if s.Initialize == "" {
		return nil, errs.NewSchemaError(f.Namespace, 0, "missing required \"initialize\" directive")
	}

	for _, pf := range f.Primitives {
		if _, dup := s.Primitives[pf.TypeName]; dup {
			return nil, errs.NewSchemaError("", pf.Pos.Line, "duplicate primitive directive for %q", pf.TypeName)
		}
		s.Primitives[pf.TypeName] = PrimitiveFunc{TypeName: pf.TypeName, Ser: pf.Ser, Des: pf.Des}
	}

	byName := map[string]*NodeType{}
	var walk func(decls []*schema.NodeDecl, parent *NodeType) error
	walk = func(decls []*schema.NodeDecl, parent *NodeType) error {
		for _, d := range decls {
			if _, dup := byName[d.Name]; dup {
				return errs.NewSchemaError("", d.Pos.Line, "duplicate node declaration %q", d.Name)
			}
			nt := &NodeType{
				Name:    d.Name,
				Title:   titleCase(d.Name),
				Doc:     d.Doc,
				IsError: d.IsError,
				Parent:  parent,
			}
			byName[d.Name] = nt
			if parent != nil {
				parent.Children = append(parent.Children, nt)
			} else {
				s.Roots = append(s.Roots, nt)
			}
			if err := walk(d.Derived, nt); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(f.Nodes, nil); err != nil {
		return nil, err
	}

	// Resolve every field now that every NodeType exists, so forward
	// references (a field typed after the node it targets) work.
	var walkFields func(decls []*schema.NodeDecl) error
	walkFields = func(decls []*schema.NodeDecl) error {
		for _, d := range decls {
			nt := byName[d.Name]
			seen := map[string]bool{}
			for _, fd := range d.Fields {
				if seen[fd.Name] {
					return errs.NewSchemaError("", fd.Pos.Line, "duplicate field %q on node %q", fd.Name, d.Name)
				}
				seen[fd.Name] = true
				field, err := resolveField(fd, byName, s.Primitives)
				if err != nil {
					return err
				}
				nt.OwnFields = append(nt.OwnFields, field)
			}
			if err := validateReorder(d, nt); err != nil {
				return err
			}
			if err := walkFields(d.Derived); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walkFields(f.Nodes); err != nil {
		return nil, err
	}

	if f.Location != "" {
		loc, ok := byName[toSnake(f.Location)]
		if !ok {
			// Location may also be given in title case directly; try a
			// direct title match against every node before failing.
			for _, nt := range byName {
				if nt.Title == f.Location {
					loc = nt
					ok = true
					break
				}
			}
		}
		if !ok {
			return nil, errs.NewSchemaError("", 0, "location directive names unknown node type %q", f.Location)
		}
		s.Location = loc.Title
	}

	// Topological order: DFS over roots, parent before children,
	// declaration order preserved among siblings.
	var order func(nt *NodeType)
	order = func(nt *NodeType) {
		nt.Index = len(s.Nodes)
		s.Nodes = append(s.Nodes, nt)
		if nt.IsLeaf() {
			s.Leaves = append(s.Leaves, nt)
		}
		for _, c := range nt.Children {
			order(c)
		}
	}
	for _, root := range s.Roots {
		order(root)
	}

	for _, nt := range s.Nodes {
		nt.AllFields = computeAllFields(nt)
	}

	return s, nil
}

func resolveField(fd schema.FieldDecl, byName map[string]*NodeType, prims map[string]PrimitiveFunc) (Field, error) {
	if fd.Kind == schema.EdgeNone {
		if !builtinPrimitives[fd.Target] {
			if _, ok := prims[fd.Target]; !ok {
				return Field{}, errs.NewSchemaError("", fd.Pos.Line, "field %q: unknown primitive type %q (declare it with a \"primitive\" directive)", fd.Name, fd.Target)
			}
		}
		return Field{Name: fd.Name, Doc: fd.Doc, Kind: KindPrimitive, PrimitiveType: fd.Target}, nil
	}
	target, ok := byName[fd.Target]
	if !ok {
		return Field{}, errs.NewSchemaError("", fd.Pos.Line, "field %q: unknown node type %q", fd.Name, fd.Target)
	}
	return Field{Name: fd.Name, Doc: fd.Doc, Kind: fromASTKind(fd.Kind), NodeTarget: target}, nil
}

func fromASTKind(k schema.EdgeKind) EdgeKind {
	switch k {
	case schema.EdgeExactly:
		return KindExactly
	case schema.EdgeMaybe:
		return KindMaybe
	case schema.EdgeList:
		return KindList
	case schema.EdgeNonEmptyList:
		return KindNonEmptyList
	case schema.EdgeLink:
		return KindLink
	case schema.EdgeOptLink:
		return KindOptLink
	default:
		return KindPrimitive
	}
}

func validateReorder(d *schema.NodeDecl, nt *NodeType) error {
	if len(d.Reorder) == 0 {
		return nil
	}
	available := map[string]bool{}
	for _, f := range allFieldsUnordered(nt) {
		available[f.Name] = true
	}
	seen := map[string]bool{}
	for _, name := range d.Reorder {
		if seen[name] {
			return errs.NewSchemaError("", d.Pos.Line, "reorder() lists field %q more than once", name)
		}
		seen[name] = true
		if !available[name] {
			return errs.NewSchemaError("", d.Pos.Line, "reorder() names unknown field %q on node %q", name, d.Name)
		}
	}
	nt.reorderNames = append([]string(nil), d.Reorder...)
	return nil
}

// allFieldsUnordered mirrors the original generator's Node::all_fields
// base case (own fields, then the parent's, recursively) before any
// reorder() is applied — grounded on
// original_source/generator/tree-gen.cpp's Node::all_fields.
func allFieldsUnordered(nt *NodeType) []Field {
	fields := append([]Field(nil), nt.OwnFields...)
	if nt.Parent != nil {
		fields = append(fields, allFieldsUnordered(nt.Parent)...)
	}
	return fields
}

// computeAllFields applies nt's own reorder() directive (if any) to the
// unordered field list, moving the named fields to the front in the
// listed order and leaving the rest in their original relative order
// afterward — the same algorithm as Node::all_fields in the original.
func computeAllFields(nt *NodeType) []Field {
	fields := allFieldsUnordered(nt)
	if len(nt.reorderNames) == 0 {
		return fields
	}
	remaining := append([]Field(nil), fields...)
	reordered := make([]Field, 0, len(fields))
	for _, name := range nt.reorderNames {
		for i, f := range remaining {
			if f.Name == name {
				reordered = append(reordered, f)
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return append(reordered, remaining...)
}

func titleCase(snake string) string {
	parts := strings.Split(snake, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		sb.WriteString(string(r))
	}
	return sb.String()
}

func toSnake(title string) string {
	var sb strings.Builder
	for i, r := range title {
		if unicode.IsUpper(r) && i > 0 {
			sb.WriteByte('_')
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}
