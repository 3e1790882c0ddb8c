// Package gen implements C9, the code emitters: pure functions from a
// resolved internal/spec.Specification to target source text. Go is the
// primary target (with serialization); Python is the secondary target
// (without serialization, per §4.8's "one additional emitter may omit
// it" allowance), grounded on original_source/generator/tree-gen-python.cpp
// existing as the original's real second target.
package gen

import (
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/nodeforge/treegen/internal/spec"
)

const goFileTemplate = `// Code generated by treegen from {{.SchemaFile}}. DO NOT EDIT.
{{if .Spec.Source}}//
// {{.Spec.Source}}
{{end}}
package {{.PackageName}}

import (
	"bytes"
	"io"

	"github.com/nodeforge/treegen"
	"github.com/nodeforge/treegen/cbor"
	"github.com/nodeforge/treegen/errs"
)
{{range .AbstractBlocks}}
{{.}}{{end}}
{{range .LeafBlocks}}
{{.}}{{end}}
{{range .AsKindBlocks}}
{{.}}{{end}}
{{.AncestorChainBlock}}

{{.VisitorHelpersBlock}}

{{.DumpBlock}}

{{.SerializeBlock}}

{{.InitializeBlock}}
`

// goTemplateData is the top-level value handed to goFileTemplate; most of
// the actual rendering happens in the Go helper functions referenced
// below, which build one complete source block per concern (struct,
// constructor, visitor wiring, dump, serialization) rather than
// expressing all of it as template control flow.
type goTemplateData struct {
	SchemaFile  string
	Spec        *spec.Specification
	PackageName string

	AbstractBlocks []string
	LeafBlocks     []string
	AsKindBlocks   []string

	AncestorChainBlock  string
	VisitorHelpersBlock string
	DumpBlock           string
	SerializeBlock      string
	InitializeBlock     string
}

var goTmpl = template.Must(template.New("gofile").Parse(goFileTemplate))

// Go renders s as a single Go source file implementing the runtime tree
// types for every NodeType in s, including CBOR serialization. schemaFile
// is stamped into the header comment as a bare filename (never a path,
// per §4.8).
func Go(s *spec.Specification, schemaFile string) ([]byte, error) {
	data := goTemplateData{
		SchemaFile:  schemaFile,
		Spec:        s,
		PackageName: packageName(s.Namespace),
	}
	for _, n := range s.Nodes {
		if !n.IsLeaf() {
			data.AbstractBlocks = append(data.AbstractBlocks, abstractInterfaceBlock(n))
		}
	}
	for _, n := range s.Leaves {
		data.LeafBlocks = append(data.LeafBlocks, leafBlock(n, s))
	}
	for _, n := range s.Nodes {
		data.AsKindBlocks = append(data.AsKindBlocks, asKindBlock(n))
	}
	data.AncestorChainBlock = ancestorChainBlock(s)
	data.VisitorHelpersBlock = visitorHelpersBlock(s)
	data.DumpBlock = dumpBlock(s)
	data.SerializeBlock = serializeBlock(s)
	data.InitializeBlock = initializeBlock(s)

	var buf strings.Builder
	if err := goTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	formatted, err := format.Source([]byte(buf.String()))
	if err != nil {
		// Surface the unformatted source alongside the error: far more
		// useful for debugging a template bug than the gofmt error alone.
		return nil, fmt.Errorf("gofmt the generated source: %w\n---\n%s", err, buf.String())
	}
	return formatted, nil
}

func packageName(namespace string) string {
	if i := strings.LastIndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	return namespace
}

func abstractInterfaceBlock(n *spec.NodeType) string {
	var sb strings.Builder
	sb.WriteString(docLines(n.Doc, ""))
	embed := "treegen.Node"
	if n.Parent != nil {
		embed = n.Parent.Title
	}
	fmt.Fprintf(&sb, "type %s interface {\n\t%s\n\tis%s()\n}\n", n.Title, embed, n.Title)
	return sb.String()
}

func leafBlock(n *spec.NodeType, s *spec.Specification) string {
	var sb strings.Builder
	sb.WriteString(structBlock(n))
	sb.WriteString("\n")
	sb.WriteString(constructorBlock(n))
	sb.WriteString("\n")
	sb.WriteString(nodeKindBlock(n))
	sb.WriteString("\n")
	sb.WriteString(markerMethodsBlock(n))
	sb.WriteString(visitOwnedChildrenBlock(n))
	sb.WriteString("\n")
	sb.WriteString(findReachableBlock(n))
	sb.WriteString("\n")
	sb.WriteString(checkCompleteBlock(n))
	sb.WriteString("\n")
	sb.WriteString(cloneNodeBlock(n))
	sb.WriteString("\n")
	sb.WriteString(equalsNodeBlock(n))
	sb.WriteString("\n")
	sb.WriteString(serializeIntoBlock(n, s))
	sb.WriteString("\n")
	sb.WriteString(fillBlock(n, s))
	return sb.String()
}

func structBlock(n *spec.NodeType) string {
	var sb strings.Builder
	sb.WriteString(docLines(n.Doc, ""))
	fmt.Fprintf(&sb, "type %s struct {\n\ttreegen.Annotatable\n\n", n.Title)
	for _, f := range n.AllFields {
		sb.WriteString(docLines(f.Doc, "\t"))
		fmt.Fprintf(&sb, "\t%s %s\n", fieldName(f), fieldGoType(f))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func constructorBlock(n *spec.NodeType) string {
	return fmt.Sprintf("// New%s constructs an empty %s; required edges must be\n// populated before the tree is well-formed.\nfunc New%s() *%s {\n\treturn &%s{}\n}\n",
		n.Title, n.Title, n.Title, n.Title, n.Title)
}

func nodeKindBlock(n *spec.NodeType) string {
	return fmt.Sprintf("func (n *%s) NodeKind() string { return %q }\n", n.Title, n.Title)
}

func markerMethodsBlock(n *spec.NodeType) string {
	var sb strings.Builder
	for _, ancestor := range ancestorTitles(n) {
		fmt.Fprintf(&sb, "func (n *%s) is%s() {}\n", n.Title, ancestor)
	}
	return sb.String()
}

func visitOwnedChildrenBlock(n *spec.NodeType) string {
	var body strings.Builder
	for _, f := range n.AllFields {
		if f.Kind == spec.KindPrimitive || !f.Kind.IsOwning() {
			continue
		}
		name := fieldName(f)
		if f.Kind.IsSequence() {
			fmt.Fprintf(&body, "for _, item := range n.%s.Items() {\n\tvisit(item)\n}\n", name)
		} else {
			fmt.Fprintf(&body, "if v, ok := n.%s.Get(); ok {\n\tvisit(v)\n}\n", name)
		}
	}
	return fmt.Sprintf("func (n *%s) VisitOwnedChildren(visit func(treegen.Node)) {\n%s}\n",
		n.Title, indentBlock(body.String(), "\t"))
}

func findReachableBlock(n *spec.NodeType) string {
	var body strings.Builder
	for _, f := range n.AllFields {
		if f.Kind == spec.KindPrimitive {
			continue
		}
		fmt.Fprintf(&body, "if err := n.%s.FindReachable(pm); err != nil {\n\treturn err\n}\n", fieldName(f))
	}
	body.WriteString("return nil\n")
	return fmt.Sprintf("func (n *%s) FindReachable(pm *treegen.PointerMap) error {\n%s}\n",
		n.Title, indentBlock(body.String(), "\t"))
}

func checkCompleteBlock(n *spec.NodeType) string {
	var body strings.Builder
	for _, f := range n.AllFields {
		if f.Kind == spec.KindPrimitive {
			continue
		}
		fmt.Fprintf(&body, "if err := n.%s.CheckComplete(pm); err != nil {\n\treturn err\n}\n", fieldName(f))
	}
	if n.IsError {
		fmt.Fprintf(&body, "return errs.NewNotWellFormed(%q, %q)\n", "error marker", n.Title+" node present in tree")
	} else {
		body.WriteString("return nil\n")
	}
	return fmt.Sprintf("func (n *%s) CheckComplete(pm *treegen.PointerMap) error {\n%s}\n",
		n.Title, indentBlock(body.String(), "\t"))
}

func cloneNodeBlock(n *spec.NodeType) string {
	var fields strings.Builder
	for _, f := range n.AllFields {
		fmt.Fprintf(&fields, "%s: %s,\n", fieldName(f), cloneExpr(f))
	}
	body := fmt.Sprintf("cloned := &%s{\n%s}\n_ = n.Annotatable.CloneInto(&cloned.Annotatable)\nreturn cloned\n",
		n.Title, indentBlock(fields.String(), "\t"))
	return fmt.Sprintf("func (n *%s) CloneNode() treegen.Node {\n%s}\n", n.Title, indentBlock(body, "\t"))
}

func equalsNodeBlock(n *spec.NodeType) string {
	var body strings.Builder
	fmt.Fprintf(&body, "o, ok := other.(*%s)\nif !ok {\n\treturn false\n}\n", n.Title)
	for _, f := range n.AllFields {
		fmt.Fprintf(&body, "if !(%s) {\n\treturn false\n}\n", equalsExpr(f))
	}
	body.WriteString("return true\n")
	return fmt.Sprintf("func (n *%s) EqualsNode(other treegen.Node) bool {\n%s}\n",
		n.Title, indentBlock(body.String(), "\t"))
}

// asKindBlock is the Go rendering of as_<kind>() (§4.5): a type assertion
// against n's own interface (abstract types) or concrete pointer (leaves).
// Emitted once per NodeType, not once per leaf — a leaf satisfies every
// ancestor's marker interface (markerMethodsBlock), so a single
// As<Ancestor> defined here already succeeds for every descendant kind
// without the function needing to know the full set of leaves beneath it.
func asKindBlock(n *spec.NodeType) string {
	target := n.Title
	if n.IsLeaf() {
		target = "*" + n.Title
	}
	return fmt.Sprintf(
		"// As%s reports whether node is of kind %s, or a kind derived from\n"+
			"// it, returning the typed view if so.\n"+
			"func As%s(node treegen.Node) (%s, bool) {\n\tv, ok := node.(%s)\n\treturn v, ok\n}\n",
		n.Title, n.Title, n.Title, target, target)
}

// ancestorChainBlock emits the package-level table NewVisitor and
// NewRecursiveVisitor below it are parameterized with.
func ancestorChainBlock(s *spec.Specification) string {
	var body strings.Builder
	body.WriteString("var ancestorChains = map[string][]string{\n")
	for _, n := range s.Nodes {
		chain := ancestorTitles(n)
		if len(chain) == 0 {
			continue
		}
		quoted := make([]string, len(chain))
		for i, c := range chain {
			quoted[i] = fmt.Sprintf("%q", c)
		}
		fmt.Fprintf(&body, "\t%q: {%s},\n", n.Title, strings.Join(quoted, ", "))
	}
	body.WriteString("}\n")
	return body.String()
}

func visitorHelpersBlock(s *spec.Specification) string {
	return "" +
		"// NewVisitor constructs a schema-aware treegen.Visitor: fallback runs for\n" +
		"// any NodeType with no handler registered via On.\n" +
		"func NewVisitor[R any](fallback func(treegen.Node) R) *treegen.Visitor[R] {\n" +
		"\treturn treegen.NewVisitor(fallback, ancestorChains)\n" +
		"}\n\n" +
		"// NewRecursiveVisitor constructs a schema-aware treegen.RecursiveVisitor.\n" +
		"func NewRecursiveVisitor() *treegen.RecursiveVisitor {\n" +
		"\treturn treegen.NewRecursiveVisitor(ancestorChains)\n" +
		"}\n"
}

func dumpBlock(s *spec.Specification) string {
	var reg strings.Builder
	for _, n := range s.Leaves {
		fmt.Fprintf(&reg, "d.On(%q, func(node treegen.Node) struct{} {\n", n.Title)
		fmt.Fprintf(&reg, "\tn := node.(*%s)\n", n.Title)
		fmt.Fprintf(&reg, "\td.W.OpenNode(n, %s)\n", locationComment(s, n))
		for _, f := range n.AllFields {
			reg.WriteString(dumpFieldStmt(f))
		}
		reg.WriteString("d.W.CloseNode()\n")
		reg.WriteString("return struct{}{}\n")
		reg.WriteString("})\n")
	}
	body := fmt.Sprintf(
		"d := treegen.NewDumper(w, ancestorChains)\n%sd.Visit(root)\nreturn d.W.Err()\n",
		indentBlock(reg.String(), ""),
	)
	return fmt.Sprintf("// Dump writes root's debug dump to w (§4.6).\nfunc Dump(w io.Writer, root treegen.Node) error {\n%s}\n",
		indentBlock(body, "\t"))
}

func locationComment(s *spec.Specification, n *spec.NodeType) string {
	if s.Location == "" || s.Location != n.Title {
		return `""`
	}
	return `"source location"`
}

func dumpFieldStmt(f spec.Field) string {
	name := fieldName(f)
	key := f.Name
	switch f.Kind {
	case spec.KindPrimitive:
		return fmt.Sprintf("d.W.FieldPrimitive(%q, n.%s)\n", key, name)
	case spec.KindExactly:
		return fmt.Sprintf(
			"if v, ok := n.%s.Get(); ok {\n\td.W.FieldChildHeader(%q, v)\n\td.Visit(v)\n} else {\n\td.W.FieldMissing(%q)\n}\n",
			name, key, key)
	case spec.KindMaybe:
		return fmt.Sprintf(
			"if v, ok := n.%s.Get(); ok {\n\td.W.FieldChildHeader(%q, v)\n\td.Visit(v)\n} else {\n\td.W.FieldEmpty(%q)\n}\n",
			name, key, key)
	case spec.KindList, spec.KindNonEmptyList:
		return fmt.Sprintf(
			"d.W.FieldListHeader(%q, n.%s.Len())\nfor _, item := range n.%s.Items() {\n\td.Visit(item)\n}\n",
			key, name, name)
	case spec.KindLink:
		return fmt.Sprintf(
			"if v, ok := n.%s.Get(); ok {\n\td.W.FieldLink(%q, v)\n} else {\n\td.W.FieldMissing(%q)\n}\n",
			name, key, key)
	case spec.KindOptLink:
		return fmt.Sprintf(
			"if v, ok := n.%s.Get(); ok {\n\td.W.FieldLink(%q, v)\n} else {\n\td.W.FieldEmpty(%q)\n}\n",
			name, key, key)
	default:
		return ""
	}
}

func initializeBlock(s *spec.Specification) string {
	if s.Location == "" {
		return fmt.Sprintf("// %s performs one-time setup; this schema has no annotation\n// types that need process-wide registration.\nfunc %s() {}\n", s.Initialize, s.Initialize)
	}
	return fmt.Sprintf(
		"// %s registers %s (the schema's designated source-location type) as\n"+
			"// an attachable, serializable annotation (§4.2, §4.6).\n"+
			"func %s() {\n"+
			"\ttreegen.RegisterAnnotation[*%s](%q,\n"+
			"\t\tfunc(v *%s) ([]byte, error) { return Serialize(v) },\n"+
			"\t\tfunc(b []byte) (*%s, error) {\n"+
			"\t\t\tn, err := Deserialize(b)\n"+
			"\t\t\tif err != nil {\n"+
			"\t\t\t\treturn nil, err\n"+
			"\t\t\t}\n"+
			"\t\t\treturn n.(*%s), nil\n"+
			"\t\t})\n"+
			"}\n",
		s.Initialize, s.Location, s.Initialize, s.Location, s.Location, s.Location, s.Location, s.Location)
}
