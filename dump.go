package treegen

import (
	"fmt"
	"io"
	"strings"
)

// DumpWriter accumulates the indented text representation written by a
// generated Dumper (§4.6). It owns only indentation bookkeeping and the
// small set of field-marker renderings that are schema-agnostic; the
// per-NodeType field iteration is generated code (internal/gen), since it
// alone knows field names and order.
type DumpWriter struct {
	w     io.Writer
	depth int
	err   error
}

// NewDumpWriter wraps w.
func NewDumpWriter(w io.Writer) *DumpWriter { return &DumpWriter{w: w} }

// Err returns the first write error encountered, if any.
func (dw *DumpWriter) Err() error { return dw.err }

func (dw *DumpWriter) line(s string) {
	if dw.err != nil {
		return
	}
	indent := strings.Repeat("  ", dw.depth)
	if _, err := io.WriteString(dw.w, indent+s+"\n"); err != nil {
		dw.err = err
	}
}

// Indent increases the indentation level for subsequent lines.
func (dw *DumpWriter) Indent() { dw.depth++ }

// Outdent decreases the indentation level for subsequent lines.
func (dw *DumpWriter) Outdent() {
	if dw.depth > 0 {
		dw.depth--
	}
}

// OpenNode writes the opening "Kind(" line for n, with an optional inline
// comment (used for the schema-designated source-location annotation,
// §4.6), and indents.
func (dw *DumpWriter) OpenNode(n Node, comment string) {
	if comment != "" {
		dw.line(fmt.Sprintf("%s( // %s", n.NodeKind(), comment))
	} else {
		dw.line(n.NodeKind() + "(")
	}
	dw.Indent()
}

// CloseNode outdents and writes the closing ")" line.
func (dw *DumpWriter) CloseNode() {
	dw.Outdent()
	dw.line(")")
}

// FieldMissing writes a required-but-absent field line (marker !MISSING).
func (dw *DumpWriter) FieldMissing(name string) { dw.line(name + ": !MISSING") }

// FieldEmpty writes an empty-optional field line (marker -).
func (dw *DumpWriter) FieldEmpty(name string) { dw.line(name + ": -") }

// FieldPrimitive writes a primitive-valued field line.
func (dw *DumpWriter) FieldPrimitive(name string, value any) {
	dw.line(fmt.Sprintf("%s: %v", name, value))
}

// FieldLink writes a non-owning reference field line (marker --> Kind),
// deliberately not recursing into the target: the recursion depth bound
// this marker documents (§4.6) is zero, which is what keeps a dump of a
// tree with link cycles finite.
func (dw *DumpWriter) FieldLink(name string, target Node) {
	dw.line(fmt.Sprintf("%s: --> %s", name, target.NodeKind()))
}

// FieldListHeader writes the "name: [n]" header line for a List or
// NonEmptyList field; the caller is responsible for indenting and dumping
// each item afterward.
func (dw *DumpWriter) FieldListHeader(name string, n int) {
	dw.line(fmt.Sprintf("%s: [%d]", name, n))
}

// FieldChildHeader writes the "name: <Kind>" header line for a populated
// Exactly or Maybe field; the caller is responsible for indenting and
// dumping the child afterward.
func (dw *DumpWriter) FieldChildHeader(name string, child Node) {
	dw.line(fmt.Sprintf("%s: <%s>", name, child.NodeKind()))
}

// Dumper is the debug-dump RecursiveVisitor specialization (§4.6):
// generated code registers, per leaf NodeType, a handler that writes that
// node's fields via the DumpWriter helpers above and then recurses through
// Visit for owned children that need their own nested dump block.
type Dumper struct {
	*RecursiveVisitor
	W *DumpWriter
}

// NewDumper constructs a Dumper writing to w, using the given ancestor
// chain table (see Visitor).
func NewDumper(w io.Writer, ancestors map[string][]string) *Dumper {
	d := &Dumper{W: NewDumpWriter(w)}
	d.RecursiveVisitor = NewRecursiveVisitor(ancestors)
	return d
}

// Dump writes root's debug dump to w and returns the first write error
// encountered, if any. Two calls against the same tree always produce
// byte-identical output (§8 dump stability): nothing here depends on map
// iteration order or on any other nondeterministic input.
func Dump(w io.Writer, root Node, ancestors map[string][]string, register func(*Dumper)) error {
	d := NewDumper(w, ancestors)
	register(d)
	d.Visit(root)
	return d.W.Err()
}
