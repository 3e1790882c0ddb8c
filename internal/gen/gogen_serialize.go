package gen

import (
	"fmt"
	"strings"

	"github.com/nodeforge/treegen/internal/spec"
)

func appendStmt(call string) string {
	return fmt.Sprintf("if err := %s; err != nil {\n\treturn err\n}\n", call)
}

func primitiveSerializeStmt(f spec.Field, s *spec.Specification) string {
	key, name := f.Name, fieldName(f)
	switch f.PrimitiveType {
	case "string":
		return appendStmt(fmt.Sprintf("m.AppendText(%q, n.%s)", key, name))
	case "bool":
		return appendStmt(fmt.Sprintf("m.AppendBool(%q, n.%s)", key, name))
	case "bytes":
		return appendStmt(fmt.Sprintf("m.AppendBytes(%q, n.%s)", key, name))
	case "int", "int32", "int64", "uint", "uint32", "uint64":
		return appendStmt(fmt.Sprintf("m.AppendInt(%q, int64(n.%s))", key, name))
	case "float32", "float64":
		return appendStmt(fmt.Sprintf("m.AppendFloat(%q, float64(n.%s))", key, name))
	default:
		pf, ok := s.Primitives[f.PrimitiveType]
		if !ok || pf.Ser == "" {
			return fmt.Sprintf("return errs.NewCodecError(%q)\n", fmt.Sprintf("field %s: primitive %s has no serialize function", key, f.PrimitiveType))
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "ser%sBytes, err := %s(n.%s)\nif err != nil {\n\treturn err\n}\n", name, pf.Ser, name)
		sb.WriteString(appendStmt(fmt.Sprintf("m.AppendBytes(%q, ser%sBytes)", key, name)))
		return sb.String()
	}
}

func primitiveFillStmt(f spec.Field, s *spec.Specification) string {
	key, name := f.Name, fieldName(f)
	switch f.PrimitiveType {
	case "string":
		return fmt.Sprintf("if v, ok := m.Get(%q); ok {\n\ts, err := v.AsText()\n\tif err != nil {\n\t\treturn err\n\t}\n\tn.%s = s\n}\n", key, name)
	case "bool":
		return fmt.Sprintf("if v, ok := m.Get(%q); ok {\n\tb, err := v.AsBool()\n\tif err != nil {\n\t\treturn err\n\t}\n\tn.%s = b\n}\n", key, name)
	case "bytes":
		return fmt.Sprintf("if v, ok := m.Get(%q); ok {\n\tb, err := v.AsBytes()\n\tif err != nil {\n\t\treturn err\n\t}\n\tn.%s = b\n}\n", key, name)
	case "int", "int32", "int64", "uint", "uint32", "uint64":
		return fmt.Sprintf("if v, ok := m.Get(%q); ok {\n\ti, err := v.AsInt()\n\tif err != nil {\n\t\treturn err\n\t}\n\tn.%s = %s(i)\n}\n", key, name, primitiveGoType(f.PrimitiveType))
	case "float32", "float64":
		return fmt.Sprintf("if v, ok := m.Get(%q); ok {\n\tf, err := v.AsFloat()\n\tif err != nil {\n\t\treturn err\n\t}\n\tn.%s = %s(f)\n}\n", key, name, primitiveGoType(f.PrimitiveType))
	default:
		pf, ok := s.Primitives[f.PrimitiveType]
		if !ok || pf.Des == "" {
			return fmt.Sprintf("// field %s: primitive %s has no deserialize function; left at its zero value\n", key, f.PrimitiveType)
		}
		return fmt.Sprintf(
			"if v, ok := m.Get(%q); ok {\n\traw, err := v.AsBytes()\n\tif err != nil {\n\t\treturn err\n\t}\n\tval, err := %s(raw)\n\tif err != nil {\n\t\treturn err\n\t}\n\tn.%s = val\n}\n",
			key, pf.Des, name)
	}
}

func edgeSerializeStmt(f spec.Field) string {
	key, name := f.Name, fieldName(f)
	switch f.Kind {
	case spec.KindExactly:
		return fmt.Sprintf(
			"{\n\tv, _ := n.%s.Get()\n\tcm, err := m.AppendMap(%q)\n\tif err != nil {\n\t\treturn err\n\t}\n\tsv, ok := treegen.Node(v).(serializable)\n\tif !ok {\n\t\treturn errs.NewCodecError(%q)\n\t}\n\tif err := sv.serializeInto(cm, pm); err != nil {\n\t\treturn err\n\t}\n\tif err := cm.Close(); err != nil {\n\t\treturn err\n\t}\n}\n",
			name, key, "field "+key+": target type does not support serialization")
	case spec.KindMaybe:
		return fmt.Sprintf(
			"if v, ok := n.%s.Get(); ok {\n\tcm, err := m.AppendMap(%q)\n\tif err != nil {\n\t\treturn err\n\t}\n\tsv, ok := treegen.Node(v).(serializable)\n\tif !ok {\n\t\treturn errs.NewCodecError(%q)\n\t}\n\tif err := sv.serializeInto(cm, pm); err != nil {\n\t\treturn err\n\t}\n\tif err := cm.Close(); err != nil {\n\t\treturn err\n\t}\n}\n",
			name, key, "field "+key+": target type does not support serialization")
	case spec.KindList, spec.KindNonEmptyList:
		return fmt.Sprintf(
			"{\n\tarr, err := m.AppendArray(%q)\n\tif err != nil {\n\t\treturn err\n\t}\n\tfor _, item := range n.%s.Items() {\n\t\tcm, err := arr.AppendMap()\n\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n\t\tsv, ok := treegen.Node(item).(serializable)\n\t\tif !ok {\n\t\t\treturn errs.NewCodecError(%q)\n\t\t}\n\t\tif err := sv.serializeInto(cm, pm); err != nil {\n\t\t\treturn err\n\t\t}\n\t\tif err := cm.Close(); err != nil {\n\t\t\treturn err\n\t\t}\n\t}\n\tif err := arr.Close(); err != nil {\n\t\treturn err\n\t}\n}\n",
			key, name, "field "+key+": item type does not support serialization")
	case spec.KindLink:
		return fmt.Sprintf(
			"{\n\tv, ok := n.%s.Get()\n\tif !ok {\n\t\treturn errs.NewNotWellFormed(%q, %q)\n\t}\n\tseq, _ := pm.Get(v)\n\tlm, err := m.AppendMap(%q)\n\tif err != nil {\n\t\treturn err\n\t}\n\tif err := lm.AppendInt(\"@l\", int64(seq)); err != nil {\n\t\treturn err\n\t}\n\tif err := lm.Close(); err != nil {\n\t\treturn err\n\t}\n}\n",
			name, "missing required edge", "Link edge "+key+" has no target", key)
	case spec.KindOptLink:
		return fmt.Sprintf(
			"if v, ok := n.%s.Get(); ok {\n\tseq, _ := pm.Get(v)\n\tlm, err := m.AppendMap(%q)\n\tif err != nil {\n\t\treturn err\n\t}\n\tif err := lm.AppendInt(\"@l\", int64(seq)); err != nil {\n\t\treturn err\n\t}\n\tif err := lm.Close(); err != nil {\n\t\treturn err\n\t}\n}\n",
			name, key)
	default:
		return ""
	}
}

func edgeFillStmt(f spec.Field) string {
	key, name := f.Name, fieldName(f)
	elem := elemTypeExpr(f)
	switch f.Kind {
	case spec.KindExactly, spec.KindMaybe:
		body := fmt.Sprintf(
			"if v, ok := m.Get(%q); ok {\n\tcm, err := v.AsMap()\n\tif err != nil {\n\t\treturn err\n\t}\n\tchild, err := ctx.deserializeNode(cm)\n\tif err != nil {\n\t\treturn err\n\t}\n\tcv, ok := child.(%s)\n\tif !ok {\n\t\treturn errs.NewSchemaError(\"\", 0, %q)\n\t}\n\tn.%s.Set(cv)\n}",
			key, elem, "field "+key+": unexpected node kind", name)
		if f.Kind == spec.KindExactly {
			body += fmt.Sprintf(" else {\n\treturn errs.NewNotWellFormed(%q, %q)\n}\n", "missing required edge", "field "+key+" is absent from the encoded node")
		} else {
			body += "\n"
		}
		return body
	case spec.KindList, spec.KindNonEmptyList:
		return fmt.Sprintf(
			"if v, ok := m.Get(%q); ok {\n\tarr, err := v.AsArray()\n\tif err != nil {\n\t\treturn err\n\t}\n\tfor i := 0; i < arr.Len(); i++ {\n\t\titem, err := arr.At(i)\n\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n\t\tcm, err := item.AsMap()\n\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n\t\tchild, err := ctx.deserializeNode(cm)\n\t\tif err != nil {\n\t\t\treturn err\n\t\t}\n\t\tcv, ok := child.(%s)\n\t\tif !ok {\n\t\t\treturn errs.NewSchemaError(\"\", 0, %q)\n\t\t}\n\t\tn.%s.Push(cv)\n\t}\n}\n",
			key, elem, "field "+key+": unexpected node kind", name)
	case spec.KindLink, spec.KindOptLink:
		return fmt.Sprintf(
			"if v, ok := m.Get(%q); ok {\n\tlm, err := v.AsMap()\n\tif err != nil {\n\t\treturn err\n\t}\n\tlv, err := lm.At(\"@l\")\n\tif err != nil {\n\t\treturn err\n\t}\n\tseq, err := lv.AsInt()\n\tif err != nil {\n\t\treturn err\n\t}\n\tfield := n\n\tctx.fixups = append(ctx.fixups, func() error {\n\t\ttarget, ok := ctx.byIndex[seq]\n\t\tif !ok {\n\t\t\treturn errs.NewNotWellFormed(%q, %q)\n\t\t}\n\t\tcv, ok := target.(%s)\n\t\tif !ok {\n\t\t\treturn errs.NewSchemaError(\"\", 0, %q)\n\t\t}\n\t\tfield.%s.Set(cv)\n\t\treturn nil\n\t})\n}\n",
			key, "dangling link", "field "+key+": link target sequence number not found", elem, "field "+key+": link target has unexpected kind", name)
	default:
		return ""
	}
}

func serializeIntoBlock(n *spec.NodeType, s *spec.Specification) string {
	var body strings.Builder
	body.WriteString("id, _ := pm.Get(n)\n")
	body.WriteString(appendStmt(fmt.Sprintf("m.AppendText(\"@t\", %q)", n.Title)))
	body.WriteString(appendStmt("m.AppendInt(\"@i\", int64(id))"))
	for _, f := range n.AllFields {
		if f.Kind == spec.KindPrimitive {
			body.WriteString(primitiveSerializeStmt(f, s))
		} else {
			body.WriteString(edgeSerializeStmt(f))
		}
	}
	body.WriteString("return n.Annotatable.SerializeAnnotations(m)\n")
	return fmt.Sprintf("func (n *%s) serializeInto(m *cbor.MapHandle, pm *treegen.PointerMap) error {\n%s}\n",
		n.Title, indentBlock(body.String(), "\t"))
}

func fillBlock(n *spec.NodeType, s *spec.Specification) string {
	var body strings.Builder
	for _, f := range n.AllFields {
		if f.Kind == spec.KindPrimitive {
			body.WriteString(primitiveFillStmt(f, s))
		} else {
			body.WriteString(edgeFillStmt(f))
		}
	}
	body.WriteString("for _, e := range m.Entries() {\n")
	body.WriteString("\tif !treegen.IsAnnotationKey(e.Key) {\n\t\tcontinue\n\t}\n")
	body.WriteString("\tpayload, err := e.Value.AsBytes()\n\tif err != nil {\n\t\treturn err\n\t}\n")
	body.WriteString("\tif err := n.Annotatable.DeserializeAnnotation(e.Key, payload); err != nil {\n\t\treturn err\n\t}\n")
	body.WriteString("}\n")
	body.WriteString("return nil\n")
	return fmt.Sprintf("func (ctx *deserializeContext) fill%s(n *%s, m cbor.MapView) error {\n%s}\n",
		n.Title, n.Title, indentBlock(body.String(), "\t"))
}

// serializeBlock emits the shared deserialization context, the dispatch
// switch from "@t" to a concrete constructor, and the package-level
// Serialize/Deserialize entry points, per §4.8's "schedule link fix-ups
// to run after all nodes exist".
func serializeBlock(s *spec.Specification) string {
	var dispatch strings.Builder
	for _, n := range s.Leaves {
		fmt.Fprintf(&dispatch, "case %q:\n\tn := New%s()\n\tctx.byIndex[id] = n\n\tif err := ctx.fill%s(n, m); err != nil {\n\t\treturn nil, err\n\t}\n\treturn n, nil\n",
			n.Title, n.Title, n.Title)
	}

	return fmt.Sprintf(`// serializable is implemented by every leaf type's generated
// serializeInto method; it is not part of treegen.Node because
// serialization is an optional, schema-specific capability.
type serializable interface {
	serializeInto(*cbor.MapHandle, *treegen.PointerMap) error
}

type linkFixup func() error

type deserializeContext struct {
	byIndex map[int64]treegen.Node
	fixups  []linkFixup
}

func (ctx *deserializeContext) deserializeNode(m cbor.MapView) (treegen.Node, error) {
	tv, err := m.At("@t")
	if err != nil {
		return nil, err
	}
	kind, err := tv.AsText()
	if err != nil {
		return nil, err
	}
	iv, err := m.At("@i")
	if err != nil {
		return nil, err
	}
	id, err := iv.AsInt()
	if err != nil {
		return nil, err
	}
	switch kind {
%s	default:
		return nil, errs.NewSchemaError("", 0, "unknown node kind %%q", kind)
	}
}

// Serialize encodes root's owned subtree as a single self-describing CBOR
// document (§4.1, §6): a find_reachable pass assigns each owned node its
// "@i" sequence number, which link fields reference via "@l".
func Serialize(root treegen.Node) ([]byte, error) {
	pm := treegen.NewPointerMap()
	if err := root.FindReachable(pm); err != nil {
		return nil, err
	}
	sv, ok := root.(serializable)
	if !ok {
		return nil, errs.NewCodecError("root node type does not support serialization")
	}
	var buf bytes.Buffer
	w := cbor.NewWriter(&buf)
	m := w.Root()
	if err := sv.serializeInto(m, pm); err != nil {
		return nil, err
	}
	if err := m.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a document written by Serialize. Link fields are
// resolved in a second pass once every node has been constructed, so
// forward references (a link to a node appearing later in the encoding)
// work regardless of traversal order.
func Deserialize(data []byte) (treegen.Node, error) {
	r, err := cbor.NewReader(data)
	if err != nil {
		return nil, err
	}
	root, err := r.AsMap()
	if err != nil {
		return nil, err
	}
	ctx := &deserializeContext{byIndex: map[int64]treegen.Node{}}
	node, err := ctx.deserializeNode(root)
	if err != nil {
		return nil, err
	}
	for _, fix := range ctx.fixups {
		if err := fix(); err != nil {
			return nil, err
		}
	}
	return node, nil
}
`, indentBlock(dispatch.String(), "\t"))
}
