package gen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/nodeforge/treegen/internal/spec"
)

// exportName converts a snake_case schema identifier to an exported Go
// identifier (CamelCase), the same convention applied to NodeType names by
// internal/spec's titleCase, duplicated here so this package does not
// reach into spec's unexported helpers.
func exportName(snake string) string {
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

func fieldName(f spec.Field) string { return exportName(f.Name) }

// builtinGoTypes maps a schema builtin primitive name to its Go spelling.
var builtinGoTypes = map[string]string{
	"string": "string", "bool": "bool", "bytes": "[]byte",
	"int": "int", "int32": "int32", "int64": "int64",
	"uint": "uint", "uint32": "uint32", "uint64": "uint64",
	"float32": "float32", "float64": "float64",
}

func primitiveGoType(name string) string {
	if t, ok := builtinGoTypes[name]; ok {
		return t
	}
	// An externally declared primitive's type name is used verbatim: the
	// schema author is responsible for it resolving in the generated
	// package's scope (§4.7 "ext" primitives).
	return name
}

// elemTypeExpr renders the Go type of the value an edge field carries:
// a pointer to the concrete leaf struct, or the bare interface name for
// an abstract (non-leaf) target — interfaces are already reference types.
func elemTypeExpr(f spec.Field) string {
	if f.NodeTarget.IsLeaf() {
		return "*" + f.NodeTarget.Title
	}
	return f.NodeTarget.Title
}

func fieldGoType(f spec.Field) string {
	if f.Kind == spec.KindPrimitive {
		return primitiveGoType(f.PrimitiveType)
	}
	return fmt.Sprintf("treegen.%s[%s]", f.Kind.String(), elemTypeExpr(f))
}

// ancestorTitles returns n's ancestor chain, nearest to farthest, by Title
// — the same shape the support library's Visitor expects for its
// ancestor lookup table.
func ancestorTitles(n *spec.NodeType) []string {
	var out []string
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p.Title)
	}
	return out
}

// cloneExpr renders the expression that clones one field's current value
// on receiver n.
func cloneExpr(f spec.Field) string {
	name := "n." + fieldName(f)
	if f.Kind == spec.KindPrimitive {
		if f.PrimitiveType == "bytes" {
			return fmt.Sprintf("append([]byte(nil), %s...)", name)
		}
		return name
	}
	return name + ".Clone()"
}

// equalsExpr renders the boolean expression comparing field f between
// receivers n and o.
func equalsExpr(f spec.Field) string {
	name := fieldName(f)
	if f.Kind == spec.KindPrimitive {
		if f.PrimitiveType == "bytes" {
			return fmt.Sprintf("bytes.Equal(n.%s, o.%s)", name, name)
		}
		return fmt.Sprintf("n.%s == o.%s", name, name)
	}
	return fmt.Sprintf("n.%s.Equals(o.%s)", name, name)
}

// docLines renders doc as "// "-prefixed lines at the given indent, or an
// empty string if doc is blank.
func docLines(doc, indent string) string {
	if doc == "" {
		return ""
	}
	var sb strings.Builder
	for _, line := range strings.Split(doc, "\n") {
		sb.WriteString(indent + "// " + line + "\n")
	}
	return sb.String()
}

func indentBlock(s, indent string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n") + "\n"
}
