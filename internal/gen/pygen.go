package gen

import (
	"fmt"
	"strings"

	"github.com/nodeforge/treegen/internal/spec"
)

// Python renders s as a single Python source file, the secondary emitter
// target: dataclass construction (which also supplies field-wise
// equality), node_kind, owned-child traversal, a recursive visitor and a
// dumper. It emits no well-formedness check, no copy operation, and no
// binary serialization — the original's second real target
// (original_source/generator/tree-gen-python.cpp) likewise left
// serialization to the C++ side.
func Python(s *spec.Specification, schemaFile string) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Code generated by treegen from %s. DO NOT EDIT.\n", schemaFile)
	if s.Python != "" {
		fmt.Fprintf(&sb, "\"\"\"%s\"\"\"\n", s.Python)
	} else if s.Source != "" {
		fmt.Fprintf(&sb, "\"\"\"%s\"\"\"\n", s.Source)
	}
	sb.WriteString("\nfrom __future__ import annotations\n\nimport dataclasses\nimport typing\n\n")

	for _, n := range s.Nodes {
		if !n.IsLeaf() {
			sb.WriteString(pyAbstractBlock(n))
		}
	}
	for _, n := range s.Leaves {
		sb.WriteString(pyLeafBlock(n))
	}
	sb.WriteString(pyVisitorBlock(s))
	sb.WriteString(pyDumpBlock(s))
	return []byte(sb.String()), nil
}

func pyAbstractBlock(n *spec.NodeType) string {
	var sb strings.Builder
	if n.Doc != "" {
		fmt.Fprintf(&sb, "\nclass %s:\n    \"\"\"%s\"\"\"\n", n.Title, n.Doc)
	} else {
		fmt.Fprintf(&sb, "\nclass %s:\n    pass\n", n.Title)
	}
	return sb.String()
}

func pyFieldType(f spec.Field) string {
	if f.Kind == spec.KindPrimitive {
		switch f.PrimitiveType {
		case "string":
			return "str"
		case "bool":
			return "bool"
		case "bytes":
			return "bytes"
		case "int", "int32", "int64", "uint", "uint32", "uint64":
			return "int"
		case "float32", "float64":
			return "float"
		default:
			return "typing.Any"
		}
	}
	elem := f.NodeTarget.Title
	switch f.Kind {
	case spec.KindExactly:
		return elem
	case spec.KindMaybe, spec.KindOptLink:
		return fmt.Sprintf("typing.Optional[%s]", elem)
	case spec.KindList, spec.KindNonEmptyList:
		return fmt.Sprintf("typing.List[%s]", elem)
	case spec.KindLink:
		return elem
	default:
		return "typing.Any"
	}
}

func pyFieldDefault(f spec.Field) string {
	switch {
	case f.Kind == spec.KindList || f.Kind == spec.KindNonEmptyList:
		return "dataclasses.field(default_factory=list)"
	case f.Kind == spec.KindPrimitive:
		switch f.PrimitiveType {
		case "string":
			return `""`
		case "bool":
			return "False"
		case "bytes":
			return `b""`
		case "int", "int32", "int64", "uint", "uint32", "uint64":
			return "0"
		case "float32", "float64":
			return "0.0"
		default:
			return "None"
		}
	default:
		return "None"
	}
}

func pyLeafBlock(n *spec.NodeType) string {
	var sb strings.Builder
	bases := "Node"
	if n.Parent != nil {
		bases = n.Parent.Title
	}
	fmt.Fprintf(&sb, "\n@dataclasses.dataclass\nclass %s(%s):\n", n.Title, bases)
	if n.Doc != "" {
		fmt.Fprintf(&sb, "    \"\"\"%s\"\"\"\n", n.Doc)
	}
	if len(n.AllFields) == 0 {
		sb.WriteString("    pass\n")
		return sb.String()
	}
	for _, f := range n.AllFields {
		fmt.Fprintf(&sb, "    %s: %s = %s\n", f.Name, pyFieldType(f), pyFieldDefault(f))
	}
	fmt.Fprintf(&sb, "\n    def node_kind(self) -> str:\n        return %q\n", n.Title)
	sb.WriteString("\n    def visit_owned_children(self, visit):\n")
	wroteAny := false
	for _, f := range n.AllFields {
		if f.Kind == spec.KindPrimitive || !f.Kind.IsOwning() {
			continue
		}
		wroteAny = true
		if f.Kind.IsSequence() {
			fmt.Fprintf(&sb, "        for item in self.%s:\n            visit(item)\n", f.Name)
		} else {
			fmt.Fprintf(&sb, "        if self.%s is not None:\n            visit(self.%s)\n", f.Name, f.Name)
		}
	}
	if !wroteAny {
		sb.WriteString("        pass\n")
	}
	return sb.String()
}

func pyVisitorBlock(s *spec.Specification) string {
	var sb strings.Builder
	sb.WriteString("\n\nclass Node:\n    \"\"\"Base type for every generated node class.\"\"\"\n\n    def node_kind(self) -> str:\n        raise NotImplementedError\n\n    def visit_owned_children(self, visit):\n        pass\n")
	sb.WriteString("\n\nclass RecursiveVisitor:\n    \"\"\"Default behavior: visit every owned child, in field order.\"\"\"\n\n    def visit(self, node):\n        handler = getattr(self, \"visit_\" + node.node_kind().lower(), None)\n        if handler is not None:\n            handler(node)\n        else:\n            node.visit_owned_children(self.visit)\n")
	return sb.String()
}

func pyDumpBlock(s *spec.Specification) string {
	var sb strings.Builder
	sb.WriteString("\n\nclass Dumper(RecursiveVisitor):\n    \"\"\"Writes the indented text dump format (no serialization target).\"\"\"\n\n    def __init__(self, out):\n        self.out = out\n        self.depth = 0\n\n    def _line(self, text):\n        self.out.write(\"  \" * self.depth + text + \"\\n\")\n")
	for _, n := range s.Leaves {
		fmt.Fprintf(&sb, "\n    def visit_%s(self, node):\n        self._line(%q + \"(\")\n        self.depth += 1\n", strings.ToLower(n.Title), n.Title)
		for _, f := range n.AllFields {
			sb.WriteString(pyDumpFieldStmt(f))
		}
		sb.WriteString("        self.depth -= 1\n        self._line(\")\")\n")
	}
	return sb.String()
}

func pyDumpFieldStmt(f spec.Field) string {
	switch f.Kind {
	case spec.KindPrimitive:
		return fmt.Sprintf("        self._line(%q + \": \" + repr(node.%s))\n", f.Name, f.Name)
	case spec.KindExactly, spec.KindMaybe:
		return fmt.Sprintf(
			"        if node.%s is not None:\n            self._line(%q + \": <\" + node.%s.node_kind() + \">\")\n            self.depth += 1\n            self.visit(node.%s)\n            self.depth -= 1\n        else:\n            self._line(%q + \": -\")\n",
			f.Name, f.Name, f.Name, f.Name, f.Name)
	case spec.KindList, spec.KindNonEmptyList:
		return fmt.Sprintf(
			"        self._line(%q + \": [\" + str(len(node.%s)) + \"]\")\n        self.depth += 1\n        for item in node.%s:\n            self.visit(item)\n        self.depth -= 1\n",
			f.Name, f.Name, f.Name)
	case spec.KindLink, spec.KindOptLink:
		return fmt.Sprintf(
			"        if node.%s is not None:\n            self._line(%q + \": --> \" + node.%s.node_kind())\n        else:\n            self._line(%q + \": -\")\n",
			f.Name, f.Name, f.Name, f.Name)
	default:
		return ""
	}
}
