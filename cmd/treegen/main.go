// Command treegen compiles a schema file into generated source code, or
// inspects the resolved specification for debugging — the CLI surface for
// C7-C9 (schema compiler and emitters).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	gojson "github.com/goccy/go-json"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/nodeforge/treegen/internal/gen"
	"github.com/nodeforge/treegen/internal/schema"
	"github.com/nodeforge/treegen/internal/spec"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	var err error
	switch sub {
	case "generate":
		err = generateCmd(os.Args[2:])
	case "dump-spec":
		err = dumpSpecCmd(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "treegen: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `treegen: typed tree code generator

Usage:
  treegen generate <schema-file> <out-main.go> [--lang=go|py] [--secondary=<out.py>] [--diagnostics=text|json|yaml]
  treegen generate <schema-file> <out-main> <out-impl> [<out-secondary>]
  treegen dump-spec <schema-file> [--format=json|yaml]`)
}

func loadSpec(schemaFile string) (*spec.Specification, error) {
	src, err := os.ReadFile(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", schemaFile, err)
	}
	f, err := schema.Parse(filepath.Base(schemaFile), string(src))
	if err != nil {
		return nil, err
	}
	return spec.Analyze(f)
}

// generateCmd implements `generate`. It accepts both the flag form
// (--lang/--secondary/--diagnostics) and the legacy positional form from
// spec §6 (<schema-file> <out-main> <out-impl> [<out-secondary>]): a third
// bare argument, whenever present, is written with the same content as
// out-main (this dialect emits the whole package to a single file), and a
// fourth is treated as --secondary unless --secondary is set.
func generateCmd(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	lang := fs.String("lang", "go", "primary emitter target: go or py")
	secondary := fs.String("secondary", "", "optional secondary output path (Python, when --lang=go)")
	diagnostics := fs.String("diagnostics", "text", "diagnostics format on success: text, json, or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) < 2 {
		usage()
		return fmt.Errorf("generate: expected at least <schema-file> <out-main>")
	}
	schemaFile, outMain := rest[0], rest[1]
	if len(rest) >= 3 && *secondary == "" {
		// Legacy positional form: the third argument is an equivalent
		// second output, the optional fourth is the secondary emitter's
		// output.
		if len(rest) >= 4 {
			*secondary = rest[3]
		}
	}

	s, err := loadSpec(schemaFile)
	if err != nil {
		return err
	}

	var primary []byte
	switch *lang {
	case "go":
		primary, err = gen.Go(s, filepath.Base(schemaFile))
	case "py":
		primary, err = gen.Python(s, filepath.Base(schemaFile))
	default:
		return fmt.Errorf("generate: unknown --lang %q", *lang)
	}
	if err != nil {
		return err
	}
	if err := writeGenerated(outMain, primary); err != nil {
		return err
	}
	if len(rest) >= 3 {
		if err := writeGenerated(rest[2], primary); err != nil {
			return err
		}
	}

	if *secondary != "" {
		py, err := gen.Python(s, filepath.Base(schemaFile))
		if err != nil {
			return err
		}
		if err := writeGenerated(*secondary, py); err != nil {
			return err
		}
	}

	return emitDiagnostics(*diagnostics, s, outMain)
}

func writeGenerated(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, content, 0o644)
}

type generateDiagnostics struct {
	Schema    string `json:"schema" yaml:"schema"`
	Output    string `json:"output" yaml:"output"`
	NodeCount int    `json:"node_count" yaml:"node_count"`
	LeafCount int    `json:"leaf_count" yaml:"leaf_count"`
}

func emitDiagnostics(format string, s *spec.Specification, outMain string) error {
	d := generateDiagnostics{Schema: s.Namespace, Output: outMain, NodeCount: len(s.Nodes), LeafCount: len(s.Leaves)}
	switch format {
	case "text":
		fmt.Printf("generated %s: %d node types (%d concrete)\n", outMain, d.NodeCount, d.LeafCount)
		return nil
	case "json":
		b, err := gojson.MarshalIndent(d, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	case "yaml":
		b, err := yaml.Marshal(d)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	default:
		return fmt.Errorf("generate: unknown --diagnostics %q", format)
	}
}

// dumpSpecCmd implements `dump-spec`: print the resolved Specification in
// a diff-friendly, cycle-free view (Specification.NodeType has parent and
// child back-pointers, which a direct json.Marshal would recurse forever
// on; specView flattens those to plain name strings).
func dumpSpecCmd(args []string) error {
	fs := flag.NewFlagSet("dump-spec", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		usage()
		return fmt.Errorf("dump-spec: expected exactly <schema-file>")
	}
	s, err := loadSpec(rest[0])
	if err != nil {
		return err
	}
	view := buildSpecView(s)
	switch *format {
	case "json":
		b, err := gojson.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	case "yaml":
		b, err := yaml.Marshal(view)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	default:
		return fmt.Errorf("dump-spec: unknown --format %q", *format)
	}
}

type specView struct {
	Namespace  string          `json:"namespace" yaml:"namespace"`
	Source     string          `json:"source,omitempty" yaml:"source,omitempty"`
	Initialize string          `json:"initialize" yaml:"initialize"`
	Location   string          `json:"location,omitempty" yaml:"location,omitempty"`
	Primitives []primitiveView `json:"primitives,omitempty" yaml:"primitives,omitempty"`
	Nodes      []nodeView      `json:"nodes" yaml:"nodes"`
}

type primitiveView struct {
	Name string `json:"name" yaml:"name"`
	Ser  string `json:"ser,omitempty" yaml:"ser,omitempty"`
	Des  string `json:"des,omitempty" yaml:"des,omitempty"`
}

type nodeView struct {
	Name    string      `json:"name" yaml:"name"`
	Parent  string      `json:"parent,omitempty" yaml:"parent,omitempty"`
	IsError bool        `json:"is_error,omitempty" yaml:"is_error,omitempty"`
	IsLeaf  bool        `json:"is_leaf" yaml:"is_leaf"`
	Fields  []fieldView `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type fieldView struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
	Type string `json:"type" yaml:"type"`
}

func buildSpecView(s *spec.Specification) specView {
	view := specView{
		Namespace:  s.Namespace,
		Source:     s.Source,
		Initialize: s.Initialize,
		Location:   s.Location,
	}
	for name, pf := range s.Primitives {
		view.Primitives = append(view.Primitives, primitiveView{Name: name, Ser: pf.Ser, Des: pf.Des})
	}
	sort.Slice(view.Primitives, func(i, j int) bool { return view.Primitives[i].Name < view.Primitives[j].Name })
	for _, n := range s.Nodes {
		nv := nodeView{Name: n.Name, IsError: n.IsError, IsLeaf: n.IsLeaf()}
		if n.Parent != nil {
			nv.Parent = n.Parent.Name
		}
		for _, f := range n.AllFields {
			fv := fieldView{Name: f.Name, Kind: f.Kind.String()}
			if f.Kind.String() == "Primitive" {
				fv.Type = f.PrimitiveType
			} else {
				fv.Type = f.NodeTarget.Name
			}
			nv.Fields = append(nv.Fields, fv)
		}
		view.Nodes = append(view.Nodes, nv)
	}
	return view
}
