package treegen

import "github.com/nodeforge/treegen/errs"

// A small hand-built filesystem-shaped tree, standing in for what the
// schema compiler would generate for:
//
//	node entry { name: string; node directory { entries: list<entry>; } node file { contents: string; } }
//	node root error { top: exactly<directory>; watched: opt_link<file>; }
//
// Used across every *_test.go in this package so each test exercises the
// same shapes a real generated package would produce.

type directoryNode struct {
	Annotatable
	Name    string
	Entries List[Node]
}

func newDirectory(name string) *directoryNode { return &directoryNode{Name: name} }

func (n *directoryNode) NodeKind() string { return "Directory" }

func (n *directoryNode) VisitOwnedChildren(visit func(Node)) {
	for _, item := range n.Entries.Items() {
		visit(item)
	}
}

func (n *directoryNode) FindReachable(pm *PointerMap) error {
	return n.Entries.FindReachable(pm)
}

func (n *directoryNode) CheckComplete(pm *PointerMap) error {
	return n.Entries.CheckComplete(pm)
}

func (n *directoryNode) CloneNode() Node {
	cloned := &directoryNode{Name: n.Name, Entries: n.Entries.Clone()}
	_ = n.Annotatable.CloneInto(&cloned.Annotatable)
	return cloned
}

func (n *directoryNode) EqualsNode(other Node) bool {
	o, ok := other.(*directoryNode)
	if !ok {
		return false
	}
	return n.Name == o.Name && n.Entries.Equals(o.Entries)
}

type fileNode struct {
	Annotatable
	Name     string
	Contents string
}

func newFile(name, contents string) *fileNode { return &fileNode{Name: name, Contents: contents} }

func (n *fileNode) NodeKind() string { return "File" }

func (n *fileNode) VisitOwnedChildren(visit func(Node)) {}

func (n *fileNode) FindReachable(pm *PointerMap) error { return nil }

func (n *fileNode) CheckComplete(pm *PointerMap) error { return nil }

func (n *fileNode) CloneNode() Node {
	cloned := &fileNode{Name: n.Name, Contents: n.Contents}
	_ = n.Annotatable.CloneInto(&cloned.Annotatable)
	return cloned
}

func (n *fileNode) EqualsNode(other Node) bool {
	o, ok := other.(*fileNode)
	if !ok {
		return false
	}
	return n.Name == o.Name && n.Contents == o.Contents
}

// rootNode is the schema's designated error node: CheckComplete always
// fails on it, matching §4.5's "error marker types make the tree
// ill-formed whenever present" rule.
type rootNode struct {
	Annotatable
	Top     Exactly[*directoryNode]
	Watched OptLink[*fileNode]
}

func newRoot() *rootNode { return &rootNode{} }

func (n *rootNode) NodeKind() string { return "Root" }

func (n *rootNode) VisitOwnedChildren(visit func(Node)) {
	if v, ok := n.Top.Get(); ok {
		visit(v)
	}
}

func (n *rootNode) FindReachable(pm *PointerMap) error {
	if err := n.Top.FindReachable(pm); err != nil {
		return err
	}
	return n.Watched.FindReachable(pm)
}

func (n *rootNode) CheckComplete(pm *PointerMap) error {
	if err := n.Top.CheckComplete(pm); err != nil {
		return err
	}
	if err := n.Watched.CheckComplete(pm); err != nil {
		return err
	}
	return errs.NewNotWellFormed("error marker", "Root node present in tree")
}

func (n *rootNode) CloneNode() Node {
	cloned := &rootNode{Top: n.Top.Clone(), Watched: n.Watched.Clone()}
	_ = n.Annotatable.CloneInto(&cloned.Annotatable)
	return cloned
}

func (n *rootNode) EqualsNode(other Node) bool {
	o, ok := other.(*rootNode)
	if !ok {
		return false
	}
	return n.Top.Equals(o.Top) && n.Watched.Equals(o.Watched)
}

var fixtureAncestors = map[string][]string{}
