package treegen

// Node is implemented by every concrete (leaf) and abstract type the
// schema compiler generates. Concrete node values are always used by
// pointer, so that Go's native interface equality (dynamic type + pointer)
// gives the "links compare by identity" contract (§4.3, §4.5) for free.
type Node interface {
	Completable

	// NodeKind returns the node's leaf NodeType name in title case, the
	// same string serialize writes under the "@t" key.
	NodeKind() string

	// CloneNode returns a deep copy of the node: owned children are
	// recursively cloned, links are shallow-copied and still point at the
	// original tree's nodes (§3.2, §9 DESIGN NOTES). The dynamic type of
	// the result is always identical to the receiver's.
	CloneNode() Node

	// EqualsNode reports structural equality, ignoring annotations:
	// recurses through owning edges, compares links by identity.
	EqualsNode(other Node) bool
}

// Completable is the two-pass well-formedness contract (§4.4) every Node
// implements. FindReachable performs pass 1 (collect owned nodes into pm,
// failing on duplicates); CheckComplete performs pass 2 (verify required
// edges are populated and link targets are in pm).
type Completable interface {
	FindReachable(pm *PointerMap) error
	CheckComplete(pm *PointerMap) error
}

// CheckWellFormed runs both passes of §4.4 rooted at root, returning the
// first violation found wrapped in a *errs.NotWellFormed (via errors.As).
func CheckWellFormed(root Node) error {
	pm := NewPointerMap()
	if err := root.FindReachable(pm); err != nil {
		return err
	}
	if err := root.CheckComplete(pm); err != nil {
		return err
	}
	return nil
}

// IsWellFormed is the boolean convenience over CheckWellFormed (§4.4, §7):
// it is the sole place in the core where a well-formedness failure is
// converted to a bool instead of propagated.
func IsWellFormed(root Node) bool {
	return CheckWellFormed(root) == nil
}
