package treegen

import (
	"fmt"

	"github.com/nodeforge/treegen/errs"
)

// PointerMap assigns each distinct owned node encountered during a
// reachability walk (§4.4 pass 1) a monotonically increasing sequence
// number, and lets pass 2 look that sequence number back up by identity.
// It is grounded directly on the original implementation's
// PointerMap::add_raw/get_raw (original_source/src/tree-base.cpp):
// add fails closed on a duplicate identity, get fails closed on a miss.
type PointerMap struct {
	seq  map[Node]int
	next int
}

// NewPointerMap returns an empty PointerMap.
func NewPointerMap() *PointerMap {
	return &PointerMap{seq: make(map[Node]int)}
}

// Add records n's identity with the next sequence number. It fails with a
// *errs.NotWellFormed if n was already added (a uniqueness violation: the
// same node owned twice).
func (pm *PointerMap) Add(n Node) (int, error) {
	if n == nil {
		return 0, nil
	}
	if existing, ok := pm.seq[n]; ok {
		return existing, errs.NewNotWellFormed("duplicate node", fmt.Sprintf("%s node reachable by more than one owning edge", n.NodeKind()))
	}
	id := pm.next
	pm.seq[n] = id
	pm.next++
	return id, nil
}

// Get looks up n's sequence number, assigned during a prior Add.
func (pm *PointerMap) Get(n Node) (int, bool) {
	if n == nil {
		return 0, false
	}
	id, ok := pm.seq[n]
	return id, ok
}

// Len reports how many distinct nodes have been added.
func (pm *PointerMap) Len() int { return len(pm.seq) }
