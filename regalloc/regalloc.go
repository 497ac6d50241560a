// Package regalloc implements the per-stage register allocator (spec §4.1):
// a first-come mapping from (quantifier, column) to a dense RegisterId.
// Each stage owns exactly one allocator; two stages may assign different ids
// for the same QunCol, which is why rows never cross a stage boundary
// in-memory (spec §3).
package regalloc

import "github.com/adarshpannu/flare/ids"

// Allocator assigns dense RegisterIds to QunCols on first sight and returns
// the same id on every later lookup of that QunCol.
type Allocator struct {
	ids    map[ids.QunCol]ids.RegisterId
	nextID ids.RegisterId
}

func New() *Allocator {
	return &Allocator{ids: make(map[ids.QunCol]ids.RegisterId)}
}

// GetID returns the RegisterId assigned to qc, allocating a new one the
// first time qc is seen.
func (a *Allocator) GetID(qc ids.QunCol) ids.RegisterId {
	if id, ok := a.ids[qc]; ok {
		return id
	}
	id := a.nextID
	a.ids[qc] = id
	a.nextID++
	return id
}

// NewRegister allocates a fresh register bound to no QunCol. Used for
// values synthesized rather than read straight off a quantifier's column —
// an Aggregation node's aggregate outputs have no (qun, col) identity of
// their own.
func (a *Allocator) NewRegister() ids.RegisterId {
	id := a.nextID
	a.nextID++
	return id
}

// Width is the number of distinct registers allocated so far; it becomes
// the fixed row width for every task in this stage.
func (a *Allocator) Width() int { return int(a.nextID) }

// Allocated reports whether r was handed out by this allocator, the basis
// for spec §8 property 3 ("register discipline").
func (a *Allocator) Allocated(r ids.RegisterId) bool {
	return r < a.nextID
}
