// Package plan implements stage cutting and the logical-to-physical
// lowering pass (spec §4.4): it turns a lop.Graph into a pop.Graph while
// simultaneously slicing the physical graph into Stages at Repartition
// boundaries, one RegisterAllocator per stage.
package plan

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/regalloc"
)

// Stage is a maximal POP subgraph not crossing a Repartition boundary
// (spec §3). It is immutable once compiled; Task (package runtime) is its
// per-partition runtime counterpart.
type Stage struct {
	ID                ids.StageId
	Root              pop.Key
	ParentStageID      ids.StageId
	HasParent          bool
	NPartitionsProducer int
	NPartitionsConsumer int
	alloc              *regalloc.Allocator
}

// RowWidth is the fixed width of every row flowing through this stage,
// determined by how many distinct registers its allocator handed out.
func (s *Stage) RowWidth() int { return s.alloc.Width() }

// Allocated reports whether r was allocated by this stage's allocator
// (spec §8 property 3, "register discipline").
func (s *Stage) Allocated(r ids.RegisterId) bool { return s.alloc.Allocated(r) }

// StageGraph holds every stage of a compiled flow, in allocation order: the
// root stage first, then each Repartition-cut stage as lowering recurses
// into it (see addStage and Stages).
type StageGraph struct {
	stages []*Stage
}

func newStageGraph() *StageGraph {
	return &StageGraph{}
}

// NewStageGraph returns an empty StageGraph, for callers (e.g. sched's
// task deserializer) that need one to decode into rather than compile.
func NewStageGraph() *StageGraph {
	return newStageGraph()
}

// addStage allocates a new stage whose parent is parentID (or no parent,
// for the plan root). The stage's root POPKey is filled in later, once
// lowering finishes compiling the stage's subtree (spec §4.4 step 5).
func (g *StageGraph) addStage(hasParent bool, parentID ids.StageId) *Stage {
	s := &Stage{
		ID:        ids.StageId(len(g.stages)),
		HasParent: hasParent,
		ParentStageID: parentID,
		alloc:     regalloc.New(),
	}
	g.stages = append(g.stages, s)
	return s
}

func (g *StageGraph) get(id ids.StageId) *Stage { return g.stages[int(id)] }

// Stages returns every stage, in allocation order: a stage is allocated
// before lowering recurses into the subtree that feeds it, so this is
// root-first (parents before the children whose output they consume),
// the reverse of the execution order spec §4.6 requires. Callers that need
// execution order (leaves/producers before their consumers) reverse this
// slice — see sched.executionOrder.
func (g *StageGraph) Stages() []*Stage { return g.stages }

// Allocator returns the register allocator owned by the stage with the
// given id, for compiling predicates/emitcols against that stage (spec
// §4.4 step 3).
func (g *StageGraph) Allocator(id ids.StageId) *regalloc.Allocator {
	return g.stages[int(id)].alloc
}
