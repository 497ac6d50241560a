// Package pop defines the physical operator graph (spec §4.3): a DAG of
// physical operator nodes, each carrying the static data the exec package's
// pull-protocol implementations need at runtime (file paths, column types,
// join/aggregation descriptors). pop never runs an operator; package exec
// does, the same split the teacher draws between sql/plan (shape) and
// sql/rowexec (execution).
package pop

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/internal/graph"
	"github.com/adarshpannu/flare/pcode"
)

// Key stably addresses a POP node; it survives task serialization (spec
// §4.3).
type Key = graph.Key

// Props is the per-node property bag shared by every operator variant
// (spec §3).
type Props struct {
	Predicates  []*pcode.PCode `msgpack:"predicates"`
	EmitCols    []*pcode.PCode `msgpack:"emitcols"`
	NPartitions int            `msgpack:"npartitions"`
}

// CSV is the single-file partitioned scan operator's static description
// (spec §4.5.1).
type CSV struct {
	Pathname   string                          `msgpack:"pathname"`
	ColTypes   []ColType                       `msgpack:"coltypes"`
	Header     bool                            `msgpack:"header"`
	Separator  byte                            `msgpack:"separator"`
	Partitions []TextFilePartition             `msgpack:"partitions"`
	InputMap   map[ids.ColId]ids.RegisterId    `msgpack:"input_map"`
}

// ColType mirrors catalog.DataType without importing the catalog package
// (pop must not depend on the external collaborator's package, only on the
// scalar it needs).
type ColType uint8

const (
	ColInt ColType = iota
	ColStr
	ColBool
	ColDouble
)

// TextFilePartition is a byte-offset range within a single CSV file (spec
// §4.5.1), computed at compile time by plan.evenByteRanges (an even byte
// split, standing in for the out-of-scope filesystem-partitioning
// collaborator, spec §1) and handed to CSV.
type TextFilePartition struct {
	Start uint64 `msgpack:"start"`
	End   uint64 `msgpack:"end"`
}

// CSVDir is the post-shuffle scan operator's static description (spec
// §4.5.2). DirnamePrefix is "{flow_tempdir}/stage-{consumer_stage_id}",
// derived at compile time (plan.compileScan) from the same values
// Repartition's shuffle write path is keyed by, so a task reads exactly
// what its producer stage wrote under "{DirnamePrefix}-{task_partition}".
type CSVDir struct {
	DirnamePrefix string                       `msgpack:"dirname_prefix"`
	ColTypes      []ColType                    `msgpack:"coltypes"`
	Header        bool                         `msgpack:"header"`
	Separator     byte                         `msgpack:"separator"`
	NPartitions   int                          `msgpack:"npartitions"`
	InputMap      map[ids.ColId]ids.RegisterId `msgpack:"input_map"`
}

// HashJoin is the hash join operator's static description (spec §4.5.3).
// Children are ordered [probe, build] by lowering (spec §4.4 step 4).
// BuildKeyExprs/ProbeKeyExprs are the compiled equi-join key expressions,
// one pair per equality predicate.
type HashJoin struct {
	BuildKeyExprs []*pcode.PCode `msgpack:"build_key_exprs"`
	ProbeKeyExprs []*pcode.PCode `msgpack:"probe_key_exprs"`
	Outer         bool           `msgpack:"outer"` // always false; see SPEC_FULL.md Open Question 3
}

// Repartition is the shuffle operator's static description (spec §4.5.4).
// Exactly one of OutputMap/emitcols (carried via Props.EmitCols) is set.
type Repartition struct {
	OutputMap []ids.RegisterId `msgpack:"output_map"`
	KeyExprs  []*pcode.PCode   `msgpack:"key_exprs"`
}

// Aggregation is the grouping/aggregate operator's static description
// (spec §4.5.5).
type Aggregation struct {
	KeyExprs []*pcode.PCode `msgpack:"key_exprs"`
	Aggs     []AggDesc      `msgpack:"aggs"`
	// AggRegs holds the register each Aggs entry's result is written to
	// when a group row is emitted, one per Aggs entry; freshly allocated
	// at compile time since an aggregate result has no (qun, col) of its
	// own.
	AggRegs []ids.RegisterId `msgpack:"agg_regs"`
}

// AggFunc names a supported aggregate function.
type AggFunc uint8

const (
	AggCount AggFunc = iota
	AggSum
)

// AggDesc is one aggregate computed by an Aggregation node. Arg is nil for
// COUNT(*).
type AggDesc struct {
	Func AggFunc        `msgpack:"func"`
	Arg  *pcode.PCode   `msgpack:"arg"`
}

// Node is the sum type of physical operators (spec §4.3). Exactly one
// field is non-nil, matching the original's closed `enum POP`.
type Node struct {
	CSV         *CSV
	CSVDir      *CSVDir
	HashJoin    *HashJoin
	Repartition *Repartition
	Aggregation *Aggregation
}

// IsStageRoot reports whether this node is always the root of its stage
// (spec §4.5.4: "Always a stage root").
func (n Node) IsStageRoot() bool { return n.Repartition != nil }

// Graph is the physical operator DAG.
type Graph = graph.Graph[Node, Props]

func NewGraph() *Graph { return graph.New[Node, Props]() }
