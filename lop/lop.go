package lop

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/internal/graph"
)

// ColSet is an ordered, deduplicated set of QunCols. The real optimizer
// backs this with the bitset utility spec §1 calls out as external ("the
// auxiliary generic bitset used for column-set algebra"); here it is a
// thin slice wrapper, since the core only ever needs to iterate it in a
// stable order.
type ColSet struct {
	elems []ids.QunCol
}

func NewColSet(elems ...ids.QunCol) ColSet {
	out := make([]ids.QunCol, 0, len(elems))
	seen := make(map[ids.QunCol]bool, len(elems))
	for _, qc := range elems {
		if !seen[qc] {
			seen[qc] = true
			out = append(out, qc)
		}
	}
	return ColSet{elems: out}
}

func (s ColSet) Elements() []ids.QunCol { return s.elems }
func (s ColSet) Len() int               { return len(s.elems) }

// PartDesc carries a node's partition count, the sole partitioning fact
// the core needs from the optimizer's partition descriptor.
type PartDesc struct {
	NPartitions int
}

// EmitCol is a projected output column: the expression that computes it.
type EmitCol struct {
	Expr Expr
}

// Props is the property bag every LOP node carries (spec §4.4).
type Props struct {
	Preds     []Expr
	EmitCols  []EmitCol // nil unless this node projects
	PartDesc  PartDesc
	Quns      []ids.QunId
	Cols      ColSet
}

// Node is the sum type of logical operators the lowering pass understands
// (spec §4.4). Unlike POP, LOP is produced by an external collaborator, so
// this is intentionally the minimal shape the compiler needs to read.
type Node interface{ isLOP() }

type TableScan struct {
	InputCols ColSet
}

type HashJoin struct {
	EquiJoinPreds []Expr
}

type Repartition struct {
	CPartitions ColSet // the columns the hash key is computed over
}

type Aggregation struct {
	Keys []ids.QunCol
	Aggs []AggExpr
}

// AggFunc names a supported aggregate function (spec §9 Open Questions:
// "implement at minimum count(*) and sum(INT)").
type AggFunc uint8

const (
	AggCount AggFunc = iota
	AggSum
)

// AggExpr is one aggregate computed by an Aggregation node.
type AggExpr struct {
	Func AggFunc
	Arg  Expr // nil for COUNT(*)
}

func (TableScan) isLOP()   {}
func (HashJoin) isLOP()    {}
func (Repartition) isLOP() {}
func (Aggregation) isLOP() {}

// Graph is the logical operator DAG: the lowering pass's input.
type Graph = graph.Graph[Node, Props]

// Key addresses a node within a Graph.
type Key = graph.Key

// NewGraph returns an empty logical operator graph, for whatever builds
// one in place of the out-of-scope query-graph-model collaborator (spec
// §1) — today that's cmd/flare's own demo query and package tests.
func NewGraph() *Graph { return graph.New[Node, Props]() }
