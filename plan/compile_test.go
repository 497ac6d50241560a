package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshpannu/flare/catalog"
	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/row"
)

func tableTQun(meta *catalog.MapMetadata) ids.QunId {
	qun := ids.QunId(0)
	meta.Add(qun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  "/dev/null",
		Header:    false,
		Separator: ',',
		Columns: []catalog.ColDesc{
			{Name: "a", ColID: 0, DataType: row.TypeInt},
			{Name: "b", ColID: 1, DataType: row.TypeStr},
		},
	})
	return qun
}

// TestCompileScanWithPredicateAndProjection compiles a single-partition
// select a, b from T where a > 1, mirroring S1.
func TestCompileScanWithPredicateAndProjection(t *testing.T) {
	meta := catalog.NewMapMetadata()
	qun := tableTQun(meta)
	qcA := ids.QunCol{Qun: qun, Col: 0}
	qcB := ids.QunCol{Qun: qun, Col: 1}

	lg := lop.NewGraph()
	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(qcA, qcB)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{qun},
			Cols:     lop.NewColSet(qcA, qcB),
			Preds: []lop.Expr{
				lop.Rel{Op: lop.RelGT, LHS: lop.Column{Qun: qun, Col: 0}, RHS: lop.Literal{Value: row.NewInt(1)}},
			},
			EmitCols: []lop.EmitCol{
				{Expr: lop.Column{Qun: qun, Col: 0}},
				{Expr: lop.Column{Qun: qun, Col: 1}},
			},
		},
		nil,
	)
	require.NoError(t, err)

	fl, err := Compile(meta, lg, scanKey, "")
	require.NoError(t, err)
	require.NotNil(t, fl)

	node, props, _ := fl.PopGraph.Get(fl.Root)
	require.NotNil(t, node.CSV)
	assert.Len(t, props.Predicates, 1)
	assert.Len(t, props.EmitCols, 2)
	assert.Equal(t, 1, props.NPartitions)

	stages := fl.StageGraph.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, 1, stages[0].NPartitionsProducer)
}

// TestCompileScanMultiPartition exercises S2's multi-partition scan shape:
// the CSV node ends up with one TextFilePartition per requested partition.
func TestCompileScanMultiPartition(t *testing.T) {
	meta := catalog.NewMapMetadata()
	qun := tableTQun(meta)
	qcA := ids.QunCol{Qun: qun, Col: 0}

	lg := lop.NewGraph()
	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(qcA)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 2},
			Quns:     []ids.QunId{qun},
			Cols:     lop.NewColSet(qcA),
		},
		nil,
	)
	require.NoError(t, err)

	fl, err := Compile(meta, lg, scanKey, "")
	require.NoError(t, err)

	node, _, _ := fl.PopGraph.Get(fl.Root)
	require.NotNil(t, node.CSV)
	assert.Len(t, node.CSV.Partitions, 2)
}

// TestCompileAggregation mirrors S5: select a, count(*) from T group by a.
func TestCompileAggregation(t *testing.T) {
	meta := catalog.NewMapMetadata()
	qun := tableTQun(meta)
	qcA := ids.QunCol{Qun: qun, Col: 0}

	lg := lop.NewGraph()
	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(qcA)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{qun},
			Cols:     lop.NewColSet(qcA),
		},
		nil,
	)
	require.NoError(t, err)

	aggKey, err := lg.AddNode(
		lop.Aggregation{
			Keys: []ids.QunCol{qcA},
			Aggs: []lop.AggExpr{{Func: lop.AggCount}},
		},
		lop.Props{PartDesc: lop.PartDesc{NPartitions: 1}},
		[]lop.Key{scanKey},
	)
	require.NoError(t, err)

	fl, err := Compile(meta, lg, aggKey, "")
	require.NoError(t, err)

	node, _, children := fl.PopGraph.Get(fl.Root)
	require.NotNil(t, node.Aggregation)
	require.Len(t, node.Aggregation.KeyExprs, 1)
	require.Len(t, node.Aggregation.Aggs, 1)
	assert.Equal(t, 1, len(node.Aggregation.AggRegs))
	require.Len(t, children, 1)
}

// TestCompileUnknownColumn mirrors S6: referencing a column the table
// descriptor doesn't carry fails at compile time with ErrColumnNotFound.
func TestCompileUnknownColumn(t *testing.T) {
	meta := catalog.NewMapMetadata()
	qun := tableTQun(meta)
	bogus := ids.QunCol{Qun: qun, Col: 99}

	lg := lop.NewGraph()
	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(bogus)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{qun},
			Cols:     lop.NewColSet(bogus),
		},
		nil,
	)
	require.NoError(t, err)

	_, err = Compile(meta, lg, scanKey, "")
	require.Error(t, err)
	assert.True(t, errs.ErrColumnNotFound.Is(err))
}

// TestCompileUnknownTable mirrors the quantifier-resolution half of S6:
// a TableScan whose quantifier isn't in the catalog fails with
// ErrUnknownTable rather than panicking.
func TestCompileUnknownTable(t *testing.T) {
	meta := catalog.NewMapMetadata()
	missingQun := ids.QunId(7)

	lg := lop.NewGraph()
	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.ColSet{}},
		lop.Props{PartDesc: lop.PartDesc{NPartitions: 1}, Quns: []ids.QunId{missingQun}},
		nil,
	)
	require.NoError(t, err)

	_, err = Compile(meta, lg, scanKey, "")
	require.Error(t, err)
	assert.True(t, errs.ErrUnknownTable.Is(err))
}
