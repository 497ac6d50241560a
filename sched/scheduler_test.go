package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshpannu/flare/catalog"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/row"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// TestSchedulerRunScanWithPredicate mirrors S1: a single-partition select
// a, b from T where a > 1 yields exactly one row, (2, "y").
func TestSchedulerRunScanWithPredicate(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,x\n2,y\n")

	meta := catalog.NewMapMetadata()
	qun := ids.QunId(0)
	meta.Add(qun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  path,
		Header:    true,
		Separator: ',',
		Columns: []catalog.ColDesc{
			{Name: "a", ColID: 0, DataType: row.TypeInt},
			{Name: "b", ColID: 1, DataType: row.TypeStr},
		},
	})

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

	fl, err := plan.Compile(meta, lg, scanKey, t.TempDir())
	require.NoError(t, err)

	s := New(2)
	defer s.Close()

	rows, err := s.Run(fl)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	a, ok := rows[0].GetColumn(0).Int()
	require.True(t, ok)
	assert.Equal(t, int64(2), a)
	b, ok := rows[0].GetColumn(1).Str()
	require.True(t, ok)
	assert.Equal(t, "y", b)
}

// TestSchedulerRunAggregation mirrors S5: select a, count(*) from T group
// by a over {(1,_), (1,_), (2,_)} yields {(1,2), (2,1)} as a multiset.
func TestSchedulerRunAggregation(t *testing.T) {
	path := writeTempCSV(t, "a,b\n1,x\n1,y\n2,z\n")

	meta := catalog.NewMapMetadata()
	qun := ids.QunId(0)
	meta.Add(qun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  path,
		Header:    true,
		Separator: ',',
		Columns: []catalog.ColDesc{
			{Name: "a", ColID: 0, DataType: row.TypeInt},
			{Name: "b", ColID: 1, DataType: row.TypeStr},
		},
	})

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

	fl, err := plan.Compile(meta, lg, aggKey, t.TempDir())
	require.NoError(t, err)

	s := New(2)
	defer s.Close()

	rows, err := s.Run(fl)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	counts := map[int64]int64{}
	for _, r := range rows {
		key, ok := r.GetColumn(0).Int()
		require.True(t, ok)
		cnt, ok := r.GetColumn(1).Int()
		require.True(t, ok)
		counts[key] = cnt
	}
	assert.Equal(t, map[int64]int64{1: 2, 2: 1}, counts)
}
