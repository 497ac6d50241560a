package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshpannu/flare/catalog"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/row"
)

// TestSchedulerRunHashJoin mirrors S3: select r.rk, r.rv, s.sv from R join S
// on r.rk = s.sk, over R={(1,"a"),(2,"b")} and S={(1,"p"),(1,"q"),(3,"z")},
// yields {(1,"a","p"),(1,"a","q")} as a multiset.
func TestSchedulerRunHashJoin(t *testing.T) {
	rPath := writeTempCSV(t, "rk,rv\n1,a\n2,b\n")
	sPath := writeTempCSV(t, "sk,sv\n1,p\n1,q\n3,z\n")

	meta := catalog.NewMapMetadata()
	rQun, sQun := ids.QunId(0), ids.QunId(1)
	meta.Add(rQun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  rPath,
		Header:    true,
		Separator: ',',
		Columns: []catalog.ColDesc{
			{Name: "rk", ColID: 0, DataType: row.TypeInt},
			{Name: "rv", ColID: 1, DataType: row.TypeStr},
		},
	})
	meta.Add(sQun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  sPath,
		Header:    true,
		Separator: ',',
		Columns: []catalog.ColDesc{
			{Name: "sk", ColID: 0, DataType: row.TypeInt},
			{Name: "sv", ColID: 1, DataType: row.TypeStr},
		},
	})

	rk := ids.QunCol{Qun: rQun, Col: 0}
	rv := ids.QunCol{Qun: rQun, Col: 1}
	sk := ids.QunCol{Qun: sQun, Col: 0}
	sv := ids.QunCol{Qun: sQun, Col: 1}

	lg := lop.NewGraph()

	probeKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(rk, rv)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{rQun},
			Cols:     lop.NewColSet(rk, rv),
		},
		nil,
	)
	require.NoError(t, err)

	buildKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(sk, sv)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{sQun},
			Cols:     lop.NewColSet(sk, sv),
		},
		nil,
	)
	require.NoError(t, err)

	joinKey, err := lg.AddNode(
		lop.HashJoin{
			EquiJoinPreds: []lop.Expr{
				lop.Rel{Op: lop.RelEQ, LHS: lop.Column{Qun: rQun, Col: 0}, RHS: lop.Column{Qun: sQun, Col: 0}},
			},
		},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{rQun, sQun},
			Cols:     lop.NewColSet(rk, rv, sv),
			EmitCols: []lop.EmitCol{
				{Expr: lop.Column{Qun: rQun, Col: 0}},
				{Expr: lop.Column{Qun: rQun, Col: 1}},
				{Expr: lop.Column{Qun: sQun, Col: 1}},
			},
		},
		[]lop.Key{probeKey, buildKey},
	)
	require.NoError(t, err)

	fl, err := plan.Compile(meta, lg, joinKey, t.TempDir())
	require.NoError(t, err)

	s := New(2)
	defer s.Close()

	rows, err := s.Run(fl)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	type triple struct {
		rk int64
		rv string
		sv string
	}
	got := make(map[triple]int)
	for _, r := range rows {
		a, ok := r.GetColumn(0).Int()
		require.True(t, ok)
		b, ok := r.GetColumn(1).Str()
		require.True(t, ok)
		c, ok := r.GetColumn(2).Str()
		require.True(t, ok)
		got[triple{a, b, c}]++
	}
	assert.Equal(t, map[triple]int{
		{1, "a", "p"}: 1,
		{1, "a", "q"}: 1,
	}, got)
}
