package exec

import (
	"github.com/mitchellh/hashstructure"

	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/pcode"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

type buildEntry struct {
	key []row.Datum
	row row.Row
}

// hashJoinState is the per-task build table plus probe-side cursor (spec
// §4.5.3). It is rebuilt from scratch on every task since it holds a live
// hash table, which cannot be serialized (spec §9).
type hashJoinState struct {
	buckets    map[uint64][]buildEntry
	probeChild pop.Key
	matches    []buildEntry
	matchIx    int
}

// nextHashJoin implements the pull-based hash join (spec §4.5.3): children
// are [probe, build]; the build child is fully drained into a hash table on
// the first call, then every subsequent call advances the probe cursor,
// emitting one merged row per matching build entry.
func nextHashJoin(n *pop.HashJoin, popKey pop.Key, fl *plan.Flow, stage *plan.Stage, task *runtime.Task, children []pop.Key) (bool, error) {
	st, _ := task.State(popKey).(*hashJoinState)
	if st == nil {
		probeChild, buildChild := children[0], children[1]
		st = &hashJoinState{buckets: make(map[uint64][]buildEntry), probeChild: probeChild}
		for {
			ok, err := Next(buildChild, fl, stage, task, false)
			if err != nil {
				return false, err
			}
			if !ok {
				break
			}
			key, err := evalKeyExprs(n.BuildKeyExprs, task.Row)
			if err != nil {
				return false, err
			}
			h, err := hashKey(key)
			if err != nil {
				return false, err
			}
			st.buckets[h] = append(st.buckets[h], buildEntry{key: key, row: task.Row.Clone()})
		}
		task.SetState(popKey, st)
	}

	for {
		if st.matchIx < len(st.matches) {
			m := st.matches[st.matchIx]
			st.matchIx++
			mergeRow(&task.Row, m.row)
			return true, nil
		}

		ok, err := Next(st.probeChild, fl, stage, task, false)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}

		key, err := evalKeyExprs(n.ProbeKeyExprs, task.Row)
		if err != nil {
			return false, err
		}
		h, err := hashKey(key)
		if err != nil {
			return false, err
		}

		st.matches = st.matches[:0]
		for _, cand := range st.buckets[h] {
			if keysEqual(cand.key, key) {
				st.matches = append(st.matches, cand)
			}
		}
		st.matchIx = 0
	}
}

func evalKeyExprs(exprs []*pcode.PCode, r row.Row) ([]row.Datum, error) {
	key := make([]row.Datum, len(exprs))
	for i, p := range exprs {
		d, err := p.Eval(r)
		if err != nil {
			return nil, err
		}
		key[i] = d
	}
	return key, nil
}

func keysEqual(a, b []row.Datum) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].GroupEqual(b[i]) {
			return false
		}
	}
	return true
}

func hashKey(key []row.Datum) (uint64, error) {
	values := make([]interface{}, len(key))
	for i, d := range key {
		values[i] = datumHashValue(d)
	}
	h, err := hashstructure.Hash(values, nil)
	if err != nil {
		return 0, errs.ErrSerialization.New(err.Error())
	}
	return h, nil
}

func datumHashValue(d row.Datum) interface{} {
	switch d.Tag() {
	case row.TagInt:
		v, _ := d.Int()
		return v
	case row.TagStr:
		v, _ := d.Str()
		return v
	case row.TagBool:
		v, _ := d.Bool()
		return v
	case row.TagDouble:
		v, _ := d.Double()
		return v
	default:
		return nil
	}
}

// mergeRow overlays every non-NULL register of build onto dst, leaving
// dst's probe-side registers (already populated by the probe pull) intact.
// Build-side registers are guaranteed non-NULL in the common case of
// scan-sourced data, which keeps this a safe merge without tracking which
// registers belong to which side of the join (spec leaves HashJoin's exact
// register-merge strategy unspecified; see DESIGN.md).
func mergeRow(dst *row.Row, build row.Row) {
	for i := 0; i < build.Width(); i++ {
		reg := ids.RegisterId(i)
		d := build.GetColumn(reg)
		if !d.IsNull() {
			dst.SetColumn(reg, d)
		}
	}
}
