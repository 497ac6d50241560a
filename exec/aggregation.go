package exec

import (
	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

type aggGroup struct {
	key  []row.Datum
	accs []int64
}

// aggState is the per-task grouping map plus emission cursor (spec
// §4.5.5). Groups are kept in a slice and matched linearly — grouping
// cardinality within one task is expected to be small, and this avoids
// needing a hashable encoding of an arbitrary Datum key tuple.
type aggState struct {
	groups []*aggGroup
	emitIx int
}

// nextAggregation implements grouping and aggregation (spec §4.5.5):
// count(*) and sum(INT), with NULL grouping keys forming their own group
// (spec §9 Open Question resolution, via row.Datum.GroupEqual).
func nextAggregation(n *pop.Aggregation, popKey pop.Key, fl *plan.Flow, stage *plan.Stage, task *runtime.Task, children []pop.Key) (bool, error) {
	st, _ := task.State(popKey).(*aggState)
	if st == nil {
		if len(children) != 1 {
			return false, errs.ErrSerialization.New("Aggregation must have exactly one child")
		}
		child := children[0]
		st = &aggState{}

		for {
			ok, err := Next(child, fl, stage, task, false)
			if err != nil {
				return false, err
			}
			if !ok {
				break
			}

			key, err := evalKeyExprs(n.KeyExprs, task.Row)
			if err != nil {
				return false, err
			}
			g := st.find(key)
			if g == nil {
				g = &aggGroup{key: key, accs: make([]int64, len(n.Aggs))}
				st.groups = append(st.groups, g)
			}
			for i, a := range n.Aggs {
				switch a.Func {
				case pop.AggCount:
					g.accs[i]++
				case pop.AggSum:
					d, err := a.Arg.Eval(task.Row)
					if err != nil {
						return false, err
					}
					v, ok := d.Int()
					if !ok {
						return false, errs.ErrTypeMismatch.New("SUM is only defined over INT")
					}
					g.accs[i] += v
				}
			}
		}

		// Empty input with no grouping keys still yields one row of
		// identity accumulators (spec §4.5.5); with grouping keys it
		// yields nothing.
		if len(st.groups) == 0 && len(n.KeyExprs) == 0 {
			st.groups = append(st.groups, &aggGroup{accs: make([]int64, len(n.Aggs))})
		}

		task.SetState(popKey, st)
	}

	if st.emitIx >= len(st.groups) {
		return false, nil
	}
	g := st.groups[st.emitIx]
	st.emitIx++

	for i, keyExpr := range n.KeyExprs {
		reg, ok := keyExpr.SoleRegister()
		if !ok {
			return false, errs.ErrSerialization.New("aggregation key expression is not a bare column reference")
		}
		task.Row.SetColumn(reg, g.key[i])
	}
	for i, reg := range n.AggRegs {
		task.Row.SetColumn(reg, row.NewInt(g.accs[i]))
	}
	return true, nil
}

func (st *aggState) find(key []row.Datum) *aggGroup {
	for _, g := range st.groups {
		if keysEqual(g.key, key) {
			return g
		}
	}
	return nil
}
