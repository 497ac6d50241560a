// Package exec implements the pull protocol (spec §4.5): one Next
// function per physical operator, plus the generic predicate/emit wrapper
// every operator is evaluated through. It is the counterpart of the
// teacher's sql/rowexec package — pop describes the shape of an operator,
// exec runs it.
package exec

import (
	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/pcode"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

// Next drives the operator at popKey (spec §4.5): it dispatches to the
// concrete implementation, then evaluates the node's predicates and emit
// columns against the row the implementation produced. isHead marks the
// stage driver's own call (the root of the pull chain); operators pass
// false when pulling from their own children.
func Next(popKey pop.Key, fl *plan.Flow, stage *plan.Stage, task *runtime.Task, isHead bool) (bool, error) {
	node, props, children := fl.PopGraph.Get(popKey)

	for {
		gotRow, err := dispatch(node, popKey, fl, stage, task, children, isHead)
		if err != nil {
			return false, err
		}
		if !gotRow {
			return false, nil
		}

		passed, err := evalPredicates(props.Predicates, task.Row)
		if err != nil {
			return false, err
		}
		if !passed {
			// Row failed a predicate; pull another from the same operator
			// rather than surfacing a hole in the stream.
			continue
		}

		if props.EmitCols != nil {
			emit, err := evalEmitCols(props.EmitCols, task.Row)
			if err != nil {
				return false, err
			}
			task.Emit = emit
		}
		return true, nil
	}
}

func dispatch(node pop.Node, popKey pop.Key, fl *plan.Flow, stage *plan.Stage, task *runtime.Task, children []pop.Key, isHead bool) (bool, error) {
	switch {
	case node.CSV != nil:
		return nextCSV(node.CSV, popKey, task)
	case node.CSVDir != nil:
		return nextCSVDir(node.CSVDir, popKey, task)
	case node.HashJoin != nil:
		return nextHashJoin(node.HashJoin, popKey, fl, stage, task, children)
	case node.Repartition != nil:
		return nextRepartition(node.Repartition, popKey, fl, stage, task, children)
	case node.Aggregation != nil:
		return nextAggregation(node.Aggregation, popKey, fl, stage, task, children)
	default:
		return false, errs.ErrSerialization.New("POP node has no variant set")
	}
}

func evalPredicates(preds []*pcode.PCode, r row.Row) (bool, error) {
	for _, p := range preds {
		result, err := p.Eval(r)
		if err != nil {
			return false, err
		}
		b, ok := result.Bool()
		if !ok {
			return false, errs.ErrTypeMismatch.New("predicate did not evaluate to BOOL")
		}
		if !b {
			return false, nil
		}
	}
	return true, nil
}

func evalEmitCols(emitcols []*pcode.PCode, r row.Row) (row.Row, error) {
	datums := make([]row.Datum, len(emitcols))
	for i, p := range emitcols {
		d, err := p.Eval(r)
		if err != nil {
			return row.Row{}, err
		}
		datums[i] = d
	}
	return row.RowOf(datums...), nil
}
