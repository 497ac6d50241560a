package exec

import (
	"strings"

	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

// csvState is the lazily-constructed, non-serializable runtime state for a
// CSV node within one task (spec §4.5.1, §9 "per-task map POPKey ->
// OperatorState").
type csvState struct {
	iter *lineIter
}

// nextCSV implements the single-file partitioned scan (spec §4.5.1).
func nextCSV(n *pop.CSV, popKey pop.Key, task *runtime.Task) (bool, error) {
	st, _ := task.State(popKey).(*csvState)
	if st == nil {
		partition := n.Partitions[int(task.PartitionID)]
		iter, err := newLineIter(n.Pathname, partition.Start, partition.End)
		if err != nil {
			return false, err
		}
		if task.PartitionID == 0 && n.Header {
			iter.next() // consume the header line
		}
		st = &csvState{iter: iter}
		task.SetState(popKey, st)
	}

	line, ok := st.iter.next()
	if !ok {
		st.iter.close()
		return false, nil
	}
	return true, parseLineInto(line, n.Separator, n.ColTypes, n.InputMap, &task.Row)
}

func parseLineInto(line string, sep byte, coltypes []pop.ColType, inputMap map[ids.ColId]ids.RegisterId, r *row.Row) error {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), string(sep))
	for colIx, reg := range inputMap {
		ix := int(colIx)
		if ix >= len(fields) {
			return errs.ErrParseError.New(line, "missing column")
		}
		d, err := row.ParseDatum(fields[ix], toRowDataType(coltypes[ix]))
		if err != nil {
			return err
		}
		r.SetColumn(reg, d)
	}
	return nil
}

func toRowDataType(t pop.ColType) row.DataType {
	switch t {
	case pop.ColInt:
		return row.TypeInt
	case pop.ColStr:
		return row.TypeStr
	case pop.ColBool:
		return row.TypeBool
	case pop.ColDouble:
		return row.TypeDouble
	default:
		return row.TypeInt
	}
}
