package exec

import (
	"fmt"

	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/runtime"
)

// csvDirState is the lazily-constructed runtime state for a CSVDir node
// (spec §4.5.2).
type csvDirState struct {
	iter *dirLineIter
}

// nextCSVDir implements the post-shuffle directory scan (spec §4.5.2). No
// header handling: shuffle files never carry one.
func nextCSVDir(n *pop.CSVDir, popKey pop.Key, task *runtime.Task) (bool, error) {
	st, _ := task.State(popKey).(*csvDirState)
	if st == nil {
		dirname := fmt.Sprintf("%s-%d", n.DirnamePrefix, int(task.PartitionID))
		iter, err := newDirLineIter(dirname)
		if err != nil {
			return false, err
		}
		st = &csvDirState{iter: iter}
		task.SetState(popKey, st)
	}

	line, ok, err := st.iter.next()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return true, parseLineInto(line, n.Separator, n.ColTypes, n.InputMap, &task.Row)
}
