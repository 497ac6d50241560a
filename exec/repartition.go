package exec

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaolacci/murmur3"

	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

const shuffleSeparator = '|'

// nextRepartition implements the shuffle write (spec §4.5.4). It is always
// a stage root and the sink of its producing stage: the first (and only)
// call drains its single child to exhaustion, hash-partitions every row
// into "{tempdir}/stage-{consumer_stage_id}-{dest}/{source_partition}", then
// always reports Ok(false) — nothing ever pulls a row out of a Repartition.
// The directory is keyed by stage.ParentStageID, not stage's own ID: that
// is the stage that will actually read these files back with a CSVDir scan
// compiled against the same path (plan.compileScan's TableCSVDir case).
func nextRepartition(n *pop.Repartition, popKey pop.Key, fl *plan.Flow, stage *plan.Stage, task *runtime.Task, children []pop.Key) (bool, error) {
	if len(children) != 1 {
		return false, errs.ErrSerialization.New("Repartition must have exactly one child")
	}
	props := fl.PopGraph.Props(popKey)
	child := children[0]

	npartitions := props.NPartitions
	writers := make(map[int]*bufio.Writer, npartitions)
	files := make(map[int]*os.File, npartitions)
	defer func() {
		for _, w := range writers {
			w.Flush()
		}
		for _, f := range files {
			f.Close()
		}
	}()

	for {
		ok, err := Next(child, fl, stage, task, false)
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}

		fields, err := repartitionFields(n, props, task.Row)
		if err != nil {
			return false, err
		}

		key, err := evalKeyExprs(n.KeyExprs, task.Row)
		if err != nil {
			return false, err
		}
		dest := int(destPartition(key, npartitions))

		w, ok := writers[dest]
		if !ok {
			dirname := filepath.Join(fl.TempDir, fmt.Sprintf("stage-%d-%d", int(stage.ParentStageID), dest))
			if err := os.MkdirAll(dirname, 0o755); err != nil {
				return false, errs.ErrIO.New(err.Error())
			}
			f, err := os.Create(filepath.Join(dirname, fmt.Sprintf("%d", int(task.PartitionID))))
			if err != nil {
				return false, errs.ErrIO.New(err.Error())
			}
			files[dest] = f
			w = bufio.NewWriter(f)
			writers[dest] = w
		}

		line := row.RowOf(fields...).EncodeFields(shuffleSeparator)
		if _, err := w.WriteString(line); err != nil {
			return false, errs.ErrIO.New(err.Error())
		}
		if _, err := w.WriteString("\n"); err != nil {
			return false, errs.ErrIO.New(err.Error())
		}
	}

	return false, nil
}

// repartitionFields resolves the ordered output fields for one row: either
// the node's output_map registers, or its emitcols — exactly one is set
// (spec §4.4 step 4).
func repartitionFields(n *pop.Repartition, props pop.Props, r row.Row) ([]row.Datum, error) {
	if n.OutputMap != nil {
		fields := make([]row.Datum, len(n.OutputMap))
		for i, reg := range n.OutputMap {
			fields[i] = r.GetColumn(reg)
		}
		return fields, nil
	}
	fields := make([]row.Datum, len(props.EmitCols))
	for i, p := range props.EmitCols {
		d, err := p.Eval(r)
		if err != nil {
			return nil, err
		}
		fields[i] = d
	}
	return fields, nil
}

// destPartition computes the shuffle destination for a key tuple: the
// murmur3 hash of the key's canonical textual encoding, mod npartitions
// (spec §9 Open Question: "choose a stable, portable 64-bit hash").
func destPartition(key []row.Datum, npartitions int) uint64 {
	r := row.RowOf(key...)
	sum := murmur3.Sum64([]byte(r.EncodeFields(shuffleSeparator)))
	return sum % uint64(npartitions)
}
