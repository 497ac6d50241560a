package exec

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adarshpannu/flare/catalog"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

func writeTempCSVForRepartitionTest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "t.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// producerStage returns the first stage whose HasParent is true, i.e. the
// stage a Repartition node is compiled against (plan.compileLOP).
func producerStage(fl *plan.Flow) *plan.Stage {
	for _, st := range fl.StageGraph.Stages() {
		if st.HasParent {
			return st
		}
	}
	return nil
}

// TestRepartitionShuffleCorrectness mirrors S4 (testable property 6,
// "shuffle correctness"): every row of a 4-way hash repartition on rk lands
// in exactly one destination file, under the destination murmur3(rk) mod 4
// picks, and no row is dropped or duplicated along the way.
//
// This drives Repartition's own producing stage directly, bypassing
// sched.Scheduler: a Repartition is never the root of a real compiled Flow
// (it is always a CSVDir TableScan's own LOP child, discarded at the POP
// level — see plan.compileScan), so running the whole flow through the
// scheduler here would also re-dispatch the unconsumed top-level stage and
// redundantly redrive the same shuffle write.
func TestRepartitionShuffleCorrectness(t *testing.T) {
	path := writeTempCSVForRepartitionTest(t, "rk,rv\n1,a\n2,b\n3,c\n4,d\n5,e\n6,f\n7,g\n8,h\n")

	meta := catalog.NewMapMetadata()
	qun := ids.QunId(0)
	meta.Add(qun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  path,
		Header:    true,
		Separator: ',',
		Columns: []catalog.ColDesc{
			{Name: "rk", ColID: 0, DataType: row.TypeInt},
			{Name: "rv", ColID: 1, DataType: row.TypeStr},
		},
	})

	qcRK := ids.QunCol{Qun: qun, Col: 0}
	qcRV := ids.QunCol{Qun: qun, Col: 1}

	lg := lop.NewGraph()
	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(qcRK, qcRV)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: 1},
			Quns:     []ids.QunId{qun},
			Cols:     lop.NewColSet(qcRK, qcRV),
		},
		nil,
	)
	require.NoError(t, err)

	const npartitions = 4
	repKey, err := lg.AddNode(
		lop.Repartition{CPartitions: lop.NewColSet(qcRK)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: npartitions},
			Cols:     lop.NewColSet(qcRK, qcRV),
		},
		[]lop.Key{scanKey},
	)
	require.NoError(t, err)

	fl, err := plan.Compile(meta, lg, repKey, t.TempDir())
	require.NoError(t, err)

	stage := producerStage(fl)
	require.NotNil(t, stage, "Repartition must be compiled into its own stage")

	task := runtime.NewTask(stage.ID, ids.PartitionId(0), stage.RowWidth())
	require.NoError(t, os.MkdirAll(fl.TempDir, 0o755))

	more, err := Next(stage.Root, fl, stage, task, true)
	require.NoError(t, err)
	assert.False(t, more, "Repartition always reports no rows of its own")

	type rowKV struct {
		rk int64
		rv string
	}
	want := []rowKV{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}, {5, "e"}, {6, "f"}, {7, "g"}, {8, "h"}}

	got := make([]rowKV, 0, len(want))
	destOf := make(map[int64]int)
	for dest := 0; dest < npartitions; dest++ {
		dirname := filepath.Join(fl.TempDir, fmt.Sprintf("stage-%d-%d", int(stage.ParentStageID), dest))
		entries, err := os.ReadDir(dirname)
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		for _, e := range entries {
			f, err := os.Open(filepath.Join(dirname, e.Name()))
			require.NoError(t, err)
			scanner := bufio.NewScanner(f)
			for scanner.Scan() {
				fields := strings.Split(scanner.Text(), string(shuffleSeparator))
				require.Len(t, fields, 2)
				rk, err := strconv.ParseInt(fields[0], 10, 64)
				require.NoError(t, err)
				got = append(got, rowKV{rk, fields[1]})

				if prevDest, ok := destOf[rk]; ok {
					assert.Equal(t, prevDest, dest, "rk=%d must always hash to the same destination", rk)
				} else {
					destOf[rk] = dest
				}

				wantDest := int(murmur3.Sum64([]byte(fields[0])) % uint64(npartitions))
				assert.Equal(t, wantDest, dest, "rk=%d landed in the wrong destination", rk)
			}
			require.NoError(t, scanner.Err())
			f.Close()
		}
	}

	assert.ElementsMatch(t, want, got, "every source row must appear exactly once across all destinations")
}
