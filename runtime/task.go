// Package runtime holds the per-partition execution state that flows
// through the pull protocol (spec §4.5). It is a leaf package: it knows
// about ids, row and internal/graph only, never about pop or plan, so exec can depend on
// both runtime and plan without a cycle.
package runtime

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/internal/graph"
	"github.com/adarshpannu/flare/row"
)

// Task is one partition's worth of work within a stage: {stage_id,
// partition_id, operator_runtime_states} (spec §3 Task). It is dispatched
// to a worker, serialized across the wire via Flow/Stage/Task the way the
// original bincode-serializes ThreadPoolMessage::RunTask payloads.
type Task struct {
	PartitionID ids.PartitionId
	StageID     ids.StageId

	// Row is the single register buffer shared by every operator in the
	// stage's pull chain for this partition; operators read and write
	// their own registers in place rather than copying rows between
	// stages (spec §3 Row: "rows do not cross stage boundaries in
	// memory").
	Row row.Row

	// Emit holds the most recently projected row, populated whenever the
	// current POP node carries emitcols and its predicates passed. Nothing
	// in the pull chain reads it back — it exists for whoever collects a
	// stage's final output (sched's runTask, which returns it in place of
	// Row when it is set). Repartition does not read it: it evaluates its
	// own emitcols against Row.
	Emit row.Row

	// States holds per-operator runtime state (open file handles, hash
	// tables, output buffers) keyed by POP node, constructed lazily on
	// first Next call. It is never serialized — only PartitionID/StageID,
	// Row and Emit cross the wire (spec §5 and §9: operator runtime state is
	// explicitly excluded from the serialization contract).
	States map[graph.Key]interface{}
}

// NewTask creates a Task with a row buffer sized to rowWidth (the owning
// stage's register count) and a lazily-populated state map.
func NewTask(stageID ids.StageId, partitionID ids.PartitionId, rowWidth int) *Task {
	return &Task{
		PartitionID: partitionID,
		StageID:     stageID,
		Row:         row.NewRow(rowWidth),
		States:      make(map[graph.Key]interface{}),
	}
}

// State returns the operator-private state stored under key, or nil if
// none has been set yet.
func (t *Task) State(key graph.Key) interface{} {
	return t.States[key]
}

// SetState installs the operator-private state for key.
func (t *Task) SetState(key graph.Key, state interface{}) {
	t.States[key] = state
}
