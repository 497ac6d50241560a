// Package sched expands a compiled Flow into per-partition tasks and runs
// them over a fixed worker pool (spec §4.6, §5): one dispatch channel per
// worker, one shared response channel, three message kinds mirroring the
// original's ThreadPoolMessage.
package sched

import "github.com/adarshpannu/flare/ids"

// MessageKind discriminates a Message the scheduler exchanges with
// workers.
type MessageKind uint8

const (
	// RunTask carries a serialized (Flow, Stage, Task) tuple for a worker
	// to deserialize and run to completion.
	RunTask MessageKind = iota
	// EndTask asks a worker to shut down gracefully.
	EndTask
	// TaskEnded acknowledges a RunTask's completion, successful or not.
	TaskEnded
)

// Message is what flows over the scheduler<->worker channels.
type Message struct {
	Kind MessageKind

	// Payload is the serialized (Flow, Stage, Task) tuple, set only on
	// RunTask.
	Payload []byte

	// The following are set only on TaskEnded, identifying which task
	// finished and with what outcome.
	StageID     ids.StageId
	PartitionID ids.PartitionId
	Err         error

	// Rows is the msgpack-encoded []row.Row this partition's task produced
	// at the top of its pull chain (spec §4.6): nil for a Repartition-rooted
	// stage, whose every row is already consumed into shuffle files by the
	// time Next returns.
	Rows []byte
}
