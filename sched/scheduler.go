package sched

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

// Scheduler drives a compiled Flow to completion over a WorkerPool: one
// stage at a time, producers before the consumers that read their
// shuffled output, a stage's every partition task in flight together
// (spec §4.6, §5).
type Scheduler struct {
	pool *WorkerPool
}

// New creates a Scheduler backed by a freshly started pool of nthreads
// workers.
func New(nthreads int) *Scheduler {
	return &Scheduler{pool: NewWorkerPool(nthreads)}
}

// Close shuts down the underlying worker pool.
func (s *Scheduler) Close() { s.pool.Close() }

// Run executes every stage of fl to completion, in producer-before-consumer
// order, and returns the rows the final stage's root POP yielded across
// every partition (spec §4.6: "the scheduler... runs a Flow to
// completion"). fl.TempDir is minted once, at plan.Compile time (spec §3:
// the per-compile Flow id) — Run only needs to make sure the directory
// exists before any stage's Repartition writes a shuffle file under it.
func (s *Scheduler) Run(fl *plan.Flow) ([]row.Row, error) {
	if err := os.MkdirAll(fl.TempDir, 0o755); err != nil {
		return nil, errs.ErrIO.New(err)
	}

	// executionOrder runs every stage producer-before-consumer, so a
	// failure simply aborting this loop already satisfies spec §5's
	// cancellation policy: no stage that depends on a failed one's output
	// is ever reached, let alone dispatched.
	order := executionOrder(fl.StageGraph)

	var lastRows []row.Row
	for _, stage := range order {
		rows, err := s.runStage(fl, stage)
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", int(stage.ID), err)
		}
		lastRows = rows
	}
	return lastRows, nil
}

// runStage dispatches one task per partition of stage and waits for every
// one of them to report back before returning (spec §4.6: the scheduler
// "waits for all of a stage's tasks before advancing"), collecting
// whatever rows each partition's task produced.
func (s *Scheduler) runStage(fl *plan.Flow, stage *plan.Stage) ([]row.Row, error) {
	npartitions := stage.NPartitionsProducer
	if npartitions == 0 {
		npartitions = 1
	}

	for i := 0; i < npartitions; i++ {
		task := runtime.NewTask(stage.ID, ids.PartitionId(i), stage.RowWidth())
		payload, err := encodeTask(fl, stage, task)
		if err != nil {
			return nil, errs.ErrSerialization.New(err)
		}
		s.pool.Dispatch(i, payload)
	}

	var firstErr error
	var rows []row.Row
	for i := 0; i < npartitions; i++ {
		resp := <-s.pool.Responses()
		if resp.Err != nil {
			logrus.WithError(resp.Err).
				WithField("stage", int(resp.StageID)).
				WithField("partition", int(resp.PartitionID)).
				Error("task failed")
			if firstErr == nil {
				firstErr = resp.Err
			}
			continue
		}
		if len(resp.Rows) == 0 {
			continue
		}
		var partitionRows []row.Row
		if err := msgpack.Unmarshal(resp.Rows, &partitionRows); err != nil {
			return nil, errs.ErrSerialization.New(err)
		}
		rows = append(rows, partitionRows...)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return rows, nil
}

// executionOrder returns fl's stages sorted producers-before-consumers: a
// stage whose HasParent is true was cut at a Repartition and produces the
// shuffle output its parent (ParentStageID) consumes, so it must run before
// that parent. compileLOP allocates a cut stage before it recurses into the
// subtree that feeds it, so plan.StageGraph.Stages lists every parent
// before its children; reversing that allocation order puts every producer
// ahead of its consumer.
func executionOrder(sg *plan.StageGraph) []*plan.Stage {
	stages := sg.Stages()
	ordered := make([]*plan.Stage, len(stages))
	for i, st := range stages {
		ordered[len(stages)-1-i] = st
	}
	return ordered
}
