package sched

import (
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	msgpack "gopkg.in/vmihailenco/msgpack.v2"

	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/exec"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/runtime"
)

// WorkerPool is a fixed-size pool of goroutines, each with its own inbound
// dispatch channel and all sharing one response channel — the same shape
// as the original's preemptive OS-thread pool (spec §5), ported to
// goroutines and Go channels.
type WorkerPool struct {
	toWorker []chan Message
	fromWorker chan Message
}

// NewWorkerPool starts n workers and returns the pool that dispatches to
// them.
func NewWorkerPool(n int) *WorkerPool {
	wp := &WorkerPool{
		toWorker:   make([]chan Message, n),
		fromWorker: make(chan Message, n*4),
	}
	for i := range wp.toWorker {
		wp.toWorker[i] = make(chan Message, 4)
		go wp.runWorker(i, wp.toWorker[i])
	}
	return wp
}

// Size is the worker count, used to compute worker_index = partition_id
// mod worker_count (spec §4.6).
func (wp *WorkerPool) Size() int { return len(wp.toWorker) }

func (wp *WorkerPool) runWorker(id int, inbound chan Message) {
	log := logrus.WithField("worker", id)
	for msg := range inbound {
		switch msg.Kind {
		case EndTask:
			log.Debug("worker shutting down")
			return
		case RunTask:
			stageID, partitionID, rows, err := runTask(msg.Payload)
			if err != nil {
				log.WithError(err).WithField("stage", stageID).WithField("partition", partitionID).Error("task failed")
			}
			var rowsPayload []byte
			if len(rows) > 0 {
				var encErr error
				rowsPayload, encErr = msgpack.Marshal(rows)
				if encErr != nil {
					log.WithError(encErr).Error("failed to encode result rows")
					rowsPayload = nil
				}
			}
			wp.fromWorker <- Message{Kind: TaskEnded, StageID: stageID, PartitionID: partitionID, Err: err, Rows: rowsPayload}
		case TaskEnded:
			log.Error("worker received a TaskEnded message meant for the scheduler")
		}
	}
}

// Dispatch sends payload to the worker chosen by partition_id mod
// worker_count (spec §4.6).
func (wp *WorkerPool) Dispatch(partitionID int, payload []byte) {
	idx := partitionID % wp.Size()
	wp.toWorker[idx] <- Message{Kind: RunTask, Payload: payload}
}

// Responses is the shared channel workers report completion on.
func (wp *WorkerPool) Responses() <-chan Message { return wp.fromWorker }

// Close sends EndTask to every worker (spec §5: "Shutdown sends EndTask to
// every worker").
func (wp *WorkerPool) Close() {
	for _, ch := range wp.toWorker {
		ch <- Message{Kind: EndTask}
		close(ch)
	}
}

// taskPayload is the wire tuple a scheduler dispatch carries: enough of a
// compiled Flow and Stage for a worker to run one partition's Task to
// exhaustion without consulting anything outside payload.
type taskPayload struct {
	Flow  *plan.Flow
	Stage *plan.Stage
	Task  *runtime.Task
}

func (p *taskPayload) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(p.Flow.PopGraph, p.Flow.StageGraph, p.Flow.Root, p.Flow.TempDir, p.Stage, p.Task)
}

// encodeTask serializes one partition's task against fl/stage into the byte
// payload a WorkerPool dispatch carries (spec §5, §6).
func encodeTask(fl *plan.Flow, stage *plan.Stage, task *runtime.Task) ([]byte, error) {
	p := &taskPayload{Flow: fl, Stage: stage, Task: task}
	return msgpack.Marshal(p)
}

func (p *taskPayload) DecodeMsgpack(dec *msgpack.Decoder) error {
	p.Flow = &plan.Flow{PopGraph: pop.NewGraph(), StageGraph: plan.NewStageGraph()}
	p.Stage = &plan.Stage{}
	p.Task = &runtime.Task{}
	return dec.Decode(p.Flow.PopGraph, p.Flow.StageGraph, &p.Flow.Root, &p.Flow.TempDir, p.Stage, p.Task)
}

// runTask deserializes a dispatched (flow, stage, task) tuple and drives
// the stage's root POP to exhaustion (spec §4.6 "Execution"), pulling
// until Next reports no more rows. Every row the root yields is cloned and
// returned — a no-op amount of work for a Repartition root, which always
// returns false on its very first pull having already drained its child
// into shuffle files itself (exec/repartition.go).
func runTask(payload []byte) (stageID ids.StageId, partitionID ids.PartitionId, rows []row.Row, err error) {
	var p taskPayload
	if decErr := msgpack.Unmarshal(payload, &p); decErr != nil {
		return 0, 0, nil, errs.ErrSerialization.New(decErr)
	}
	stageID, partitionID = p.Stage.ID, p.Task.PartitionID

	span := opentracing.StartSpan("flare.task")
	defer span.Finish()
	span.SetTag("stage", int(stageID))
	span.SetTag("partition", int(partitionID))

	for {
		more, nextErr := exec.Next(p.Stage.Root, p.Flow, p.Stage, p.Task, true)
		if nextErr != nil {
			return stageID, partitionID, rows, nextErr
		}
		if !more {
			return stageID, partitionID, rows, nil
		}
		out := p.Task.Row
		if p.Task.Emit.Width() > 0 {
			out = p.Task.Emit
		}
		rows = append(rows, out.Clone())
	}
}
