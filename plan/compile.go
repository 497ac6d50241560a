package plan

import (
	"fmt"
	"os"
	"path/filepath"

	uuid "github.com/satori/go.uuid"

	"github.com/adarshpannu/flare/catalog"
	"github.com/adarshpannu/flare/errs"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/pcode"
	"github.com/adarshpannu/flare/pop"
	"github.com/adarshpannu/flare/row"
)

// Flow is the compiled plan: a POP graph plus the stage graph that slices
// it (spec §3 Flow, §4.6). It is what the scheduler dispatches.
type Flow struct {
	PopGraph   *pop.Graph
	StageGraph *StageGraph
	Root       pop.Key

	// TempDir is the shuffle root directory for this compiled flow (spec
	// §4.5.4, §6): Repartition writes under
	// "{TempDir}/stage-{consumer_stage_id}-{dest_partition}/{source_partition}",
	// and the consuming stage's CSVDir scan is compiled to read from the
	// same path. It is minted once here, at Compile (the per-compile Flow
	// id, spec §3), never re-rolled afterwards, so every stage of one
	// compiled Flow agrees on where its shuffle files live.
	TempDir string
}

// Compile lowers lopGraph, rooted at lopKey, into a Flow (spec §4.4). meta
// resolves TableScan quantifiers to catalog descriptors. tempRoot is the
// parent directory under which Compile namespaces a fresh uuid-suffixed
// shuffle directory for this Flow, so concurrently compiled flows never
// collide (spec §6).
func Compile(meta catalog.Metadata, lopGraph *lop.Graph, lopKey lop.Key, tempRoot string) (*Flow, error) {
	tempDir := filepath.Join(tempRoot, uuid.NewV4().String())

	popGraph := pop.NewGraph()
	stageGraph := newStageGraph()

	root := stageGraph.addStage(false, 0)

	rootPopKey, err := compileLOP(meta, lopGraph, lopKey, popGraph, stageGraph, root, tempDir)
	if err != nil {
		return nil, err
	}
	root.Root = rootPopKey

	finalizePartitionCounts(popGraph, stageGraph, root, rootPopKey)

	return &Flow{PopGraph: popGraph, StageGraph: stageGraph, Root: rootPopKey, TempDir: tempDir}, nil
}

// compileLOP is the recursive post-order lowering of spec §4.4.
func compileLOP(
	meta catalog.Metadata, lopGraph *lop.Graph, lopKey lop.Key,
	popGraph *pop.Graph, stageGraph *StageGraph, stage *Stage, tempDir string,
) (pop.Key, error) {
	node, props, children := lopGraph.Get(lopKey)

	childStage := stage
	var newStage *Stage
	if _, isRepartition := node.(lop.Repartition); isRepartition {
		newStage = stageGraph.addStage(true, stage.ID)
		childStage = newStage
	}

	popChildren := make([]pop.Key, 0, len(children))
	for _, childKey := range children {
		childPopKey, err := compileLOP(meta, lopGraph, childKey, popGraph, stageGraph, childStage, tempDir)
		if err != nil {
			return 0, err
		}
		popChildren = append(popChildren, childPopKey)
	}

	var popKey pop.Key
	var err error
	switch n := node.(type) {
	case lop.TableScan:
		popKey, err = compileScan(meta, n, props, popGraph, stage, tempDir)
	case lop.HashJoin:
		popKey, err = compileJoin(n, props, popChildren, popGraph, stage)
	case lop.Repartition:
		// compileRepartition's own doc comment: the Repartition node is
		// the last node of the producing stage, so it must be compiled
		// against that stage's allocator — here, childStage (== newStage),
		// not the consuming stage this call was invoked with.
		popKey, err = compileRepartition(n, props, popChildren, popGraph, childStage)
	case lop.Aggregation:
		popKey, err = compileAggregation(n, props, popChildren, popGraph, stage)
	}
	if err != nil {
		return 0, err
	}

	if newStage != nil {
		newStage.Root = popKey
	}

	return popKey, nil
}

func compileScan(meta catalog.Metadata, n lop.TableScan, props lop.Props, popGraph *pop.Graph, stage *Stage, tempDir string) (pop.Key, error) {
	if len(props.Quns) == 0 {
		return 0, errs.ErrUnknownTable.New("<no quantifier>")
	}
	qun := props.Quns[0]
	desc, ok := meta.GetTableDesc(qun)
	if !ok {
		return 0, errs.ErrUnknownTable.New(qun)
	}

	alloc := stage.alloc
	coltypes := make([]pop.ColType, len(desc.Columns))
	known := make(map[ids.ColId]bool, len(desc.Columns))
	for i, c := range desc.Columns {
		coltypes[i] = toColType(c.DataType)
		known[c.ColID] = true
	}

	inputMap := make(map[ids.ColId]ids.RegisterId, n.InputCols.Len())
	for _, qc := range n.InputCols.Elements() {
		if !known[qc.Col] {
			return 0, errs.ErrColumnNotFound.New(qc.Col)
		}
		inputMap[qc.Col] = alloc.GetID(qc)
	}

	predicates := pcode.CompilePredicates(props.Preds, alloc)
	emitcols := pcode.CompileEmitCols(props.EmitCols, alloc)

	var node pop.Node
	switch desc.Type {
	case catalog.TableCSV:
		partitions, perr := evenByteRanges(desc.Pathname, props.PartDesc.NPartitions)
		if perr != nil {
			return 0, perr
		}
		node = pop.Node{CSV: &pop.CSV{
			Pathname:   desc.Pathname,
			ColTypes:   coltypes,
			Header:     desc.Header,
			Separator:  desc.Separator,
			Partitions: partitions,
			InputMap:   inputMap,
		}}
	case catalog.TableCSVDir:
		// This scan's stage IS the consumer of whatever Repartition feeds
		// it: an ordinary TableScan is never cut into its own stage (only
		// lop.Repartition is), so stage here is the ambient stage the scan
		// was lowered into, same as its LOP-parent. nextRepartition (run
		// in the producing stage) writes to
		// "{TempDir}/stage-{stage.ParentStageID}-{dest}/{source}" — since
		// stage.ParentStageID of a Repartition's own stage points at
		// exactly this consuming stage's ID, the two sides agree without
		// the catalog needing to know anything about shuffle layout.
		dirnamePrefix := filepath.Join(tempDir, fmt.Sprintf("stage-%d", int(stage.ID)))
		node = pop.Node{CSVDir: &pop.CSVDir{
			DirnamePrefix: dirnamePrefix,
			ColTypes:      coltypes,
			Header:        desc.Header,
			Separator:     desc.Separator,
			NPartitions:   props.PartDesc.NPartitions,
			InputMap:      inputMap,
		}}
	}

	nodeProps := pop.Props{Predicates: predicates, EmitCols: emitcols, NPartitions: props.PartDesc.NPartitions}
	return popGraph.AddNode(node, nodeProps, nil)
}

// evenByteRanges divides pathname's size into n roughly-equal byte ranges.
// Computing the exact line-respecting splits a real filesystem partitioner
// would produce is explicitly the out-of-scope collaborator's job (spec
// §1); this is the compiler's fallback when no such collaborator is wired
// in, good enough for CSV's scanner to make forward progress since it
// reads whole lines past a range boundary anyway (exec/lineiter.go).
func evenByteRanges(pathname string, n int) ([]pop.TextFilePartition, error) {
	if n < 1 {
		n = 1
	}
	fi, err := os.Stat(pathname)
	if err != nil {
		return nil, errs.ErrIO.New(err.Error())
	}
	size := uint64(fi.Size())
	chunk := size / uint64(n)
	parts := make([]pop.TextFilePartition, n)
	for i := 0; i < n; i++ {
		start := uint64(i) * chunk
		end := start + chunk
		if i == n-1 {
			end = size
		}
		parts[i] = pop.TextFilePartition{Start: start, End: end}
	}
	return parts, nil
}

func compileJoin(n lop.HashJoin, props lop.Props, children []pop.Key, popGraph *pop.Graph, stage *Stage) (pop.Key, error) {
	alloc := stage.alloc
	predicates := pcode.CompilePredicates(props.Preds, alloc)
	emitcols := pcode.CompileEmitCols(props.EmitCols, alloc)

	buildExprs := make([]*pcode.PCode, 0, len(n.EquiJoinPreds))
	probeExprs := make([]*pcode.PCode, 0, len(n.EquiJoinPreds))
	for _, pred := range n.EquiJoinPreds {
		rel, ok := pred.(lop.Rel)
		if !ok || rel.Op != lop.RelEQ {
			continue
		}
		probeExprs = append(probeExprs, pcode.Compile(rel.LHS, alloc))
		buildExprs = append(buildExprs, pcode.Compile(rel.RHS, alloc))
	}

	node := pop.Node{HashJoin: &pop.HashJoin{BuildKeyExprs: buildExprs, ProbeKeyExprs: probeExprs}}
	nodeProps := pop.Props{Predicates: predicates, EmitCols: emitcols, NPartitions: props.PartDesc.NPartitions}
	return popGraph.AddNode(node, nodeProps, children)
}

func compileRepartition(n lop.Repartition, props lop.Props, children []pop.Key, popGraph *pop.Graph, stage *Stage) (pop.Key, error) {
	// The Repartition node is the last node of the producing stage (the
	// stage passed in here), not the first node of the consuming stage —
	// its key exprs and output_map are compiled against the producer's
	// allocator (spec §4.5.4).
	alloc := stage.alloc

	if len(props.Preds) != 0 {
		return 0, errs.ErrTypeMismatch.New("Repartition must not carry predicates")
	}

	emitcols := pcode.CompileEmitCols(props.EmitCols, alloc)

	var outputMap []ids.RegisterId
	if emitcols == nil {
		outputMap = make([]ids.RegisterId, 0, props.Cols.Len())
		for _, qc := range props.Cols.Elements() {
			outputMap = append(outputMap, alloc.GetID(qc))
		}
	}

	keyExprs := make([]*pcode.PCode, len(n.CPartitions.Elements()))
	for i, qc := range n.CPartitions.Elements() {
		keyExprs[i] = pcode.Compile(lop.Column{Qun: qc.Qun, Col: qc.Col}, alloc)
	}

	node := pop.Node{Repartition: &pop.Repartition{OutputMap: outputMap, KeyExprs: keyExprs}}
	nodeProps := pop.Props{Predicates: nil, EmitCols: emitcols, NPartitions: props.PartDesc.NPartitions}
	return popGraph.AddNode(node, nodeProps, children)
}

func compileAggregation(n lop.Aggregation, props lop.Props, children []pop.Key, popGraph *pop.Graph, stage *Stage) (pop.Key, error) {
	alloc := stage.alloc

	keyExprs := make([]*pcode.PCode, len(n.Keys))
	for i, qc := range n.Keys {
		keyExprs[i] = pcode.Compile(lop.Column{Qun: qc.Qun, Col: qc.Col}, alloc)
	}

	aggs := make([]pop.AggDesc, len(n.Aggs))
	aggRegs := make([]ids.RegisterId, len(n.Aggs))
	for i, a := range n.Aggs {
		var arg *pcode.PCode
		if a.Arg != nil {
			arg = pcode.Compile(a.Arg, alloc)
		}
		aggs[i] = pop.AggDesc{Func: pop.AggFunc(a.Func), Arg: arg}
		aggRegs[i] = alloc.NewRegister()
	}

	node := pop.Node{Aggregation: &pop.Aggregation{KeyExprs: keyExprs, Aggs: aggs, AggRegs: aggRegs}}
	nodeProps := pop.Props{Predicates: nil, EmitCols: nil, NPartitions: props.PartDesc.NPartitions}
	return popGraph.AddNode(node, nodeProps, children)
}

// finalizePartitionCounts fills in NPartitionsProducer/Consumer for every
// stage once the whole POP graph is built (spec §3: a Stage "stores ...
// its producer partition count, its consumer partition count"). The
// producer count is the partition count of the stage's own leaf scan (a
// CSV or CSVDir node); leaves belonging to a child stage (i.e. nodes that
// are themselves a Repartition, per pop.Node.IsStageRoot) are opaque for
// this walk — their output partition count is what the scan reading them
// was compiled with, which is already that scan node's own NPartitions.
func finalizePartitionCounts(popGraph *pop.Graph, stageGraph *StageGraph, root *Stage, rootPopKey pop.Key) {
	for _, stage := range stageGraph.Stages() {
		producer := leafPartitionCount(popGraph, stage.Root)
		_, rootProps, _ := popGraph.Get(stage.Root)
		consumer := rootProps.NPartitions
		if !popGraph.Value(stage.Root).IsStageRoot() {
			consumer = producer
		}
		stage.NPartitionsProducer = producer
		stage.NPartitionsConsumer = consumer
	}
}

// leafPartitionCount finds the partition count of the first scan (CSV or
// CSVDir) reachable from k without descending past a Repartition boundary.
func leafPartitionCount(popGraph *pop.Graph, k pop.Key) int {
	node, props, children := popGraph.Get(k)
	if node.CSV != nil || node.CSVDir != nil {
		return props.NPartitions
	}
	if node.IsStageRoot() && len(children) > 0 {
		// A Repartition that is itself the stage head: its producer count
		// is read from its own (sole) child, one stage down.
		return leafPartitionCount(popGraph, children[0])
	}
	for _, c := range children {
		if popGraph.Value(c).IsStageRoot() {
			// Child belongs to the next stage down; its own output
			// partition count is this stage's input partition count at
			// that site.
			_, childProps, _ := popGraph.Get(c)
			return childProps.NPartitions
		}
		return leafPartitionCount(popGraph, c)
	}
	return 1
}

func toColType(t row.DataType) pop.ColType {
	switch t {
	case row.TypeInt:
		return pop.ColInt
	case row.TypeStr:
		return pop.ColStr
	case row.TypeBool:
		return pop.ColBool
	case row.TypeDouble:
		return pop.ColDouble
	default:
		return pop.ColInt
	}
}
