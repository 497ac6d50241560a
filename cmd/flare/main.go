// Command flare is the demo CLI: it wires env, catalog, plan and sched
// together to run one built-in query (a grouped count over a CSV file) and
// optionally renders the compiled plan to a .dot file, shelling out to the
// external dot binary to rasterize it (spec §6 "External diagnostic
// output": the core only ever writes graphviz source, never invokes dot
// itself).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/adarshpannu/flare/catalog"
	"github.com/adarshpannu/flare/dot"
	"github.com/adarshpannu/flare/env"
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/lop"
	"github.com/adarshpannu/flare/plan"
	"github.com/adarshpannu/flare/row"
	"github.com/adarshpannu/flare/sched"
)

func main() {
	inputPathname := flag.String("input", "", "CSV file to scan (required)")
	outputDir := flag.String("output", ".", "directory for shuffle temp files")
	nthreads := flag.Int("nthreads", 4, "worker pool size")
	nparts := flag.Int("partitions", 1, "scan partition count")
	groupCol := flag.Int("group-col", 0, "0-based column index to GROUP BY")
	dotPath := flag.String("dot", "", "write the compiled plan to this .dot file")
	rasterize := flag.Bool("png", false, "also shell out to `dot` to render dotPath as a .png")
	flag.Parse()

	if *inputPathname == "" {
		fmt.Fprintln(os.Stderr, "flare: -input is required")
		os.Exit(2)
	}

	e := env.New(*nthreads, *inputPathname, *outputDir)
	if err := e.SetOption("PARALLEL_DEGREE", fmt.Sprint(*nthreads)); err != nil {
		logrus.WithError(err).Fatal("bad option")
	}

	fl, err := compileCountByQuery(*inputPathname, *nparts, ids.ColId(*groupCol), *outputDir)
	if err != nil {
		logrus.WithError(err).Fatal("compile failed")
	}

	if *dotPath != "" {
		if err := writeDot(fl, *dotPath); err != nil {
			logrus.WithError(err).Error("writing dot file failed")
		} else if *rasterize {
			if err := rasterizeDot(*dotPath); err != nil {
				logrus.WithError(err).Error("dot binary invocation failed")
			}
		}
	}

	s := sched.New(e.Settings.ParallelDegree)
	defer s.Close()

	rows, err := s.Run(fl)
	if err != nil {
		logrus.WithError(err).Fatal("query failed")
	}

	for _, r := range rows {
		fields := make([]string, r.Width())
		for i := range fields {
			fields[i] = r.GetColumn(ids.RegisterId(i)).String()
		}
		fmt.Println(strings.Join(fields, "\t"))
	}
}

// compileCountByQuery builds the fixed demo plan: TableScan(pathname) ->
// Aggregation(GROUP BY groupCol, COUNT(*)), the in-process stand-in for the
// SQL parser/optimizer the core doesn't own (spec §1). tempRoot is the
// shuffle temp-file root plan.Compile namespaces this Flow's TempDir under.
func compileCountByQuery(pathname string, nparts int, groupCol ids.ColId, tempRoot string) (*plan.Flow, error) {
	meta := catalog.NewMapMetadata()
	qun := ids.QunId(0)
	meta.Add(qun, catalog.TableDesc{
		Type:      catalog.TableCSV,
		Pathname:  pathname,
		Header:    true,
		Separator: '|',
		Columns: []catalog.ColDesc{
			{Name: "c0", ColID: 0, DataType: row.TypeStr},
			{Name: "c1", ColID: 1, DataType: row.TypeInt},
		},
	})

	lg := lop.NewGraph()
	qc := ids.QunCol{Qun: qun, Col: groupCol}

	scanKey, err := lg.AddNode(
		lop.TableScan{InputCols: lop.NewColSet(qc)},
		lop.Props{
			PartDesc: lop.PartDesc{NPartitions: nparts},
			Quns:     []ids.QunId{qun},
			Cols:     lop.NewColSet(qc),
		},
		nil,
	)
	if err != nil {
		return nil, err
	}

	aggKey, err := lg.AddNode(
		lop.Aggregation{
			Keys: []ids.QunCol{qc},
			Aggs: []lop.AggExpr{{Func: lop.AggCount}},
		},
		lop.Props{PartDesc: lop.PartDesc{NPartitions: 1}},
		[]lop.Key{scanKey},
	)
	if err != nil {
		return nil, err
	}

	return plan.Compile(meta, lg, aggKey, tempRoot)
}

func writeDot(fl *plan.Flow, path string) error {
	var b strings.Builder
	dot.Write(&b, fl.PopGraph, fl.Root)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func rasterizeDot(dotPath string) error {
	png := strings.TrimSuffix(dotPath, ".dot") + ".png"
	cmd := exec.Command("dot", "-Tpng", "-o", png, dotPath)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
