// Package dot renders a compiled POP graph as graphviz source (spec §6
// "External diagnostic output"). Writing the file is the core's job;
// shelling out to the dot binary to rasterize it belongs to the CLI.
package dot

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/pop"
)

// Write renders the POP graph reachable from root as graphviz source.
func Write(w *strings.Builder, popGraph *pop.Graph, root pop.Key) {
	w.WriteString("digraph flow {\n")
	w.WriteString("    node [shape=record];\n")
	w.WriteString("    rankdir=BT;\n")
	w.WriteString("    nodesep=0.5;\n")
	writeNode(w, popGraph, root)
	w.WriteString("}\n")
}

func writeNode(w *strings.Builder, popGraph *pop.Graph, key pop.Key) {
	node, _, children := popGraph.Get(key)
	for _, child := range children {
		fmt.Fprintf(w, "    popkey%s -> popkey%s;\n", child, key)
		writeNode(w, popGraph, child)
	}

	label, detail := describe(node)
	fmt.Fprintf(w, "    popkey%s [label=\"{%s|%s}\"];\n", key, label, escape(detail))
}

func describe(n pop.Node) (string, string) {
	switch {
	case n.CSV != nil:
		return "CSV", fmt.Sprintf("file: %s, map: %s", basename(n.CSV.Pathname), formatInputMap(n.CSV.InputMap))
	case n.CSVDir != nil:
		return "CSVDir", fmt.Sprintf("dir: %s, map: %s", basename(n.CSVDir.DirnamePrefix), formatInputMap(n.CSVDir.InputMap))
	case n.HashJoin != nil:
		return "HashJoin", fmt.Sprintf("keys: %d", len(n.HashJoin.BuildKeyExprs))
	case n.Repartition != nil:
		return "Repartition", fmt.Sprintf("output_map: %v", n.Repartition.OutputMap)
	case n.Aggregation != nil:
		return "Aggregation", fmt.Sprintf("keys: %d, aggs: %d", len(n.Aggregation.KeyExprs), len(n.Aggregation.Aggs))
	default:
		return "?", ""
	}
}

func basename(pathname string) string {
	return filepath.Base(pathname)
}

// formatInputMap renders a ColId->RegisterId map in sorted-by-column order,
// matching the teacher-grounded original's own sort-before-print habit.
func formatInputMap(m map[ids.ColId]ids.RegisterId) string {
	cols := make([]ids.ColId, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%d:%d", int(c), int(m[c]))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return s
}
