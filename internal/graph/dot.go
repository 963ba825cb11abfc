package graph

import (
	"fmt"
	"io"
	"sort"

	"github.com/roach88/weft/internal/ir"
)

// WriteDOT serializes the graph as a Graphviz digraph.
//
// Nodes are grouped into one cluster per thread. Edge styling by kind:
// po solid, rf dashed, mo bold, sw dotted, fr thin. Output order is fully
// deterministic so the same run always produces byte-identical files.
//
// The format is stable but not a compatibility commitment.
func (g *Graph) WriteDOT(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("digraph execution {\n")
	ew.printf("  rankdir=TB;\n")
	ew.printf("  node [shape=box, style=filled, fillcolor=lightgrey];\n")

	for _, t := range g.threads() {
		ew.printf("  subgraph cluster_t%d {\n", t)
		ew.printf("    label=\"Thread %d\";\n", t)
		for _, e := range g.events {
			if e.Thread != t {
				continue
			}
			ew.printf("    e%d [label=%q];\n", e.ID, e.Label())
		}
		ew.printf("  }\n")
	}

	writeEdgeSet(ew, g.po, "po", "solid", "")
	writeEdgeSet(ew, g.rf, "rf", "dashed", "")
	writeEdgeSet(ew, g.MO(), "mo", "bold", "")
	writeEdgeSet(ew, g.sw, "sw", "dotted", "")
	writeEdgeSet(ew, g.FR(), "fr", "solid", " penwidth=0.5")

	ew.printf("}\n")
	return ew.err
}

func writeEdgeSet(ew *errWriter, edges []Edge, label, style, extra string) {
	for _, e := range edges {
		ew.printf("  e%d -> e%d [label=%q style=%s%s];\n", e.From, e.To, label, style, extra)
	}
}

// threads returns the sorted set of thread ids appearing in the arena.
func (g *Graph) threads() []ir.ThreadID {
	seen := make(map[ir.ThreadID]bool)
	var out []ir.ThreadID
	for _, e := range g.events {
		if !seen[e.Thread] {
			seen[e.Thread] = true
			out = append(out, e.Thread)
		}
	}
	sort.Ints(out)
	return out
}

// errWriter folds write errors so the render loop stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
