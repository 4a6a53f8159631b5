package graph

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDOT serializes g in Graphviz dot format. label names a node; nodes are
// numbered in iteration order.
func WriteDOT[E comparable](w io.Writer, g *Graph[E], label func(E) string) error {
	bw := bufio.NewWriter(w)
	ids := make(map[E]int, g.Len())

	fmt.Fprint(bw, "digraph G {\nrankdir=LR;\n")
	for i, n := range g.Nodes() {
		ids[n] = i
		fmt.Fprintf(bw, "node%d [label=%q]\n", i, label(n))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(bw, "node%d -> node%d [label=%q]\n", ids[e.From], ids[e.To], e.Relation.Label)
	}
	fmt.Fprint(bw, "}\n")
	return bw.Flush()
}

// DOTFileName derives the export file name from a title: spaces become dashes.
func DOTFileName(title string) string {
	return strings.ReplaceAll(title, " ", "-") + ".dot"
}
