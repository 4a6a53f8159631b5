// Package graph implements the directed dependency graph over removable
// elements. Edges point from an including (or depended-upon) element to the
// included (or dependent) one and carry a Relation value.
package graph

import (
	"slices"
)

// PrunePolicy decides when an edge drags its target along during pruning.
type PrunePolicy int

const (
	// PruneWhenAllRemoved prunes the target once all its predecessors are gone.
	PruneWhenAllRemoved PrunePolicy = iota
	// PruneWhenAnyRemoved prunes the target as soon as this predecessor is gone.
	PruneWhenAnyRemoved
)

// Relation is the value attached to an edge.
type Relation struct {
	Label  string
	Policy PrunePolicy
}

// Edge is a materialized edge used for iteration and export.
type Edge[E comparable] struct {
	From, To E
	Relation Relation
}

// Graph is a mutable directed graph with values on edges. Node order is the
// order of first insertion and survives removal and re-insertion, so a graph
// that had nodes removed and restored iterates exactly as before.
type Graph[E comparable] struct {
	seq   map[E]int
	next  int
	nodes map[E]struct{}
	succ  map[E]map[E]Relation
	pred  map[E]map[E]struct{}
}

// New creates an empty graph.
func New[E comparable]() *Graph[E] {
	return &Graph[E]{
		seq:   make(map[E]int),
		nodes: make(map[E]struct{}),
		succ:  make(map[E]map[E]Relation),
		pred:  make(map[E]map[E]struct{}),
	}
}

// AddNode inserts n. It returns false if n was already present.
func (g *Graph[E]) AddNode(n E) bool {
	if _, ok := g.nodes[n]; ok {
		return false
	}
	if _, known := g.seq[n]; !known {
		g.seq[n] = g.next
		g.next++
	}
	g.nodes[n] = struct{}{}
	return true
}

// RemoveNode deletes n and every incident edge. It returns false if n was absent.
func (g *Graph[E]) RemoveNode(n E) bool {
	if _, ok := g.nodes[n]; !ok {
		return false
	}
	for s := range g.succ[n] {
		delete(g.pred[s], n)
	}
	for p := range g.pred[n] {
		delete(g.succ[p], n)
	}
	delete(g.succ, n)
	delete(g.pred, n)
	delete(g.nodes, n)
	return true
}

// HasNode reports whether n is present.
func (g *Graph[E]) HasNode(n E) bool {
	_, ok := g.nodes[n]
	return ok
}

// PutEdge adds or replaces the edge from -> to, adding missing endpoints.
func (g *Graph[E]) PutEdge(from, to E, rel Relation) {
	g.AddNode(from)
	g.AddNode(to)
	if g.succ[from] == nil {
		g.succ[from] = make(map[E]Relation)
	}
	if g.pred[to] == nil {
		g.pred[to] = make(map[E]struct{})
	}
	g.succ[from][to] = rel
	g.pred[to][from] = struct{}{}
}

// RemoveEdge deletes the edge from -> to if present.
func (g *Graph[E]) RemoveEdge(from, to E) {
	delete(g.succ[from], to)
	delete(g.pred[to], from)
}

// EdgeValue returns the relation on from -> to.
func (g *Graph[E]) EdgeValue(from, to E) (Relation, bool) {
	rel, ok := g.succ[from][to]
	return rel, ok
}

// Len returns the number of nodes.
func (g *Graph[E]) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in insertion order.
func (g *Graph[E]) Nodes() []E {
	result := make([]E, 0, len(g.nodes))
	for n := range g.nodes {
		result = append(result, n)
	}
	g.sortNodes(result)
	return result
}

// Successors returns the direct successors of n in insertion order.
func (g *Graph[E]) Successors(n E) []E {
	result := make([]E, 0, len(g.succ[n]))
	for s := range g.succ[n] {
		result = append(result, s)
	}
	g.sortNodes(result)
	return result
}

// Predecessors returns the direct predecessors of n in insertion order.
func (g *Graph[E]) Predecessors(n E) []E {
	result := make([]E, 0, len(g.pred[n]))
	for p := range g.pred[n] {
		result = append(result, p)
	}
	g.sortNodes(result)
	return result
}

// InDegree returns the number of predecessors of n.
func (g *Graph[E]) InDegree(n E) int {
	return len(g.pred[n])
}

// Sources returns nodes without predecessors other than themselves.
func (g *Graph[E]) Sources() []E {
	var result []E
	for _, n := range g.Nodes() {
		preds := g.pred[n]
		if len(preds) == 0 {
			result = append(result, n)
			continue
		}
		if _, self := preds[n]; self && len(preds) == 1 {
			result = append(result, n)
		}
	}
	return result
}

// Edges returns every edge, ordered by source then target.
func (g *Graph[E]) Edges() []Edge[E] {
	var result []Edge[E]
	for _, from := range g.Nodes() {
		for _, to := range g.Successors(from) {
			result = append(result, Edge[E]{From: from, To: to, Relation: g.succ[from][to]})
		}
	}
	return result
}

// Clone returns a deep copy that shares no maps with g.
func (g *Graph[E]) Clone() *Graph[E] {
	c := &Graph[E]{
		seq:   make(map[E]int, len(g.seq)),
		next:  g.next,
		nodes: make(map[E]struct{}, len(g.nodes)),
		succ:  make(map[E]map[E]Relation, len(g.succ)),
		pred:  make(map[E]map[E]struct{}, len(g.pred)),
	}
	for n, i := range g.seq {
		c.seq[n] = i
	}
	for n := range g.nodes {
		c.nodes[n] = struct{}{}
	}
	for n, out := range g.succ {
		m := make(map[E]Relation, len(out))
		for s, rel := range out {
			m[s] = rel
		}
		c.succ[n] = m
	}
	for n, in := range g.pred {
		m := make(map[E]struct{}, len(in))
		for p := range in {
			m[p] = struct{}{}
		}
		c.pred[n] = m
	}
	return c
}

// Equal reports whether both graphs have the same nodes, edges and edge values.
func (g *Graph[E]) Equal(o *Graph[E]) bool {
	if g.Len() != o.Len() {
		return false
	}
	for n := range g.nodes {
		if !o.HasNode(n) {
			return false
		}
		if len(g.succ[n]) != len(o.succ[n]) {
			return false
		}
		for s, rel := range g.succ[n] {
			if orel, ok := o.succ[n][s]; !ok || orel != rel {
				return false
			}
		}
	}
	return true
}

func (g *Graph[E]) sortNodes(nodes []E) {
	slices.SortFunc(nodes, func(a, b E) int {
		return g.seq[a] - g.seq[b]
	})
}
