package rml

import (
	"slices"

	"github.com/cayleygraph/quad"
)

// edge is one triple of the graph, by position in the deduplicated input.
type edge struct {
	idx       int
	predicate quad.IRI
	object    quad.Value
}

// graph indexes a triple set and tracks which triples have been consumed.
type graph struct {
	triples  []quad.Quad
	consumed []bool
	labelled []quad.Quad

	out   map[string][]int
	in    map[string][]int
	first map[string]int
}

func key(v quad.Value) string {
	if v == nil {
		return ""
	}

	return v.String()
}

// newGraph drops duplicate triples, keeping the first occurrence. Quads with
// a graph label are set aside; they are never part of a mapping.
func newGraph(triples []quad.Quad) *graph {
	g := &graph{
		out:   map[string][]int{},
		in:    map[string][]int{},
		first: map[string]int{},
	}

	seen := map[[3]string]bool{}

	for _, q := range triples {
		if q.Label != nil {
			g.labelled = append(g.labelled, q)
			continue
		}

		k := [3]string{key(q.Subject), key(q.Predicate), key(q.Object)}
		if seen[k] {
			continue
		}

		seen[k] = true
		idx := len(g.triples)
		g.triples = append(g.triples, q)

		g.out[k[0]] = append(g.out[k[0]], idx)
		g.in[k[2]] = append(g.in[k[2]], idx)

		for _, n := range []string{k[0], k[2]} {
			if _, ok := g.first[n]; !ok {
				g.first[n] = idx
			}
		}
	}

	g.consumed = make([]bool, len(g.triples))

	return g
}

// edges returns the outgoing triples of s with one of preds, in input order.
func (g *graph) edges(s quad.Value, preds ...quad.IRI) []edge {
	var out []edge

	for _, idx := range g.out[key(s)] {
		q := g.triples[idx]

		p, ok := q.Predicate.(quad.IRI)
		if !ok || !slices.Contains(preds, p) {
			continue
		}

		out = append(out, edge{idx: idx, predicate: p, object: q.Object})
	}

	return out
}

// take returns the edges like edges and marks them consumed.
func (g *graph) take(s quad.Value, preds ...quad.IRI) []edge {
	es := g.edges(s, preds...)
	for _, e := range es {
		g.consumed[e.idx] = true
	}

	return es
}

func (g *graph) consume(e edge) {
	g.consumed[e.idx] = true
}

// takeTypes consumes the rdf:type triples of s naming one of classes.
func (g *graph) takeTypes(s quad.Value, classes ...quad.IRI) {
	for _, e := range g.edges(s, rdfType) {
		if c, ok := e.object.(quad.IRI); ok && slices.Contains(classes, c) {
			g.consume(e)
		}
	}
}

// referrers returns the triples whose object is o and predicate one of preds.
func (g *graph) referrers(o quad.Value, preds ...quad.IRI) []quad.Quad {
	var out []quad.Quad

	for _, idx := range g.in[key(o)] {
		q := g.triples[idx]
		if p, ok := q.Predicate.(quad.IRI); ok && (len(preds) == 0 || slices.Contains(preds, p)) {
			out = append(out, q)
		}
	}

	return out
}

// subjects returns the distinct subjects of triples with one of preds.
func (g *graph) subjects(preds ...quad.IRI) []quad.Value {
	var out []quad.Value

	seen := map[string]bool{}

	for _, q := range g.triples {
		p, ok := q.Predicate.(quad.IRI)
		if !ok || !slices.Contains(preds, p) || seen[key(q.Subject)] {
			continue
		}

		seen[key(q.Subject)] = true
		out = append(out, q.Subject)
	}

	return out
}

// firstSeen is the index of the first triple mentioning v as subject or object.
func (g *graph) firstSeen(v quad.Value) int {
	if i, ok := g.first[key(v)]; ok {
		return i
	}

	return len(g.triples)
}

// uses reports whether any triple has one of preds.
func (g *graph) uses(preds ...quad.IRI) bool {
	for _, q := range g.triples {
		if p, ok := q.Predicate.(quad.IRI); ok && slices.Contains(preds, p) {
			return true
		}
	}

	return false
}

// leftovers returns every triple no decoder consumed, labelled quads included.
func (g *graph) leftovers() []quad.Quad {
	var out []quad.Quad

	for i, q := range g.triples {
		if !g.consumed[i] {
			out = append(out, q)
		}
	}

	return append(out, g.labelled...)
}
