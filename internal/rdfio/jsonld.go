package rdfio

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/piprate/json-gold/ld"
)

const defaultGraph = "@default"

func readJSONLD(r io.Reader) ([]quad.Quad, error) {
	doc, err := ld.DocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON-LD: %w", err)
	}

	proc := ld.NewJsonLdProcessor()

	rdf, err := proc.ToRDF(doc, ld.NewJsonLdOptions(""))
	if err != nil {
		return nil, fmt.Errorf("reading JSON-LD: %w", err)
	}

	dataset, ok := rdf.(*ld.RDFDataset)
	if !ok {
		return nil, fmt.Errorf("reading JSON-LD: unexpected result %T", rdf)
	}

	var out []quad.Quad

	for _, q := range dataset.Graphs[defaultGraph] {
		out = append(out, fromNodes(q))
	}

	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		if name != defaultGraph {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	for _, name := range names {
		for _, q := range dataset.Graphs[name] {
			out = append(out, fromNodes(q))
		}
	}

	return out, nil
}

func fromNodes(q *ld.Quad) quad.Quad {
	out := quad.Quad{
		Subject:   fromNode(q.Subject),
		Predicate: fromNode(q.Predicate),
		Object:    fromNode(q.Object),
	}

	if q.Graph != nil {
		out.Label = fromNode(q.Graph)
	}

	return out
}

func fromNode(n ld.Node) quad.Value {
	switch v := n.(type) {
	case ld.IRI:
		return quad.IRI(v.Value)
	case ld.BlankNode:
		return quad.BNode(strings.TrimPrefix(v.Attribute, "_:"))
	case ld.Literal:
		switch {
		case v.Language != "":
			return quad.LangString{Value: quad.String(v.Value), Lang: v.Language}
		case v.Datatype == "" || v.Datatype == ld.XSDString:
			return quad.String(v.Value)
		default:
			return quad.TypedString{Value: quad.String(v.Value), Type: quad.IRI(v.Datatype)}
		}
	default:
		return nil
	}
}

func toNode(v quad.Value) ld.Node {
	switch v := v.(type) {
	case quad.IRI:
		return ld.NewIRI(string(v))
	case quad.BNode:
		return ld.NewBlankNode("_:" + string(v))
	case quad.String:
		return ld.NewLiteral(string(v), ld.XSDString, "")
	case quad.LangString:
		return ld.NewLiteral(string(v.Value), ld.RDFLangString, v.Lang)
	case quad.TypedString:
		return ld.NewLiteral(string(v.Value), string(v.Type), "")
	case quad.TypedStringer:
		return toNode(v.TypedString())
	default:
		return ld.NewLiteral(quad.StringOf(v), ld.XSDString, "")
	}
}

// writeJSONLD converts quads to expanded JSON-LD and compacts it with the
// prefix table as context.
func writeJSONLD(w io.Writer, quads []quad.Quad, opts Options) error {
	dataset := ld.NewRDFDataset()

	for _, q := range quads {
		graph := defaultGraph

		switch l := q.Label.(type) {
		case quad.IRI:
			graph = string(l)
		case quad.BNode:
			graph = "_:" + string(l)
		}

		dataset.Graphs[graph] = append(dataset.Graphs[graph],
			ld.NewQuad(toNode(q.Subject), toNode(q.Predicate), toNode(q.Object), graph))
	}

	ldOpts := ld.NewJsonLdOptions("")

	expanded, err := ld.NewJsonLdApi().FromRDF(dataset, ldOpts)
	if err != nil {
		return fmt.Errorf("writing JSON-LD: %w", err)
	}

	context := map[string]any{}
	for _, label := range opts.Prefixes.Labels() {
		if label == "" {
			continue
		}

		ns, _ := opts.Prefixes.Lookup(label)
		context[label] = ns
	}

	var doc any = expanded

	if len(context) > 0 {
		compacted, err := ld.NewJsonLdProcessor().Compact(expanded, map[string]any{"@context": context}, ldOpts)
		if err != nil {
			return fmt.Errorf("writing JSON-LD: %w", err)
		}

		doc = compacted
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing JSON-LD: %w", err)
	}

	return nil
}
