package rdfio

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	ttl "github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"
)

func readTurtle(r io.Reader) ([]quad.Quad, error) {
	dec := ttl.NewTripleDecoder(r, ttl.Turtle)

	var out []quad.Quad

	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return nil, fmt.Errorf("reading Turtle: %w", err)
		}

		out = append(out, quad.Quad{
			Subject:   fromTurtle(t.Subj),
			Predicate: fromTurtle(t.Pred),
			Object:    fromTurtle(t.Obj),
		})
	}
}

func fromTurtle(term ttl.Term) quad.Value {
	switch v := term.(type) {
	case ttl.IRI:
		return quad.IRI(v.String())
	case ttl.Blank:
		return quad.BNode(strings.TrimPrefix(v.String(), "_:"))
	case ttl.Literal:
		dt := v.DataType.String()

		switch {
		case v.Lang() != "":
			return quad.LangString{Value: quad.String(v.String()), Lang: v.Lang()}
		case dt == "" || dt == ld.XSDString:
			return quad.String(v.String())
		default:
			return quad.TypedString{Value: quad.String(v.String()), Type: quad.IRI(dt)}
		}
	default:
		return quad.String(term.String())
	}
}
