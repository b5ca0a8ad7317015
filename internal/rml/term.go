package rml

import (
	"fmt"

	"github.com/cayleygraph/quad"

	"yarrrml-compiler/internal/mapping"
)

// toValue converts a constant term to its quad form.
func toValue(t mapping.Term) quad.Value {
	switch t.Kind {
	case mapping.TermIRI:
		return quad.IRI(t.Value)
	case mapping.TermBlankNode:
		return quad.BNode(t.Value)
	}

	switch {
	case t.Language != "":
		return quad.LangString{Value: quad.String(t.Value), Lang: t.Language}
	case t.Datatype != "":
		return quad.TypedString{Value: quad.String(t.Value), Type: quad.IRI(t.Datatype)}
	default:
		return quad.String(t.Value)
	}
}

// fromValue converts a quad value back to a constant term.
func fromValue(v quad.Value) (mapping.Term, error) {
	switch v := v.(type) {
	case quad.IRI:
		return mapping.IRI(string(v)), nil
	case quad.BNode:
		return mapping.Term{Kind: mapping.TermBlankNode, Value: string(v)}, nil
	case quad.String:
		return mapping.Literal(string(v)), nil
	case quad.LangString:
		return mapping.Term{Kind: mapping.TermLiteral, Value: string(v.Value), Language: v.Lang}, nil
	case quad.TypedString:
		return mapping.Term{Kind: mapping.TermLiteral, Value: string(v.Value), Datatype: string(v.Type)}, nil
	case quad.TypedStringer:
		return fromValue(v.TypedString())
	case nil:
		return mapping.Term{}, fmt.Errorf("missing term")
	default:
		return mapping.Term{}, fmt.Errorf("unsupported term %v", v)
	}
}

// literal returns the lexical form of a plain or xsd:string literal.
func literal(v quad.Value) (string, bool) {
	switch v := v.(type) {
	case quad.String:
		return string(v), true
	case quad.TypedString:
		if v.Type == xsdString {
			return string(v.Value), true
		}
	}

	return "", false
}

// iri returns the IRI string of an IRI value.
func iri(v quad.Value) (string, bool) {
	i, ok := v.(quad.IRI)
	return string(i), ok
}

// isNode reports whether v can be the subject of map triples.
func isNode(v quad.Value) bool {
	switch v.(type) {
	case quad.IRI, quad.BNode:
		return true
	default:
		return false
	}
}

func termTypeIRI(t mapping.TermType) quad.IRI {
	switch t {
	case mapping.TermBlankNode:
		return rrBlankNode
	case mapping.TermLiteral:
		return rrLiteral
	default:
		return rrIRI
	}
}

func termTypeOf(v quad.Value) (mapping.TermType, bool) {
	switch v {
	case rrIRI:
		return mapping.TermIRI, true
	case rrBlankNode:
		return mapping.TermBlankNode, true
	case rrLiteral:
		return mapping.TermLiteral, true
	default:
		return mapping.TermIRI, false
	}
}
