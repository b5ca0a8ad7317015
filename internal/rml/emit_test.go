package rml

import (
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
)

const (
	foaf   = "http://xmlns.com/foaf/0.1/"
	xsd    = "http://www.w3.org/2001/XMLSchema#"
	grel   = "http://users.ugent.be/~bjdmeest/function/grel.ttl#"
	exBase = "http://example.com/"
)

func tq(s quad.Value, p quad.IRI, o quad.Value) quad.Quad {
	return quad.Quad{Subject: s, Predicate: p, Object: o}
}

func constIRI(iri string) mapping.TermMap {
	return mapping.TermMap{Value: mapping.Constant{Term: mapping.IRI(iri)}}
}

func ref(name string) mapping.TermMap {
	return mapping.TermMap{Value: mapping.Reference{Name: name}, TermType: mapping.TermLiteral}
}

func newDoc(t *testing.T, maps ...*mapping.TriplesMap) *mapping.Document {
	t.Helper()

	doc := mapping.NewDocument("", nil)
	for _, tm := range maps {
		require.NoError(t, doc.Add(tm))
	}

	return doc
}

func personMap() *mapping.TriplesMap {
	return &mapping.TriplesMap{
		ID:     "person",
		Source: mapping.LogicalSource{Access: "people.csv", ReferenceFormulation: prefix.QL + "CSV"},
		Subject: mapping.SubjectMap{
			TermMap: mapping.TermMap{Value: mapping.Template{Pattern: "http://ex.org/{id}"}},
			Classes: []string{foaf + "Person"},
		},
		PredicateObjects: []mapping.PredicateObjectMap{{
			Predicates: []mapping.TermMap{constIRI(foaf + "name")},
			Objects:    []mapping.TermMap{ref("name")},
		}},
	}
}

func TestEmitOrder(t *testing.T) {
	got, err := Emit(newDoc(t, personMap()), mapping.DialectRML)
	require.NoError(t, err)

	person := quad.IRI(exBase + "person")
	b := func(i string) quad.BNode { return quad.BNode("b" + i) }

	want := []quad.Quad{
		tq(person, rmlLogicalSourceProp, b("0")),
		tq(b("0"), rdfType, rmlLogicalSource),
		tq(b("0"), rmlSource, quad.String("people.csv")),
		tq(b("0"), rmlReferenceFormulation, quad.IRI(prefix.QL+"CSV")),
		tq(person, rdfType, rrTriplesMap),
		tq(person, rrSubjectMapProp, b("1")),
		tq(b("1"), rdfType, rrSubjectMap),
		tq(b("1"), rrTemplate, quad.String("http://ex.org/{id}")),
		tq(b("1"), rrClass, quad.IRI(foaf+"Person")),
		tq(person, rrPredicateObjectMapProp, b("2")),
		tq(b("2"), rdfType, rrPredicateObjectMap),
		tq(b("2"), rrPredicateMapProp, b("3")),
		tq(b("3"), rdfType, rrPredicateMap),
		tq(b("3"), rrConstant, quad.IRI(foaf+"name")),
		tq(b("2"), rrObjectMapProp, b("4")),
		tq(b("4"), rdfType, rrObjectMap),
		tq(b("4"), rmlReference, quad.String("name")),
	}

	assert.Equal(t, want, got)
}

func TestEmitDeterministic(t *testing.T) {
	doc := sampleDoc(t)

	first, err := Emit(doc, mapping.DialectRML)
	require.NoError(t, err)

	second, err := Emit(doc, mapping.DialectRML)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmitR2RML(t *testing.T) {
	emp := &mapping.TriplesMap{
		ID:     "emp",
		Source: mapping.LogicalSource{Table: "EMP", SQLVersion: prefix.RR + "SQL2008"},
		Subject: mapping.SubjectMap{
			TermMap: mapping.TermMap{Value: mapping.Template{Pattern: "http://ex.org/emp/{EMPNO}"}},
		},
		PredicateObjects: []mapping.PredicateObjectMap{{
			Predicates: []mapping.TermMap{constIRI("http://ex.org/name")},
			Objects:    []mapping.TermMap{ref("ENAME")},
		}},
	}

	got, err := Emit(newDoc(t, emp), mapping.DialectR2RML)
	require.NoError(t, err)

	assert.Contains(t, got, tq(quad.IRI(exBase+"emp"), rrLogicalTableProp, quad.BNode("b0")))
	assert.Contains(t, got, tq(quad.BNode("b0"), rdfType, rrLogicalTable))
	assert.Contains(t, got, tq(quad.BNode("b0"), rrTableName, quad.String("EMP")))
	assert.Contains(t, got, tq(quad.BNode("b0"), rrSQLVersion, quad.IRI(prefix.RR+"SQL2008")))
	assert.Contains(t, got, tq(quad.BNode("b4"), rrColumn, quad.String("ENAME")))

	for _, q := range got {
		assert.NotContains(t, rmlOnly, q.Predicate, "R2RML output uses %v", q.Predicate)
	}
}

func TestEmitR2RMLRejects(t *testing.T) {
	withFunction := personMap()
	withFunction.Source = mapping.LogicalSource{Table: "PEOPLE"}
	withFunction.PredicateObjects[0].Objects[0] = mapping.TermMap{
		Value: mapping.FunctionMap{
			Function:   grel + "toUpperCase",
			Parameters: []mapping.Parameter{{Predicate: grel + "valueParameter", Value: ref("name")}},
		},
		TermType: mapping.TermLiteral,
	}

	noSource := personMap()
	noSource.Source = mapping.LogicalSource{}

	tests := []struct {
		name string
		tm   *mapping.TriplesMap
		kind error
		code diagnostic.Code
	}{
		{"non-relational source", personMap(), diagnostic.ErrUnsupportedInR2RML, diagnostic.CodeUnsupportedInR2RML},
		{"function map", withFunction, diagnostic.ErrUnsupportedInR2RML, diagnostic.CodeUnsupportedInR2RML},
		{"no source", noSource, diagnostic.ErrSemantic, diagnostic.CodeMissingLogicalTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Emit(newDoc(t, tt.tm), mapping.DialectR2RML)
			require.Error(t, err)

			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.code, diagnostic.CodeOf(err))
		})
	}
}

func TestEmitTermTypes(t *testing.T) {
	tm := &mapping.TriplesMap{
		ID: "m",
		Subject: mapping.SubjectMap{TermMap: mapping.TermMap{
			Value: mapping.Reference{Name: "id"}, TermType: mapping.TermBlankNode,
		}},
		PredicateObjects: []mapping.PredicateObjectMap{{
			Predicates: []mapping.TermMap{constIRI("http://ex.org/p")},
			Objects: []mapping.TermMap{
				{Value: mapping.Template{Pattern: "Hello {name}"}, TermType: mapping.TermLiteral},
				{Value: mapping.Template{Pattern: "http://ex.org/{id}"}, TermType: mapping.TermIRI},
				{Value: mapping.Reference{Name: "age"}, TermType: mapping.TermLiteral, Datatype: xsd + "integer"},
			},
		}},
	}

	got, err := Emit(newDoc(t, tm), mapping.DialectRML)
	require.NoError(t, err)

	var termTypes []quad.Quad

	for _, q := range got {
		if q.Predicate == rrTermType {
			termTypes = append(termTypes, q)
		}
	}

	assert.Equal(t, []quad.Quad{
		tq(quad.BNode("b1"), rrTermType, rrBlankNode),
		tq(quad.BNode("b4"), rrTermType, rrLiteral),
	}, termTypes)
	assert.Contains(t, got, tq(quad.BNode("b6"), rrDatatype, quad.IRI(xsd+"integer")))
}

func TestEmitAvoidsConstantBlankLabels(t *testing.T) {
	tm := personMap()
	tm.PredicateObjects[0].Objects[0] = mapping.TermMap{
		Value:    mapping.Constant{Term: mapping.Term{Kind: mapping.TermBlankNode, Value: "b0"}},
		TermType: mapping.TermBlankNode,
	}

	got, err := Emit(newDoc(t, tm), mapping.DialectRML)
	require.NoError(t, err)

	assert.Equal(t, tq(quad.IRI(exBase+"person"), rmlLogicalSourceProp, quad.BNode("b1")), got[0])
	assert.Contains(t, got, tq(quad.BNode("b5"), rrConstant, quad.BNode("b0")))
}

func TestEmitEmptySource(t *testing.T) {
	tm := personMap()
	tm.Source = mapping.LogicalSource{}
	tm.Subject.Classes = nil
	tm.PredicateObjects = nil

	got, err := Emit(newDoc(t, tm), mapping.DialectRML)
	require.NoError(t, err)

	person := quad.IRI(exBase + "person")

	assert.Equal(t, []quad.Quad{
		tq(person, rmlLogicalSourceProp, quad.BNode("b0")),
		tq(quad.BNode("b0"), rdfType, rmlLogicalSource),
		tq(person, rdfType, rrTriplesMap),
		tq(person, rrSubjectMapProp, quad.BNode("b1")),
		tq(quad.BNode("b1"), rdfType, rrSubjectMap),
		tq(quad.BNode("b1"), rrTemplate, quad.String("http://ex.org/{id}")),
	}, got)
}
