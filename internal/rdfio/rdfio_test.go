package rdfio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yarrrml-compiler/internal/prefix"
)

const (
	ex   = "http://ex.org/"
	foaf = "http://xmlns.com/foaf/0.1/"
	xsd  = "http://www.w3.org/2001/XMLSchema#"
)

func sampleQuads() []quad.Quad {
	return []quad.Quad{
		quad.MakeIRI(ex+"a", prefix.RDF+"type", ex+"Person", ""),
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(foaf + "name"), Object: quad.String(`Ann "A"`)},
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(foaf + "name"), Object: quad.LangString{Value: "Anne", Lang: "fr"}},
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(ex + "age"), Object: quad.TypedString{Value: "41", Type: quad.IRI(xsd + "int")}},
		{Subject: quad.BNode("b0"), Predicate: quad.IRI(ex + "knows"), Object: quad.IRI(ex + "a")},
	}
}

func TestNQuadsRoundTrip(t *testing.T) {
	quads := append(sampleQuads(), quad.Quad{
		Subject:   quad.IRI(ex + "a"),
		Predicate: quad.IRI(ex + "in"),
		Object:    quad.String("graph"),
		Label:     quad.IRI(ex + "g"),
	})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, quads, NQuads, Options{}))
	assert.Contains(t, buf.String(), "<http://ex.org/a> <http://ex.org/in> \"graph\" <http://ex.org/g> .")

	got, err := Read(&buf, NQuads)
	require.NoError(t, err)
	assert.Equal(t, quads, got)
}

func TestReadNQuadsError(t *testing.T) {
	_, err := Read(strings.NewReader("<http://ex.org/a> <http://ex.org/b>\n"), NTriples)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading N-Quads")
}

func TestJSONLDRoundTrip(t *testing.T) {
	quads := sampleQuads()[:4]
	quads = append(quads, quad.Quad{
		Subject:   quad.IRI(ex + "a"),
		Predicate: quad.IRI(ex + "in"),
		Object:    quad.String("graph"),
		Label:     quad.IRI(ex + "g"),
	})

	opts := Options{Prefixes: prefix.NewTable([2]string{"ex", ex}, [2]string{"foaf", foaf})}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, quads, JSONLD, opts))
	assert.Contains(t, buf.String(), `"@context"`)
	assert.Contains(t, buf.String(), `"ex": "http://ex.org/"`)

	got, err := Read(&buf, JSONLD)
	require.NoError(t, err)
	assert.ElementsMatch(t, quads, got)
}

func TestReadJSONLD(t *testing.T) {
	doc := `{
  "@context": {"ex": "http://ex.org/"},
  "@id": "ex:a",
  "ex:name": "A",
  "ex:age": {"@value": "3", "@type": "http://www.w3.org/2001/XMLSchema#int"}
}`

	got, err := Read(strings.NewReader(doc), JSONLD)
	require.NoError(t, err)
	assert.ElementsMatch(t, []quad.Quad{
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(ex + "name"), Object: quad.String("A")},
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(ex + "age"), Object: quad.TypedString{Value: "3", Type: quad.IRI(xsd + "int")}},
	}, got)
}

func TestWriteTurtle(t *testing.T) {
	quads := append(sampleQuads(), quad.MakeIRI("http://base.org/x", ex+"p", ex+"a", ""))

	opts := Options{
		Prefixes: prefix.NewTable([2]string{"ex", ex}, [2]string{"foaf", foaf}, [2]string{"unused", "http://unused.org/"}),
		BaseIRI:  "http://base.org/",
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, quads, Turtle, opts))

	want := `@prefix ex: <http://ex.org/> .
@prefix foaf: <http://xmlns.com/foaf/0.1/> .
@prefix : <http://base.org/> .

ex:a a ex:Person ;
    foaf:name "Ann \"A\"", "Anne"@fr ;
    ex:age "41"^^<http://www.w3.org/2001/XMLSchema#int> .

_:b0 ex:knows ex:a .

:x ex:p ex:a .
`
	assert.Equal(t, want, buf.String())
}

func TestWriteTurtleEscapes(t *testing.T) {
	quads := []quad.Quad{
		{Subject: quad.IRI("http://ex.org/a b"), Predicate: quad.IRI(ex + "note"), Object: quad.String("line1\nline2\t\\")},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, quads, Turtle, Options{}))
	assert.Equal(t, "<http://ex.org/a\\u0020b> <http://ex.org/note> \"line1\\nline2\\t\\\\\" .\n", buf.String())
}

func TestWriteTurtleRejectsGraphs(t *testing.T) {
	quads := []quad.Quad{quad.MakeIRI(ex+"a", ex+"p", ex+"b", ex+"g")}

	err := Write(&bytes.Buffer{}, quads, Turtle, Options{})
	require.ErrorIs(t, err, errNamedGraph)
}

func TestReadTurtle(t *testing.T) {
	doc := `@prefix ex: <http://ex.org/> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

ex:a a ex:Person ;
    ex:name "A", "Anne"@fr ;
    ex:age "3"^^xsd:int .

_:b0 ex:knows ex:a .
`

	got, err := Read(strings.NewReader(doc), Turtle)
	require.NoError(t, err)
	assert.Equal(t, []quad.Quad{
		quad.MakeIRI(ex+"a", prefix.RDF+"type", ex+"Person", ""),
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(ex + "name"), Object: quad.String("A")},
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(ex + "name"), Object: quad.LangString{Value: "Anne", Lang: "fr"}},
		{Subject: quad.IRI(ex + "a"), Predicate: quad.IRI(ex + "age"), Object: quad.TypedString{Value: "3", Type: quad.IRI(xsd + "int")}},
		{Subject: quad.BNode("b0"), Predicate: quad.IRI(ex + "knows"), Object: quad.IRI(ex + "a")},
	}, got)
}

func TestTurtleRoundTrip(t *testing.T) {
	opts := Options{Prefixes: prefix.NewTable([2]string{"ex", ex}, [2]string{"foaf", foaf})}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleQuads(), Turtle, opts))

	got, err := Read(&buf, Turtle)
	require.NoError(t, err)
	assert.ElementsMatch(t, sampleQuads(), got)
}

func TestReadTurtleSyntaxError(t *testing.T) {
	_, err := Read(strings.NewReader("ex:a ex:b ex:c .\n"), Turtle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading Turtle")
}

func TestReadUnknownFormat(t *testing.T) {
	_, err := Read(strings.NewReader(""), Format(99))
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"turtle", Turtle},
		{"TTL", Turtle},
		{"n-triples", NTriples},
		{"nq", NQuads},
		{"json-ld", JSONLD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("rdfxml")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("out/mapping.NT")
	require.True(t, ok)
	assert.Equal(t, NTriples, f)
	assert.Equal(t, "ntriples", f.String())

	_, ok = FormatFromPath("mapping.yml")
	assert.False(t, ok)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.ttl")

	require.NoError(t, WriteFile(path, []byte("data")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}
