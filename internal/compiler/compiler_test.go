package compiler

import (
	"sync"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
	"yarrrml-compiler/internal/yarrrml"
)

const richDocument = `
prefixes:
  ex: http://example.com/ns#
  foaf: http://xmlns.com/foaf/0.1/
  xsd: http://www.w3.org/2001/XMLSchema#
  grel: http://users.ugent.be/~bjdmeest/function/grel.ttl#
base: http://data.ex.com/
mappings:
  person:
    sources:
      - ['people.json~jsonpath', '$.people[*]']
    s: ex:person/$(id)
    po:
      - [a, foaf:Person]
      - [foaf:name, $(name), en~lang]
      - [ex:age, $(age), xsd:integer]
      - p: ex:shout
        o:
          function: grel:toUpperCase
          parameters:
            - [grel:valueParameter, $(name)]
      - p: ex:worksFor
        o:
          mapping: company
          condition:
            function: equal
            parameters:
              - [str1, $(employer)]
              - [str2, $(id)]
  company:
    sources: companies.csv~csv
    s: ex:company/$(id)
    graph: ex:companies
    po:
      - [ex:label, "Company {name}"]
`

func decode(t *testing.T, src string) *yaml.Node {
	t.Helper()

	root, err := yarrrml.Decode([]byte(src))
	require.NoError(t, err)

	return root
}

func decodeAny(t *testing.T, data []byte) any {
	t.Helper()

	var v any
	require.NoError(t, yaml.Unmarshal(data, &v))

	return v
}

func TestConcreteScenario(t *testing.T) {
	src := `mappings:
  m:
    subject: http://ex.org/{id}
    predicate:
      http://ex.org/name: $name
`

	res, err := CompileToRML(decode(t, src), DefaultConfig())
	require.NoError(t, err)

	m := quad.IRI(mapping.DefaultBaseIRI + "m")
	assert.Contains(t, res.Triples, quad.Quad{Subject: m, Predicate: quad.IRI(prefix.RDF + "type"), Object: quad.IRI(prefix.RR + "TriplesMap")})

	objects := map[quad.IRI]quad.Value{}
	for _, q := range res.Triples {
		objects[q.Predicate.(quad.IRI)] = q.Object
	}

	assert.Equal(t, quad.String("http://ex.org/{id}"), objects[quad.IRI(prefix.RR+"template")])
	assert.Equal(t, quad.IRI("http://ex.org/name"), objects[quad.IRI(prefix.RR+"constant")])
	assert.Equal(t, quad.String("name"), objects[quad.IRI(prefix.RML+"reference")])

	out, err := DecompileFromTriples(res.Triples, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, decodeAny(t, []byte(src)), decodeAny(t, out), string(out))
}

func TestRoundTrip(t *testing.T) {
	cfg := DefaultConfig()

	first, err := CompileToRML(decode(t, richDocument), cfg)
	require.NoError(t, err)

	out, err := DecompileFromTriples(first.Triples, Config{Prefixes: first.Prefixes})
	require.NoError(t, err)

	second, err := CompileToRML(decode(t, string(out)), cfg)
	require.NoError(t, err, string(out))

	assert.ElementsMatch(t, first.Triples, second.Triples, string(out))
	assert.Equal(t, first.BaseIRI, second.BaseIRI)

	again, err := DecompileFromTriples(second.Triples, Config{Prefixes: second.Prefixes})
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

func TestCompileIsDeterministic(t *testing.T) {
	first, err := CompileToRML(decode(t, richDocument), DefaultConfig())
	require.NoError(t, err)

	second, err := CompileToRML(decode(t, richDocument), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, first.Triples, second.Triples)
}

func TestCompileToR2RMLRejectsFunctions(t *testing.T) {
	src := `
mappings:
  emp:
    sources:
      - table: EMP
    s: http://ex.org/emp/$(EMPNO)
    po:
      - p: http://ex.org/upper
        o:
          function: http://ex.org/upper
          parameters:
            http://ex.org/value: $(ENAME)
`

	res, err := CompileToR2RML(decode(t, src), DefaultConfig())
	require.Error(t, err)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, diagnostic.ErrUnsupportedInR2RML)
	assert.Equal(t, diagnostic.CodeUnsupportedInR2RML, diagnostic.CodeOf(err))

	res, err = CompileToRML(decode(t, src), DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, res.Triples)
}

func TestR2RMLDialectPreservation(t *testing.T) {
	src := `
mappings:
  emp:
    sources:
      - table: EMP
    s: http://ex.org/emp/$(EMPNO)
    po:
      - [http://ex.org/name, $(ENAME)]
`

	res, err := CompileToR2RML(decode(t, src), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, mapping.DialectR2RML, res.Dialect)
	assert.Contains(t, res.Triples, quad.Quad{
		Subject:   quad.IRI(mapping.DefaultBaseIRI + "emp"),
		Predicate: quad.IRI(prefix.RR + "logicalTable"),
		Object:    quad.BNode("b0"),
	})

	plain, err := DecompileFromTriples(res.Triples, DefaultConfig())
	require.NoError(t, err)
	assert.NotContains(t, string(plain), "dialect")

	cfg := DefaultConfig()
	cfg.PreserveDialect = true

	preserved, err := DecompileFromTriples(res.Triples, cfg)
	require.NoError(t, err)
	assert.Contains(t, string(preserved), "dialect: r2rml")

	again, err := Compile(decode(t, string(preserved)), cfg)
	require.NoError(t, err)
	assert.Equal(t, mapping.DialectR2RML, again.Dialect)
	assert.Equal(t, res.Triples, again.Triples)

	rml, err := Compile(decode(t, string(plain)), cfg)
	require.NoError(t, err)
	assert.Equal(t, mapping.DialectRML, rml.Dialect)
}

func TestDecompileFromTriplesRejectsUnknownTriples(t *testing.T) {
	res, err := CompileToRML(decode(t, richDocument), DefaultConfig())
	require.NoError(t, err)

	extra := quad.Quad{
		Subject:   quad.IRI("http://data.ex.com/person"),
		Predicate: quad.IRI(prefix.RDFS + "comment"),
		Object:    quad.String("people"),
	}

	out, err := DecompileFromTriples(append(res.Triples, extra), DefaultConfig())
	require.Error(t, err)

	assert.Nil(t, out)
	assert.ErrorIs(t, err, diagnostic.ErrDecompile)
	assert.Equal(t, diagnostic.CodeUnrecognizedTriple, diagnostic.CodeOf(err))
}

func TestConfigPrefixes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Prefixes.Set("ex", "http://ex.org/")
	cfg.BaseIRI = "http://maps.ex.org/"

	src := `
mappings:
  person:
    s: ex:person/{id}
    po:
      - [ex:name, $(name)]
`

	res, err := CompileToRML(decode(t, src), cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://maps.ex.org/", res.BaseIRI)
	assert.Contains(t, res.Triples, quad.Quad{
		Subject:   quad.BNode("b3"),
		Predicate: quad.IRI(prefix.RR + "constant"),
		Object:    quad.IRI("http://ex.org/name"),
	})

	out, err := DecompileFromTriples(res.Triples, cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"prefixes": map[string]any{"ex": "http://ex.org/"},
		"base":     "http://maps.ex.org/",
		"mappings": map[string]any{
			"person": map[string]any{
				"subject":   "ex:person/{id}",
				"predicate": map[string]any{"ex:name": "$name"},
			},
		},
	}, decodeAny(t, out), string(out))

	assert.Equal(t, []string{"rr", "rdf", "rdfs", "rml", "ql", "fnml", "fno"}, DefaultPrefixes().Labels())
}

func TestDecompileUsesConfiguredPrefixes(t *testing.T) {
	res, err := CompileToRML(decode(t, "mappings:\n  m:\n    s: http://ex.org/person/{id}\n"), DefaultConfig())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Prefixes.Set("ex", "http://ex.org/")
	cfg.Prefixes.Set("schema", "http://schema.org/")

	doc, err := Decompile(res.Triples, cfg)
	require.NoError(t, err)

	for _, label := range []string{"ex", "schema", "rr", "rml"} {
		_, ok := doc.Prefixes.Lookup(label)
		assert.True(t, ok, label)
	}

	out, err := DecompileFromTriples(res.Triples, cfg)
	require.NoError(t, err)

	tree := decodeAny(t, out).(map[string]any)
	assert.Equal(t, map[string]any{"ex": "http://ex.org/", "schema": "http://schema.org/"}, tree["prefixes"], string(out))
	assert.Equal(t, map[string]any{"m": map[string]any{"subject": "ex:person/{id}"}}, tree["mappings"], string(out))
}

func TestCompileWarnings(t *testing.T) {
	src := `
sources:
  people: ['people.csv~csv']
  unused: ['other.csv~csv']
mappings:
  person:
    sources: people
    s: http://ex.org/{id}
`

	res, err := CompileToRML(decode(t, src), DefaultConfig())
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diagnostic.CodeUnusedSource, res.Warnings[0].Code)
}

func TestCompileReportsLines(t *testing.T) {
	src := `mappings:
  person:
    s: nope:person/{id}
`

	_, err := CompileToRML(decode(t, src), DefaultConfig())
	require.Error(t, err)

	errs := diagnostic.All(err)
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Line)
	assert.ErrorIs(t, err, diagnostic.ErrUnresolvablePrefix)
}

func TestConcurrentCompilations(t *testing.T) {
	want, err := CompileToRML(decode(t, richDocument), DefaultConfig())
	require.NoError(t, err)

	const workers = 8

	results := make([][]quad.Quad, workers)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)

		go func() {
			defer wg.Done()

			root, err := yarrrml.Decode([]byte(richDocument))
			if err != nil {
				return
			}

			if res, err := CompileToRML(root, DefaultConfig()); err == nil {
				results[i] = res.Triples
			}
		}()
	}

	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want.Triples, got)
	}
}
