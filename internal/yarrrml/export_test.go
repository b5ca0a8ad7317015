package yarrrml

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
)

const richDocument = `
prefixes:
  ex: http://ex.com/
  foaf: http://xmlns.com/foaf/0.1/
  xsd: http://www.w3.org/2001/XMLSchema#
  grel: http://users.ugent.be/~bjdmeest/function/grel.ttl#
base: http://data.ex.com/
mappings:
  person:
    sources:
      - ['people.json~jsonpath', '$.people[*]']
    s: ex:person/$(id)
    graph: ex:graphs/people
    po:
      - [a, foaf:Person]
      - [foaf:name, $(name), en~lang]
      - [ex:age, $(age), xsd:integer]
      - [ex:greeting, Hello $(name)]
      - [ex:homepage, ex:page/$(id)~iri]
      - [ex:note, '\$not a reference']
      - [ex:braces, {constant: '{not a template}'}]
      - p: [ex:knows, foaf:knows]
        o: {mapping: person, condition: {child: $(friend), parent: $(id)}}
      - p: ex:upper
        o:
          function: grel:toUpperCase
          parameters:
            - [grel:valueParameter, $(name)]
        graph: ex:graphs/derived
      - [ex:node, b1~blanknode]
  company:
    sources: companies.csv~csv
    s: ex:company/{id}
    class: [ex:Company, foaf:Organization]
    po:
      ex:name: $(name)
  employee:
    sources:
      table: EMP
      sqlVersion: SQL2008
    s: ex:emp/{EMPNO}
`

func assertSameDocument(t *testing.T, want, got *mapping.Document) {
	t.Helper()

	assert.Equal(t, want.BaseIRI, got.BaseIRI)
	assert.True(t, want.Prefixes.Equal(got.Prefixes), "prefixes: %v != %v", want.Prefixes.Map(), got.Prefixes.Map())
	assert.Equal(t, want.Dialect, got.Dialect)
	require.Equal(t, want.IDs(), got.IDs())

	eq := func(a, b mapping.TermMap) bool { return a.Equal(b) }

	for i, w := range want.TriplesMaps {
		g := got.TriplesMaps[i]

		assert.Equal(t, w.Source, g.Source, w.ID)
		assert.True(t, w.Subject.TermMap.Equal(g.Subject.TermMap), "%s subject: %+v != %+v", w.ID, w.Subject, g.Subject)
		assert.Equal(t, w.Subject.Classes, g.Subject.Classes, w.ID)
		assert.True(t, slices.EqualFunc(w.Subject.Graphs, g.Subject.Graphs, eq), "%s graphs", w.ID)
		assert.True(t, slices.EqualFunc(w.PredicateObjects, g.PredicateObjects, pomEqual),
			"%s predicate-objects:\n%+v\n%+v", w.ID, w.PredicateObjects, g.PredicateObjects)
	}
}

func decodeAny(t *testing.T, data []byte) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))

	return out
}

func TestMarshalConcreteScenario(t *testing.T) {
	src := []byte(`mappings:
  m:
    subject: http://ex.org/{id}
    predicate:
      http://ex.org/name: $name
`)

	doc, err := ParseBytes(src, Options{})
	require.NoError(t, err)

	tm := doc.TriplesMaps[0]
	assert.Equal(t, mapping.Template{Pattern: "http://ex.org/{id}"}, tm.Subject.Value)
	require.Len(t, tm.PredicateObjects, 1)
	assert.Equal(t, mapping.Constant{Term: mapping.IRI("http://ex.org/name")}, tm.PredicateObjects[0].Predicates[0].Value)
	assert.Equal(t, mapping.Reference{Name: "name"}, tm.PredicateObjects[0].Objects[0].Value)

	out, err := Marshal(doc, ExportOptions{})
	require.NoError(t, err)

	assert.Equal(t, decodeAny(t, src), decodeAny(t, out), string(out))
}

func TestMarshalRoundTrip(t *testing.T) {
	doc, err := ParseBytes([]byte(richDocument), Options{})
	require.NoError(t, err)

	out, err := Marshal(doc, ExportOptions{})
	require.NoError(t, err)

	again, err := ParseBytes(out, Options{})
	require.NoError(t, err, string(out))

	assertSameDocument(t, doc, again)

	out2, err := Marshal(again, ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, string(out), string(out2))
}

func TestMarshalShorthandForms(t *testing.T) {
	doc, err := ParseBytes([]byte(richDocument), Options{})
	require.NoError(t, err)

	out, err := Marshal(doc, ExportOptions{})
	require.NoError(t, err)

	tree := decodeAny(t, out)
	maps := tree["mappings"].(map[string]any)

	company := maps["company"].(map[string]any)
	assert.Equal(t, "companies.csv~csv", company["sources"])
	assert.Equal(t, "ex:company/{id}", company["subject"])
	assert.Equal(t, []any{"ex:Company", "foaf:Organization"}, company["class"])
	assert.Equal(t, map[string]any{"ex:name": "$name"}, company["predicate"])

	person := maps["person"].(map[string]any)
	assert.Equal(t, []any{"people.json~jsonpath", "$.people[*]"}, person["sources"])

	poms := person["predicate"].([]any)
	assert.Equal(t, []any{"a", "foaf:Person"}, poms[0])
	assert.Equal(t, []any{"foaf:name", "$name", "en~lang"}, poms[1])
	assert.Equal(t, []any{"ex:age", "$age", "xsd:integer"}, poms[2])
	assert.Equal(t, []any{"ex:greeting", "Hello {name}"}, poms[3])
	assert.Equal(t, []any{"ex:homepage", "ex:page/{id}~iri"}, poms[4])
	assert.Equal(t, []any{"ex:note", `\$not a reference`}, poms[5])
	assert.Equal(t, []any{"ex:braces", map[string]any{"constant": "{not a template}"}}, poms[6])

	employee := maps["employee"].(map[string]any)
	assert.Equal(t, map[string]any{"table": "EMP", "sqlVersion": "rr:SQL2008"}, employee["sources"])

	assert.Equal(t, "http://data.ex.com/", tree["base"])
	assert.Equal(t, map[string]any{
		"ex":   "http://ex.com/",
		"foaf": "http://xmlns.com/foaf/0.1/",
		"xsd":  "http://www.w3.org/2001/XMLSchema#",
		"grel": "http://users.ugent.be/~bjdmeest/function/grel.ttl#",
	}, tree["prefixes"])
}

func TestMarshalFallbackPrefixes(t *testing.T) {
	doc := mapping.NewDocument("", nil)
	require.NoError(t, doc.Add(&mapping.TriplesMap{
		ID: "person",
		Subject: mapping.SubjectMap{
			TermMap: mapping.TermMap{Value: mapping.Template{Pattern: "http://ex.org/{id}"}},
		},
		PredicateObjects: []mapping.PredicateObjectMap{{
			Predicates: []mapping.TermMap{{Value: mapping.Constant{Term: mapping.IRI(foaf + "name")}}},
			Objects:    []mapping.TermMap{{Value: mapping.Reference{Name: "name"}, TermType: mapping.TermLiteral}},
		}},
	}))

	fallback := prefix.NewTable([2]string{"foaf", foaf}, [2]string{"unused", "http://unused.org/"})

	out, err := Marshal(doc, ExportOptions{Fallback: fallback})
	require.NoError(t, err)

	tree := decodeAny(t, out)
	assert.Equal(t, map[string]any{"foaf": foaf}, tree["prefixes"])

	person := tree["mappings"].(map[string]any)["person"].(map[string]any)
	assert.Equal(t, map[string]any{"foaf:name": "$name"}, person["predicate"])

	again, err := ParseBytes(out, Options{})
	require.NoError(t, err)
	assert.True(t, again.TriplesMaps[0].PredicateObjects[0].Predicates[0].Equal(
		doc.TriplesMaps[0].PredicateObjects[0].Predicates[0]))
}

func TestMarshalWithoutFallbackKeepsFullIRIs(t *testing.T) {
	doc := mapping.NewDocument("", nil)
	require.NoError(t, doc.Add(&mapping.TriplesMap{
		ID: "m",
		Subject: mapping.SubjectMap{
			TermMap: mapping.TermMap{Value: mapping.Constant{Term: mapping.IRI("http://ex.org/thing")}},
			Classes: []string{foaf + "Person"},
		},
	}))

	out, err := Marshal(doc, ExportOptions{})
	require.NoError(t, err)

	tree := decodeAny(t, out)
	assert.NotContains(t, tree, "prefixes")

	m := tree["mappings"].(map[string]any)["m"].(map[string]any)
	assert.Equal(t, "http://ex.org/thing", m["subject"])
	assert.Equal(t, foaf+"Person", m["class"])
}

func TestMarshalPreserveDialect(t *testing.T) {
	doc := mapping.NewDocument("", nil)
	doc.Dialect = mapping.DialectR2RML

	out, err := Marshal(doc, ExportOptions{PreserveDialect: true})
	require.NoError(t, err)
	assert.Equal(t, "r2rml", decodeAny(t, out)["dialect"])

	out, err = Marshal(doc, ExportOptions{})
	require.NoError(t, err)
	assert.NotContains(t, decodeAny(t, out), "dialect")
}

func TestMarshalEmptyDocument(t *testing.T) {
	out, err := Marshal(mapping.NewDocument("", nil), ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "mappings: {}\n", string(out))
}

func TestMarshalDuplicatePredicatesUseList(t *testing.T) {
	doc, err := ParseBytes([]byte(`
mappings:
  m:
    s: http://ex.com/{id}
    po:
      - [http://ex.com/p, $a]
      - [http://ex.com/p, $b]
`), Options{})
	require.NoError(t, err)

	out, err := Marshal(doc, ExportOptions{})
	require.NoError(t, err)

	m := decodeAny(t, out)["mappings"].(map[string]any)["m"].(map[string]any)
	assert.Equal(t, []any{
		[]any{"http://ex.com/p", "$a"},
		[]any{"http://ex.com/p", "$b"},
	}, m["predicate"])
}
