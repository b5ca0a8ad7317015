package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTermType(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		tm   TermMap
		want TermType
	}{
		{"subject template", PosSubject, TermMap{Value: Template{Pattern: "http://ex/{id}"}}, TermIRI},
		{"subject reference", PosSubject, TermMap{Value: Reference{Name: "uri"}}, TermIRI},
		{"object reference", PosObject, TermMap{Value: Reference{Name: "name"}}, TermLiteral},
		{"object template", PosObject, TermMap{Value: Template{Pattern: "http://ex/{id}"}}, TermIRI},
		{"object template with language", PosObject, TermMap{Value: Template{Pattern: "{a} {b}"}, Language: "en"}, TermLiteral},
		{"object iri constant", PosObject, TermMap{Value: Constant{Term: IRI("http://ex/A")}}, TermIRI},
		{"object literal constant", PosObject, TermMap{Value: Constant{Term: Literal("x")}}, TermLiteral},
		{"object function", PosObject, TermMap{Value: FunctionMap{Function: "http://ex/f"}}, TermLiteral},
		{"object join", PosObject, TermMap{Value: Join{Parent: "p"}}, TermIRI},
		{"graph reference", PosGraph, TermMap{Value: Reference{Name: "g"}}, TermIRI},
		{"parameter reference", PosParameter, TermMap{Value: Reference{Name: "v"}}, TermLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultTermType(tt.pos, tt.tm))
		})
	}
}

func TestValueClass(t *testing.T) {
	values := map[ValueClass]Value{
		ClassConstant:  Constant{},
		ClassReference: Reference{},
		ClassTemplate:  Template{},
		ClassFunction:  FunctionMap{},
		ClassJoin:      Join{},
	}

	for class, v := range values {
		assert.Equal(t, class, v.Class())
	}

	assert.Equal(t, "template", ClassTemplate.String())
	assert.Equal(t, "unknown", ValueClass(42).String())
}

func TestTermMapEqual(t *testing.T) {
	fn := func(ref string) TermMap {
		return TermMap{
			TermType: TermLiteral,
			Value: FunctionMap{
				Function: "http://ex/toUpper",
				Parameters: []Parameter{
					{Predicate: "http://ex/p", Value: TermMap{Value: Reference{Name: ref}, TermType: TermLiteral}},
				},
			},
		}
	}

	assert.True(t, fn("name").Equal(fn("name")))
	assert.False(t, fn("name").Equal(fn("other")))

	join := TermMap{Value: Join{Parent: "a", Conditions: []JoinCondition{{Child: "x", Parent: "y"}}}}
	joinAt := join
	joinAt.At = Span{Line: 9}
	assert.True(t, join.Equal(joinAt))

	assert.False(t, TermMap{Value: Reference{Name: "x"}}.Equal(TermMap{Value: Template{Pattern: "x"}}))
	assert.False(t, TermMap{Value: Reference{Name: "x"}}.Equal(TermMap{}))
	assert.True(t, TermMap{}.Equal(TermMap{}))
}

func TestParseTermType(t *testing.T) {
	tt, ok := ParseTermType("blanknode")
	assert.True(t, ok)
	assert.Equal(t, TermBlankNode, tt)

	_, ok = ParseTermType("bnode?")
	assert.False(t, ok)
}
