package mapping

import (
	"slices"

	"yarrrml-compiler/internal/common"
)

// ValueClass names the variant held by a TermMap.
type ValueClass int

const (
	ClassConstant ValueClass = iota
	ClassReference
	ClassTemplate
	ClassFunction
	ClassJoin
)

// String returns the value class name.
func (c ValueClass) String() string {
	switch c {
	case ClassConstant:
		return "constant"
	case ClassReference:
		return "reference"
	case ClassTemplate:
		return "template"
	case ClassFunction:
		return "function"
	case ClassJoin:
		return "join"
	default:
		return common.UnknownStr
	}
}

// Value is the sealed set of term map variants.
type Value interface {
	Class() ValueClass
	isValue()
}

// Constant always produces the same term.
type Constant struct {
	Term Term
}

// Reference reads one field of the current record.
type Reference struct {
	Name string
}

// Template substitutes {field} placeholders with field values.
type Template struct {
	Pattern string
}

// FunctionMap calls an FnO function with the given parameters.
type FunctionMap struct {
	// Function is the IRI of the executed function.
	Function   string
	Parameters []Parameter
}

// Parameter binds one function parameter predicate to a value.
type Parameter struct {
	Predicate string
	Value     TermMap
}

// Join refers to the subjects of another triples map.
type Join struct {
	// Parent is the ID of the referenced triples map.
	Parent     string
	Conditions []JoinCondition
}

// JoinCondition equates a child reference with a parent reference.
type JoinCondition struct {
	Child  string
	Parent string
}

func (Constant) Class() ValueClass    { return ClassConstant }
func (Reference) Class() ValueClass   { return ClassReference }
func (Template) Class() ValueClass    { return ClassTemplate }
func (FunctionMap) Class() ValueClass { return ClassFunction }
func (Join) Class() ValueClass        { return ClassJoin }

func (Constant) isValue()    {}
func (Reference) isValue()   {}
func (Template) isValue()    {}
func (FunctionMap) isValue() {}
func (Join) isValue()        {}

// TermType is the kind of RDF term a term map generates.
type TermType int

const (
	TermIRI TermType = iota
	TermBlankNode
	TermLiteral
)

// String returns the term type name as written in shorthand.
func (t TermType) String() string {
	switch t {
	case TermIRI:
		return "iri"
	case TermBlankNode:
		return "blanknode"
	case TermLiteral:
		return "literal"
	default:
		return common.UnknownStr
	}
}

// ParseTermType parses a shorthand term type name.
func ParseTermType(s string) (TermType, bool) {
	switch s {
	case "iri", "IRI":
		return TermIRI, true
	case "blanknode", "blank", "BlankNode":
		return TermBlankNode, true
	case "literal", "Literal":
		return TermLiteral, true
	default:
		return TermIRI, false
	}
}

// Term is a constant RDF term.
type Term struct {
	Kind     TermType
	Value    string
	Datatype string
	Language string
}

// IRI returns an IRI term.
func IRI(iri string) Term {
	return Term{Kind: TermIRI, Value: iri}
}

// Literal returns a plain literal term.
func Literal(value string) Term {
	return Term{Kind: TermLiteral, Value: value}
}

// Position is where a term map sits inside a triples map.
type Position int

const (
	PosSubject Position = iota
	PosPredicate
	PosObject
	PosGraph
	PosParameter
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case PosSubject:
		return "subject"
	case PosPredicate:
		return "predicate"
	case PosObject:
		return "object"
	case PosGraph:
		return "graph"
	case PosParameter:
		return "parameter"
	default:
		return common.UnknownStr
	}
}

// TermMap generates RDF terms from a logical source record.
type TermMap struct {
	Value    Value
	TermType TermType
	// Datatype and Language apply to literal term maps that are not constant.
	Datatype string
	Language string
	At       Span
}

// DefaultTermType is the term type implied when none is stated.
func DefaultTermType(pos Position, tm TermMap) TermType {
	switch pos {
	case PosSubject, PosPredicate, PosGraph:
		return TermIRI
	}

	switch v := tm.Value.(type) {
	case Constant:
		return v.Term.Kind
	case Reference, FunctionMap:
		return TermLiteral
	}

	if tm.Datatype != "" || tm.Language != "" {
		return TermLiteral
	}

	return TermIRI
}

// Equal compares two term maps, ignoring source positions.
func (tm TermMap) Equal(other TermMap) bool {
	return tm.TermType == other.TermType &&
		tm.Datatype == other.Datatype &&
		tm.Language == other.Language &&
		ValueEqual(tm.Value, other.Value)
}

// ValueEqual compares two values structurally.
func ValueEqual(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Constant, Reference, Template:
		return a == b
	case FunctionMap:
		bv, ok := b.(FunctionMap)
		if !ok || av.Function != bv.Function {
			return false
		}

		return slices.EqualFunc(av.Parameters, bv.Parameters, func(x, y Parameter) bool {
			return x.Predicate == y.Predicate && x.Value.Equal(y.Value)
		})
	case Join:
		bv, ok := b.(Join)
		return ok && av.Parent == bv.Parent && slices.Equal(av.Conditions, bv.Conditions)
	default:
		return false
	}
}
