package rml

import (
	"fmt"
	"strconv"

	"github.com/cayleygraph/quad"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
)

// emitter appends triples in emission order.
type emitter struct {
	doc     *mapping.Document
	dialect mapping.Dialect
	out     []quad.Quad

	next     int
	reserved map[string]bool
}

// Emit renders doc as RML or R2RML triples. The sequence is deterministic:
// emitting the same document twice yields identical output. Under R2RML,
// function maps and non-relational sources are rejected before anything is
// produced.
func Emit(doc *mapping.Document, dialect mapping.Dialect) ([]quad.Quad, error) {
	if dialect == mapping.DialectR2RML {
		if err := CheckR2RML(doc); err != nil {
			return nil, err
		}
	}

	e := &emitter{doc: doc, dialect: dialect, reserved: reservedLabels(doc)}

	for _, tm := range doc.TriplesMaps {
		e.triplesMap(tm)
	}

	return e.out, nil
}

// CheckR2RML reports every construct of doc that R2RML cannot express.
func CheckR2RML(doc *mapping.Document) error {
	var diags diagnostic.Diagnostics

	for _, tm := range doc.TriplesMaps {
		at := diagnostic.Location{Mapping: tm.ID, Line: tm.At.Line, Column: tm.At.Column}

		switch {
		case tm.Source.IsZero():
			diags.Errorf(diagnostic.KindSemantic, diagnostic.CodeMissingLogicalTable, at,
				"R2RML needs a table or query for mapping %q", tm.ID)
		case !tm.Source.IsRelational():
			diags.Errorf(diagnostic.KindUnsupportedInR2RML, diagnostic.CodeUnsupportedInR2RML, at,
				"source %q of mapping %q is not relational", tm.Source.Access, tm.ID)
		}

		visit(tm, func(path string, t mapping.TermMap) {
			if _, ok := t.Value.(mapping.FunctionMap); ok {
				diags.Errorf(diagnostic.KindUnsupportedInR2RML, diagnostic.CodeUnsupportedInR2RML,
					diagnostic.Location{Mapping: tm.ID, Path: path, Line: t.At.Line, Column: t.At.Column},
					"function maps cannot be expressed in R2RML")
			}
		})
	}

	return diags.Err()
}

// visit calls fn for every term map of tm, functions included but not
// their parameters.
func visit(tm *mapping.TriplesMap, fn func(path string, t mapping.TermMap)) {
	fn("subject", tm.Subject.TermMap)

	for i, g := range tm.Subject.Graphs {
		fn(fmt.Sprintf("graph[%d]", i), g)
	}

	for i, pom := range tm.PredicateObjects {
		for j, p := range pom.Predicates {
			fn(fmt.Sprintf("po[%d].p[%d]", i, j), p)
		}

		for j, o := range pom.Objects {
			fn(fmt.Sprintf("po[%d].o[%d]", i, j), o)
		}

		for j, g := range pom.Graphs {
			fn(fmt.Sprintf("po[%d].graph[%d]", i, j), g)
		}
	}
}

// reservedLabels collects blank node constants so generated labels avoid them.
func reservedLabels(doc *mapping.Document) map[string]bool {
	out := map[string]bool{}

	var walk func(t mapping.TermMap)
	walk = func(t mapping.TermMap) {
		switch v := t.Value.(type) {
		case mapping.Constant:
			if v.Term.Kind == mapping.TermBlankNode {
				out[v.Term.Value] = true
			}
		case mapping.FunctionMap:
			for _, p := range v.Parameters {
				walk(p.Value)
			}
		}
	}

	for _, tm := range doc.TriplesMaps {
		visit(tm, func(_ string, t mapping.TermMap) { walk(t) })
	}

	return out
}

func (e *emitter) bnode() quad.BNode {
	for {
		label := "b" + strconv.Itoa(e.next)
		e.next++

		if !e.reserved[label] {
			return quad.BNode(label)
		}
	}
}

func (e *emitter) add(s quad.Value, p quad.IRI, o quad.Value) {
	e.out = append(e.out, quad.Quad{Subject: s, Predicate: p, Object: o})
}

func (e *emitter) str(s quad.Value, p quad.IRI, value string) {
	if value != "" {
		e.add(s, p, quad.String(value))
	}
}

func (e *emitter) triplesMap(tm *mapping.TriplesMap) {
	node := quad.IRI(e.doc.IRIOf(tm.ID))

	e.logicalSource(node, tm.Source)
	e.add(node, rdfType, rrTriplesMap)

	sm := e.bnode()
	e.add(node, rrSubjectMapProp, sm)
	e.termMap(sm, rrSubjectMap, mapping.PosSubject, tm.Subject.TermMap)

	for _, c := range tm.Subject.Classes {
		e.add(sm, rrClass, quad.IRI(c))
	}

	e.graphMaps(sm, tm.Subject.Graphs)

	for _, pom := range tm.PredicateObjects {
		e.predicateObjectMap(node, pom)
	}
}

func (e *emitter) logicalSource(node quad.IRI, ls mapping.LogicalSource) {
	src := e.bnode()

	if e.dialect == mapping.DialectR2RML {
		e.add(node, rrLogicalTableProp, src)

		if ls.Query != "" && ls.Table == "" {
			e.add(src, rdfType, rrR2RMLView)
		} else {
			e.add(src, rdfType, rrLogicalTable)
		}

		e.str(src, rrTableName, ls.Table)
		e.str(src, rrSQLQuery, ls.Query)

		if ls.SQLVersion != "" {
			e.add(src, rrSQLVersion, quad.IRI(ls.SQLVersion))
		}

		return
	}

	e.add(node, rmlLogicalSourceProp, src)
	e.add(src, rdfType, rmlLogicalSource)
	e.str(src, rmlSource, ls.Access)

	if ls.ReferenceFormulation != "" {
		e.add(src, rmlReferenceFormulation, quad.IRI(ls.ReferenceFormulation))
	}

	e.str(src, rmlIterator, ls.Iterator)
	e.str(src, rrTableName, ls.Table)
	e.str(src, rmlQuery, ls.Query)

	if ls.SQLVersion != "" {
		e.add(src, rrSQLVersion, quad.IRI(ls.SQLVersion))
	}
}

func (e *emitter) predicateObjectMap(node quad.Value, pom mapping.PredicateObjectMap) {
	n := e.bnode()
	e.add(node, rrPredicateObjectMapProp, n)
	e.add(n, rdfType, rrPredicateObjectMap)

	for _, p := range pom.Predicates {
		pm := e.bnode()
		e.add(n, rrPredicateMapProp, pm)
		e.termMap(pm, rrPredicateMap, mapping.PosPredicate, p)
	}

	for _, o := range pom.Objects {
		e.objectMap(n, o, mapping.PosObject)
	}

	e.graphMaps(n, pom.Graphs)
}

func (e *emitter) objectMap(pom quad.Value, o mapping.TermMap, pos mapping.Position) {
	om := e.bnode()
	e.add(pom, rrObjectMapProp, om)

	class := rrObjectMap
	if _, ok := o.Value.(mapping.Join); ok {
		class = rrRefObjectMap
	}

	e.termMap(om, class, pos, o)
}

func (e *emitter) graphMaps(node quad.Value, graphs []mapping.TermMap) {
	for _, g := range graphs {
		gm := e.bnode()
		e.add(node, rrGraphMapProp, gm)
		e.termMap(gm, rrGraphMap, mapping.PosGraph, g)
	}
}

func (e *emitter) termMap(node quad.BNode, class quad.IRI, pos mapping.Position, tm mapping.TermMap) {
	e.add(node, rdfType, class)

	switch v := tm.Value.(type) {
	case mapping.Constant:
		e.add(node, rrConstant, toValue(v.Term))
	case mapping.Reference:
		if e.dialect == mapping.DialectR2RML {
			e.add(node, rrColumn, quad.String(v.Name))
		} else {
			e.add(node, rmlReference, quad.String(v.Name))
		}
	case mapping.Template:
		e.add(node, rrTemplate, quad.String(v.Pattern))
	case mapping.FunctionMap:
		fn := e.bnode()
		e.add(node, fnmlFunctionValue, fn)
		e.function(fn, v)
	case mapping.Join:
		e.add(node, rrParentTriplesMap, quad.IRI(e.doc.IRIOf(v.Parent)))

		for _, c := range v.Conditions {
			jc := e.bnode()
			e.add(node, rrJoinCondition, jc)
			e.add(jc, rdfType, rrJoin)
			e.str(jc, rrChild, c.Child)
			e.str(jc, rrParent, c.Parent)
		}

		return
	}

	if _, isConst := tm.Value.(mapping.Constant); !isConst && tm.TermType != mapping.DefaultTermType(pos, tm) {
		e.add(node, rrTermType, termTypeIRI(tm.TermType))
	}

	if tm.Datatype != "" {
		e.add(node, rrDatatype, quad.IRI(tm.Datatype))
	}

	if tm.Language != "" {
		e.str(node, rrLanguage, tm.Language)
	}
}

// function writes fn as a node whose predicate-object maps execute the
// function (fno:executes) and bind its parameters.
func (e *emitter) function(node quad.BNode, fn mapping.FunctionMap) {
	exec := mapping.TermMap{Value: mapping.Constant{Term: mapping.IRI(fn.Function)}}
	e.functionPOM(node, string(fnoExecutes), exec)

	for _, p := range fn.Parameters {
		e.functionPOM(node, p.Predicate, p.Value)
	}
}

func (e *emitter) functionPOM(node quad.BNode, predicate string, value mapping.TermMap) {
	n := e.bnode()
	e.add(node, rrPredicateObjectMapProp, n)
	e.add(n, rdfType, rrPredicateObjectMap)

	pm := e.bnode()
	e.add(n, rrPredicateMapProp, pm)
	e.termMap(pm, rrPredicateMap, mapping.PosPredicate, mapping.TermMap{Value: mapping.Constant{Term: mapping.IRI(predicate)}})

	e.objectMap(n, value, mapping.PosParameter)
}
