package rml

import (
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"

	"yarrrml-compiler/internal/prefix"
)

var rdfType = quad.IRI(rdf.Type).Full()

func rr(local string) quad.IRI   { return quad.IRI(prefix.RR + local) }
func rml(local string) quad.IRI  { return quad.IRI(prefix.RML + local) }
func fnml(local string) quad.IRI { return quad.IRI(prefix.FNML + local) }
func fno(local string) quad.IRI  { return quad.IRI(prefix.FNO + local) }

// Classes.
var (
	rrTriplesMap         = rr("TriplesMap")
	rrLogicalTable       = rr("LogicalTable")
	rrR2RMLView          = rr("R2RMLView")
	rrSubjectMap         = rr("SubjectMap")
	rrPredicateObjectMap = rr("PredicateObjectMap")
	rrPredicateMap       = rr("PredicateMap")
	rrObjectMap          = rr("ObjectMap")
	rrRefObjectMap       = rr("RefObjectMap")
	rrGraphMap           = rr("GraphMap")
	rrTermMap            = rr("TermMap")
	rrJoin               = rr("Join")
	rmlLogicalSource     = rml("LogicalSource")
	fnmlFunctionTermMap  = fnml("FunctionTermMap")
)

// Term types.
var (
	rrIRI       = rr("IRI")
	rrBlankNode = rr("BlankNode")
	rrLiteral   = rr("Literal")
)

// Properties.
var (
	rrLogicalTableProp       = rr("logicalTable")
	rrTableName              = rr("tableName")
	rrSQLQuery               = rr("sqlQuery")
	rrSQLVersion             = rr("sqlVersion")
	rrSubjectMapProp         = rr("subjectMap")
	rrSubject                = rr("subject")
	rrClass                  = rr("class")
	rrGraphMapProp           = rr("graphMap")
	rrGraph                  = rr("graph")
	rrPredicateObjectMapProp = rr("predicateObjectMap")
	rrPredicateMapProp       = rr("predicateMap")
	rrPredicate              = rr("predicate")
	rrObjectMapProp          = rr("objectMap")
	rrObject                 = rr("object")
	rrConstant               = rr("constant")
	rrTemplate               = rr("template")
	rrColumn                 = rr("column")
	rrTermType               = rr("termType")
	rrDatatype               = rr("datatype")
	rrLanguage               = rr("language")
	rrParentTriplesMap       = rr("parentTriplesMap")
	rrJoinCondition          = rr("joinCondition")
	rrChild                  = rr("child")
	rrParent                 = rr("parent")

	rmlLogicalSourceProp    = rml("logicalSource")
	rmlSource               = rml("source")
	rmlReferenceFormulation = rml("referenceFormulation")
	rmlIterator             = rml("iterator")
	rmlQuery                = rml("query")
	rmlReference            = rml("reference")

	fnmlFunctionValue = fnml("functionValue")
	fnoExecutes       = fno("executes")
)

// mapClasses are the rdf:type values a term map node may carry.
var mapClasses = []quad.IRI{
	rrSubjectMap, rrPredicateMap, rrObjectMap, rrRefObjectMap, rrGraphMap, rrTermMap, fnmlFunctionTermMap,
}

// rmlOnly lists predicates that never occur in R2RML documents.
var rmlOnly = []quad.IRI{
	rmlLogicalSourceProp, rmlSource, rmlReferenceFormulation, rmlIterator, rmlQuery, rmlReference, fnmlFunctionValue,
}

const xsdString = quad.IRI("http://www.w3.org/2001/XMLSchema#string")
