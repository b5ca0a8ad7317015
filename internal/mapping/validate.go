package mapping

import (
	"fmt"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/match"
)

// Validate checks the invariants of a complete document.
// It never stops at the first problem; all findings are collected.
func Validate(doc *Document) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if doc == nil {
		res.AddError(diagnostic.KindSemantic, "document_is_nil", "document is nil", diagnostic.Location{})
		return res
	}

	if doc.BaseIRI == "" {
		res.AddError(diagnostic.KindSemantic, diagnostic.CodeInvalidBase, "base IRI is empty", diagnostic.Location{})
	}

	seen := map[string]struct{}{}

	for _, tm := range doc.TriplesMaps {
		at := diagnostic.Location{Mapping: tm.ID, Line: tm.At.Line, Column: tm.At.Column}

		if !ValidID(tm.ID) {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidMappingID, at, "invalid mapping id %q", tm.ID)
		}

		if _, ok := seen[tm.ID]; ok {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeDuplicateMapping, at, "duplicate mapping %q", tm.ID)
		}

		seen[tm.ID] = struct{}{}

		validateTriplesMap(res, doc, tm)
	}

	return res
}

func validateTriplesMap(res *diagnostic.Diagnostics, doc *Document, tm *TriplesMap) {
	validateTermMap(res, doc, tm.ID, "subject", PosSubject, tm.Subject.TermMap)

	for i, g := range tm.Subject.Graphs {
		validateTermMap(res, doc, tm.ID, fmt.Sprintf("subject.graphs[%d]", i), PosGraph, g)
	}

	for i, c := range tm.Subject.Classes {
		if c == "" {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidValue,
				location(tm.ID, fmt.Sprintf("classes[%d]", i), tm.Subject.At), "empty class IRI")
		}
	}

	for i, pom := range tm.PredicateObjects {
		path := fmt.Sprintf("po[%d]", i)

		if len(pom.Predicates) == 0 || len(pom.Objects) == 0 {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeMissingValue, location(tm.ID, path, pom.At),
				"predicate-object map needs at least one predicate and one object")
		}

		for j, p := range pom.Predicates {
			validateTermMap(res, doc, tm.ID, fmt.Sprintf("%s.predicates[%d]", path, j), PosPredicate, p)
		}

		for j, o := range pom.Objects {
			validateTermMap(res, doc, tm.ID, fmt.Sprintf("%s.objects[%d]", path, j), PosObject, o)
		}

		for j, g := range pom.Graphs {
			validateTermMap(res, doc, tm.ID, fmt.Sprintf("%s.graphs[%d]", path, j), PosGraph, g)
		}
	}
}

func validateTermMap(res *diagnostic.Diagnostics, doc *Document, mapID, path string, pos Position, tm TermMap) {
	at := location(mapID, path, tm.At)

	switch v := tm.Value.(type) {
	case nil:
		res.AddError(diagnostic.KindSemantic, diagnostic.CodeMissingValue,
			fmt.Sprintf("%s map has no value", pos), at)

		return
	case Constant:
		if v.Term.Kind != tm.TermType {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType, at,
				"constant is a %s but term type is %s", v.Term.Kind, tm.TermType)
		}

		if pos != PosObject && pos != PosParameter && v.Term.Kind == TermLiteral {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType, at,
				"%s constant must be an IRI, got literal %q", pos, v.Term.Value)
		}
	case Template:
		if _, err := ParseTemplate(v.Pattern); err != nil {
			res.AddError(diagnostic.KindSemantic, diagnostic.CodeInvalidTemplate, err.Error(), at)
		}
	case Reference:
		if v.Name == "" {
			res.AddError(diagnostic.KindSemantic, diagnostic.CodeMissingValue, "empty reference", at)
		}
	case FunctionMap:
		validateFunction(res, doc, mapID, path, v)
	case Join:
		if pos != PosObject {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeMisplacedJoin, at,
				"a join may only generate objects, not a %s", pos)
		}

		validateJoin(res, doc, at, v)
	}

	validateTermType(res, pos, tm, at)
}

func validateTermType(res *diagnostic.Diagnostics, pos Position, tm TermMap, at diagnostic.Location) {
	switch {
	case pos == PosPredicate && tm.TermType != TermIRI:
		res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType, at,
			"predicate term type must be iri, got %s", tm.TermType)
	case pos == PosGraph && tm.TermType != TermIRI:
		res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType, at,
			"graph term type must be iri, got %s", tm.TermType)
	case pos == PosSubject && tm.TermType == TermLiteral:
		res.AddError(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType, "subject cannot be a literal", at)
	}

	if tm.Datatype != "" && tm.Language != "" {
		res.AddError(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType,
			"datatype and language are mutually exclusive", at)
	}

	if (tm.Datatype != "" || tm.Language != "") && tm.TermType != TermLiteral {
		res.Errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidTermType, at,
			"datatype or language requires a literal term type, got %s", tm.TermType)
	}
}

func validateFunction(res *diagnostic.Diagnostics, doc *Document, mapID, path string, fn FunctionMap) {
	if fn.Function == "" {
		res.AddError(diagnostic.KindSemantic, diagnostic.CodeMissingFunction, "function map has no function IRI",
			location(mapID, path, Span{}))
	}

	for i, p := range fn.Parameters {
		ppath := fmt.Sprintf("%s.parameters[%d]", path, i)
		if p.Predicate == "" {
			res.AddError(diagnostic.KindSemantic, diagnostic.CodeMissingValue, "parameter has no predicate",
				location(mapID, ppath, p.Value.At))
		}

		validateTermMap(res, doc, mapID, ppath, PosParameter, p.Value)
	}
}

func validateJoin(res *diagnostic.Diagnostics, doc *Document, at diagnostic.Location, j Join) {
	if _, ok := doc.Lookup(j.Parent); !ok {
		res.AddError(diagnostic.KindSemantic, diagnostic.CodeDanglingJoinReference,
			fmt.Sprintf("join refers to unknown mapping %q", j.Parent), at,
			match.Suggest(j.Parent, doc.IDs(), 3)...)
	}

	if len(j.Conditions) == 0 {
		res.Errorf(diagnostic.KindSemantic, diagnostic.CodeMissingJoinCondition, at,
			"join with %q has no condition", j.Parent)
	}

	for i, c := range j.Conditions {
		if c.Child == "" || c.Parent == "" {
			res.Errorf(diagnostic.KindSemantic, diagnostic.CodeMissingJoinCondition, at,
				"join condition %d needs both child and parent", i)
		}
	}
}

func location(mapID, path string, s Span) diagnostic.Location {
	return diagnostic.Location{Mapping: mapID, Path: path, Line: s.Line, Column: s.Column}
}
