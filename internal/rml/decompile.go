package rml

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cayleygraph/quad"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
)

// DecompileOptions configures Decompile.
type DecompileOptions struct {
	// BaseIRI is the base triples map IRIs are relative to; "" infers it
	// from the namespace the anchors share.
	BaseIRI string
	// Prefixes becomes the document's prefix table; nil selects prefix.Default().
	Prefixes *prefix.Table
}

// mapLinks are the predicates pointing from a map to a term map node.
var mapLinks = []quad.IRI{rrSubjectMapProp, rrPredicateMapProp, rrObjectMapProp, rrGraphMapProp}

var valuePredicates = []quad.IRI{rrConstant, rrTemplate, rmlReference, rrColumn, fnmlFunctionValue, rrParentTriplesMap}

type decoder struct {
	g     *graph
	diags diagnostic.Diagnostics

	ids     map[string]string
	sources map[string]mapping.LogicalSource
	mapID   string
}

// Decompile groups an unordered RML or R2RML triple set into a document.
//
// Triples maps are the nodes with a logical source or logical table. They
// are ordered by the first triple mentioning them, and all of them are known
// before any join is resolved, so the order of the input never changes which
// join a reference resolves to. Duplicate triples are ignored. Every triple
// that is not part of a recognised map fails the decompilation.
func Decompile(triples []quad.Quad, opts DecompileOptions) (*mapping.Document, error) {
	g := newGraph(triples)
	d := &decoder{g: g, ids: map[string]string{}, sources: map[string]mapping.LogicalSource{}}

	functions := map[string]bool{}
	for _, q := range g.triples {
		if q.Predicate == fnmlFunctionValue {
			functions[key(q.Object)] = true
		}
	}

	var anchors []quad.Value

	for _, s := range g.subjects(rmlLogicalSourceProp, rrLogicalTableProp) {
		if !functions[key(s)] {
			anchors = append(anchors, s)
		}
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		return g.firstSeen(anchors[i]) < g.firstSeen(anchors[j])
	})

	base := opts.BaseIRI
	if base == "" {
		base = inferBase(anchors)
	}

	if base == "" {
		base = mapping.DefaultBaseIRI
	}

	ids := assignIDs(anchors, base)
	for i, a := range anchors {
		d.ids[key(a)] = ids[i]
	}

	prefixes := prefix.Default()
	if opts.Prefixes != nil {
		prefixes = opts.Prefixes.Clone()
	}

	doc := mapping.NewDocument(base, prefixes)

	for i, a := range anchors {
		if err := doc.Add(d.triplesMap(a, ids[i])); err != nil {
			return nil, err
		}
	}

	if !d.diags.HasErrors() {
		for _, q := range g.leftovers() {
			d.diags.Errorf(diagnostic.KindDecompile, diagnostic.CodeUnrecognizedTriple, diagnostic.Location{},
				"unrecognized triple %s", formatQuad(q))
		}
	}

	if d.diags.HasErrors() {
		return nil, d.diags.Err()
	}

	doc.Dialect = detectDialect(g)

	if res := mapping.Validate(doc); res.HasErrors() {
		return nil, res.Err()
	}

	doc.Freeze()

	return doc, nil
}

// detectDialect returns R2RML for documents built only from R2RML terms.
func detectDialect(g *graph) mapping.Dialect {
	if g.uses(rrLogicalTableProp) && !g.uses(rmlOnly...) {
		return mapping.DialectR2RML
	}

	return mapping.DialectRML
}

func formatQuad(q quad.Quad) string {
	parts := []string{key(q.Subject), key(q.Predicate), key(q.Object)}
	if q.Label != nil {
		parts = append(parts, key(q.Label))
	}

	return strings.Join(parts, " ") + " ."
}

func (d *decoder) errorf(kind diagnostic.Kind, code diagnostic.Code, path, format string, args ...any) {
	d.diags.Errorf(kind, code, diagnostic.Location{Mapping: d.mapID, Path: path}, format, args...)
}

func (d *decoder) malformed(path, format string, args ...any) {
	d.errorf(diagnostic.KindDecompile, diagnostic.CodeMalformedTermMap, path, format, args...)
}

func (d *decoder) triplesMap(node quad.Value, id string) *mapping.TriplesMap {
	d.mapID = id
	g := d.g
	tm := &mapping.TriplesMap{ID: id}

	g.takeTypes(node, rrTriplesMap)

	srcs := g.take(node, rmlLogicalSourceProp, rrLogicalTableProp)
	if len(srcs) > 1 {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeMultipleSourcesFound, "sources",
			"%s has %d logical sources", key(node), len(srcs))
	} else {
		tm.Source = d.logicalSource(srcs[0].object)
	}

	subjects := g.take(node, rrSubjectMapProp, rrSubject)

	switch len(subjects) {
	case 0:
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeMissingSubjectMap, "subject",
			"%s has no subject map", key(node))
	case 1:
		tm.Subject = d.subjectMap(subjects[0])
	default:
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeMultipleSubjectMaps, "subject",
			"%s has %d subject maps", key(node), len(subjects))
	}

	for i, e := range g.take(node, rrPredicateObjectMapProp) {
		if pom, ok := d.predicateObjectMap(e.object, fmt.Sprintf("po[%d]", i)); ok {
			tm.PredicateObjects = append(tm.PredicateObjects, pom)
		}
	}

	return tm
}

// logicalSource decodes a logical source or logical table. Sources may be
// shared between triples maps.
func (d *decoder) logicalSource(node quad.Value) mapping.LogicalSource {
	if ls, ok := d.sources[key(node)]; ok {
		return ls
	}

	var ls mapping.LogicalSource

	if !isNode(node) {
		d.malformed("sources", "logical source must be a node, got %s", key(node))
		return ls
	}

	d.g.takeTypes(node, rmlLogicalSource, rrLogicalTable, rrR2RMLView)

	ls.Access = d.literalProp(node, "sources.access", rmlSource)
	ls.ReferenceFormulation = d.iriProp(node, "sources.referenceFormulation", rmlReferenceFormulation)
	ls.Iterator = d.literalProp(node, "sources.iterator", rmlIterator)
	ls.Table = d.literalProp(node, "sources.table", rrTableName)
	ls.Query = d.literalProp(node, "sources.query", rmlQuery, rrSQLQuery)
	ls.SQLVersion = d.iriProp(node, "sources.sqlVersion", rrSQLVersion)

	d.sources[key(node)] = ls

	return ls
}

// literalProp consumes the single literal value of preds on node. Values of
// the wrong kind are left unconsumed and surface as unrecognized triples.
func (d *decoder) literalProp(node quad.Value, path string, preds ...quad.IRI) string {
	es := d.g.edges(node, preds...)

	switch len(es) {
	case 0:
		return ""
	case 1:
	default:
		d.malformed(path, "%s has %d values for %s", key(node), len(es), key(es[0].predicate))
		return ""
	}

	s, ok := literal(es[0].object)
	if ok {
		d.g.consume(es[0])
	}

	return s
}

func (d *decoder) iriProp(node quad.Value, path string, preds ...quad.IRI) string {
	es := d.g.edges(node, preds...)

	switch len(es) {
	case 0:
		return ""
	case 1:
	default:
		d.malformed(path, "%s has %d values for %s", key(node), len(es), key(es[0].predicate))
		return ""
	}

	s, ok := iri(es[0].object)
	if ok {
		d.g.consume(es[0])
	}

	return s
}

// subjectMap follows the subject map link exactly one hop.
func (d *decoder) subjectMap(e edge) mapping.SubjectMap {
	if e.predicate == rrSubject {
		tm, _ := d.constant(e.object, "subject")
		return mapping.SubjectMap{TermMap: tm}
	}

	if refs := d.g.referrers(e.object, rrSubjectMapProp); len(refs) > 1 {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeSharedSubjectMap, "subject",
			"subject map %s is shared by %d triples maps", key(e.object), len(refs))

		return mapping.SubjectMap{}
	}

	tm, ok := d.termMap(e.object, mapping.PosSubject, "subject")
	if !ok {
		return mapping.SubjectMap{}
	}

	sm := mapping.SubjectMap{TermMap: tm}

	for _, c := range d.g.edges(e.object, rrClass) {
		if class, ok := iri(c.object); ok {
			d.g.consume(c)
			sm.Classes = append(sm.Classes, class)
		}
	}

	sm.Graphs = d.linked(e.object, mapping.PosGraph, "graph", rrGraphMapProp, rrGraph)

	return sm
}

func (d *decoder) predicateObjectMap(node quad.Value, path string) (mapping.PredicateObjectMap, bool) {
	var pom mapping.PredicateObjectMap

	if !isNode(node) {
		d.malformed(path, "predicate-object map must be a node, got %s", key(node))
		return pom, false
	}

	if refs := d.g.referrers(node, rrPredicateObjectMapProp); len(refs) > 1 {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeSharedNode, path,
			"predicate-object map %s is shared by %d maps", key(node), len(refs))

		return pom, false
	}

	d.g.takeTypes(node, rrPredicateObjectMap)

	pom.Predicates = d.linked(node, mapping.PosPredicate, path+".p", rrPredicateMapProp, rrPredicate)
	pom.Objects = d.linked(node, mapping.PosObject, path+".o", rrObjectMapProp, rrObject)
	pom.Graphs = d.linked(node, mapping.PosGraph, path+".graph", rrGraphMapProp, rrGraph)

	return pom, true
}

// linked decodes the term maps node points to through mapProp, and the
// constant shortcuts given with shortcut, in input order.
func (d *decoder) linked(node quad.Value, pos mapping.Position, path string, mapProp, shortcut quad.IRI) []mapping.TermMap {
	var out []mapping.TermMap

	for i, e := range d.g.take(node, mapProp, shortcut) {
		p := fmt.Sprintf("%s[%d]", path, i)

		var (
			tm mapping.TermMap
			ok bool
		)

		if e.predicate == shortcut {
			tm, ok = d.constant(e.object, p)
		} else {
			tm, ok = d.termMap(e.object, pos, p)
		}

		if ok {
			out = append(out, tm)
		}
	}

	return out
}

func (d *decoder) constant(v quad.Value, path string) (mapping.TermMap, bool) {
	term, err := fromValue(v)
	if err != nil {
		d.malformed(path, "%v", err)
		return mapping.TermMap{}, false
	}

	return mapping.TermMap{Value: mapping.Constant{Term: term}, TermType: term.Kind}, true
}

func (d *decoder) termMap(node quad.Value, pos mapping.Position, path string) (mapping.TermMap, bool) {
	g := d.g

	var tm mapping.TermMap

	if !isNode(node) {
		d.malformed(path, "term map must be a node, got %s", key(node))
		return tm, false
	}

	if refs := g.referrers(node, mapLinks...); len(refs) > 1 {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeSharedNode, path,
			"term map %s is shared by %d maps", key(node), len(refs))

		return tm, false
	}

	g.takeTypes(node, mapClasses...)

	values := g.edges(node, valuePredicates...)
	if len(values) != 1 {
		names := make([]string, len(values))
		for i, v := range values {
			names[i] = key(v.predicate)
		}

		d.errorf(diagnostic.KindDecompile, diagnostic.CodeAmbiguousValueClass, path,
			"term map %s needs exactly one value class, got %d [%s]", key(node), len(values), strings.Join(names, ", "))

		return tm, false
	}

	v := values[0]
	g.consume(v)

	switch v.predicate {
	case rrConstant:
		c, ok := d.constant(v.object, path)
		if !ok {
			return tm, false
		}

		tm.Value = c.Value
	case rrTemplate:
		s, ok := literal(v.object)
		if !ok {
			d.malformed(path, "rr:template must be a string, got %s", key(v.object))
			return tm, false
		}

		tm.Value = mapping.Template{Pattern: s}
	case rmlReference, rrColumn:
		s, ok := literal(v.object)
		if !ok {
			d.malformed(path, "%s must be a string, got %s", key(v.predicate), key(v.object))
			return tm, false
		}

		tm.Value = mapping.Reference{Name: s}
	case fnmlFunctionValue:
		fn, ok := d.function(v.object, path)
		if !ok {
			return tm, false
		}

		tm.Value = fn
	case rrParentTriplesMap:
		j, ok := d.join(node, v.object, path)
		if !ok {
			return tm, false
		}

		tm.Value = j
	}

	return d.termAttributes(node, pos, path, tm)
}

// termAttributes applies rr:termType, rr:datatype and rr:language. Absent
// term types take the same default the emitter leaves out.
func (d *decoder) termAttributes(node quad.Value, pos mapping.Position, path string, tm mapping.TermMap) (mapping.TermMap, bool) {
	var explicit *mapping.TermType

	if es := d.g.edges(node, rrTermType); len(es) > 0 {
		tt, known := termTypeOf(es[0].object)
		if len(es) > 1 || !known {
			d.errorf(diagnostic.KindDecompile, diagnostic.CodeInvalidTermType, path,
				"term map %s has an invalid rr:termType", key(node))

			return tm, false
		}

		d.g.consume(es[0])
		explicit = &tt
	}

	datatype := d.iriProp(node, path, rrDatatype)
	language := d.literalProp(node, path, rrLanguage)

	c, isConst := tm.Value.(mapping.Constant)
	if !isConst {
		tm.Datatype, tm.Language = datatype, language

		tm.TermType = mapping.DefaultTermType(pos, tm)
		if explicit != nil {
			tm.TermType = *explicit
		}

		return tm, true
	}

	if datatype != "" || language != "" {
		if c.Term.Kind != mapping.TermLiteral || c.Term.Datatype != "" || c.Term.Language != "" {
			d.malformed(path, "datatype or language on constant %s", toValue(c.Term))
			return tm, false
		}

		c.Term.Datatype, c.Term.Language = datatype, language
		tm.Value = c
	}

	if explicit != nil && *explicit != c.Term.Kind {
		d.malformed(path, "rr:termType %s contradicts constant %s", termTypeIRI(*explicit), toValue(c.Term))
		return tm, false
	}

	tm.TermType = c.Term.Kind

	return tm, true
}

// join resolves rr:parentTriplesMap against the anchors found up front.
func (d *decoder) join(node, parent quad.Value, path string) (mapping.Join, bool) {
	id, ok := d.ids[key(parent)]
	if !ok {
		d.errorf(diagnostic.KindSemantic, diagnostic.CodeDanglingJoinReference, path,
			"rr:parentTriplesMap %s is not a triples map", key(parent))

		return mapping.Join{}, false
	}

	j := mapping.Join{Parent: id}
	good := true

	for i, e := range d.g.take(node, rrJoinCondition) {
		jc, ok := d.joinCondition(e.object, fmt.Sprintf("%s.condition[%d]", path, i))
		if !ok {
			good = false
			continue
		}

		j.Conditions = append(j.Conditions, jc)
	}

	if good && len(j.Conditions) == 0 {
		d.errorf(diagnostic.KindSemantic, diagnostic.CodeMissingJoinCondition, path,
			"join with %s has no rr:joinCondition", key(parent))

		return j, false
	}

	return j, good
}

func (d *decoder) joinCondition(node quad.Value, path string) (mapping.JoinCondition, bool) {
	if !isNode(node) {
		d.malformed(path, "join condition must be a node, got %s", key(node))
		return mapping.JoinCondition{}, false
	}

	if refs := d.g.referrers(node, rrJoinCondition); len(refs) > 1 {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeSharedNode, path,
			"join condition %s is shared by %d maps", key(node), len(refs))

		return mapping.JoinCondition{}, false
	}

	d.g.takeTypes(node, rrJoin)

	jc := mapping.JoinCondition{
		Child:  d.literalProp(node, path+".child", rrChild),
		Parent: d.literalProp(node, path+".parent", rrParent),
	}

	if jc.Child == "" || jc.Parent == "" {
		d.errorf(diagnostic.KindSemantic, diagnostic.CodeMissingJoinCondition, path,
			"join condition %s needs rr:child and rr:parent", key(node))

		return jc, false
	}

	return jc, true
}

// function decodes a function value: predicate-object maps binding
// fno:executes and the parameters.
func (d *decoder) function(node quad.Value, path string) (mapping.FunctionMap, bool) {
	var fn mapping.FunctionMap

	if !isNode(node) {
		d.malformed(path, "function value must be a node, got %s", key(node))
		return fn, false
	}

	if refs := d.g.referrers(node, fnmlFunctionValue); len(refs) > 1 {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeSharedNode, path,
			"function value %s is shared by %d maps", key(node), len(refs))

		return fn, false
	}

	d.g.takeTypes(node, rrTriplesMap)

	for _, e := range d.g.take(node, rmlLogicalSourceProp) {
		d.logicalSource(e.object)
	}

	good := true

	for i, e := range d.g.take(node, rrPredicateObjectMapProp) {
		p := fmt.Sprintf("%s.function[%d]", path, i)

		pom, ok := d.predicateObjectMap(e.object, p)
		if !ok {
			good = false
			continue
		}

		if len(pom.Predicates) != 1 || len(pom.Objects) != 1 || len(pom.Graphs) > 0 {
			d.malformed(p, "function entries need one predicate and one object")

			good = false

			continue
		}

		pred, isConst := pom.Predicates[0].Value.(mapping.Constant)
		if !isConst || pred.Term.Kind != mapping.TermIRI {
			d.malformed(p, "function entry predicates must be constant IRIs")

			good = false

			continue
		}

		if pred.Term.Value != string(fnoExecutes) {
			fn.Parameters = append(fn.Parameters, mapping.Parameter{Predicate: pred.Term.Value, Value: pom.Objects[0]})
			continue
		}

		exec, isConst := pom.Objects[0].Value.(mapping.Constant)
		if !isConst || exec.Term.Kind != mapping.TermIRI || fn.Function != "" {
			d.malformed(p, "fno:executes needs exactly one constant function IRI")

			good = false

			continue
		}

		fn.Function = exec.Term.Value
	}

	if good && fn.Function == "" {
		d.errorf(diagnostic.KindDecompile, diagnostic.CodeMissingFunction, path,
			"function value %s has no fno:executes", key(node))

		return fn, false
	}

	return fn, good
}
