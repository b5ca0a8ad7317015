package yarrrml

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
)

// ExportOptions configures Marshal.
type ExportOptions struct {
	// Fallback contracts IRIs the document's own prefixes do not cover.
	// Labels taken from it are declared in the output.
	Fallback *prefix.Table
	// PreserveDialect writes "dialect: r2rml" for R2RML documents.
	PreserveDialect bool
}

// exporter renders a document as shorthand. Every shorthand form it picks is
// parsed back with check and kept only if it reproduces the same term maps.
type exporter struct {
	doc   *mapping.Document
	opts  ExportOptions
	check *Parser

	declared []string
}

// Marshal renders doc as YARRRML text.
func Marshal(doc *mapping.Document, opts ExportOptions) ([]byte, error) {
	root, err := Export(doc, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode YARRRML: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YARRRML: %w", err)
	}

	return buf.Bytes(), nil
}

// Export builds the shorthand node tree for doc.
func Export(doc *mapping.Document, opts ExportOptions) (*yaml.Node, error) {
	e := &exporter{doc: doc, opts: opts}

	table := prefix.Default()

	for _, label := range doc.Prefixes.Labels() {
		ns, _ := doc.Prefixes.Lookup(label)
		if prefix.IsDefault(label, ns) {
			continue
		}

		table.Set(label, ns)
		e.declared = append(e.declared, label)
	}

	e.check = &Parser{table: table, base: doc.BaseIRI, sources: map[string]*namedSource{}}

	maps := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, tm := range doc.TriplesMaps {
		body, err := e.triplesMap(tm)
		if err != nil {
			return nil, err
		}

		maps.Content = append(maps.Content, scalarNode(tm.ID), body)
	}

	if len(maps.Content) == 0 {
		maps.Style = yaml.FlowStyle
	}

	root := mappingNode()

	if len(e.declared) > 0 {
		prefixes := mappingNode()
		for _, label := range e.declared {
			ns, _ := table.Lookup(label)
			prefixes.Content = append(prefixes.Content, scalarNode(label), scalarNode(ns))
		}

		root.Content = append(root.Content, scalarNode("prefixes"), prefixes)
	}

	if doc.BaseIRI != mapping.DefaultBaseIRI {
		root.Content = append(root.Content, scalarNode("base"), scalarNode(doc.BaseIRI))
	}

	if opts.PreserveDialect && doc.Dialect == mapping.DialectR2RML {
		root.Content = append(root.Content, scalarNode("dialect"), scalarNode(doc.Dialect.String()))
	}

	root.Content = append(root.Content, scalarNode("mappings"), maps)

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}, nil
}

func (e *exporter) triplesMap(tm *mapping.TriplesMap) (*yaml.Node, error) {
	body := mappingNode()
	add := func(key string, value *yaml.Node) {
		body.Content = append(body.Content, scalarNode(key), value)
	}

	if !tm.Source.IsZero() {
		add("sources", e.source(tm.Source))
	}

	subject, err := e.term(tm.Subject.TermMap, termContext{pos: mapping.PosSubject})
	if err != nil {
		return nil, e.wrap(tm.ID, "subject", err)
	}

	add("subject", subject)

	if len(tm.Subject.Classes) > 0 {
		classes := make([]*yaml.Node, len(tm.Subject.Classes))
		for i, c := range tm.Subject.Classes {
			classes[i] = scalarNode(e.iriText(c))
		}

		add("class", single(classes, flowSeq))
	}

	if len(tm.Subject.Graphs) > 0 {
		graphs, err := e.terms(tm.Subject.Graphs, termContext{pos: mapping.PosGraph})
		if err != nil {
			return nil, e.wrap(tm.ID, "graph", err)
		}

		add("graph", single(graphs, blockSeq))
	}

	if len(tm.PredicateObjects) > 0 {
		po, err := e.predicateObjects(tm.PredicateObjects)
		if err != nil {
			return nil, e.wrap(tm.ID, "predicate", err)
		}

		add("predicate", po)
	}

	return body, nil
}

func (e *exporter) wrap(mapID, path string, err error) error {
	return diagnostic.NewError(diagnostic.KindSemantic, diagnostic.CodeInvalidValue, err.Error(),
		diagnostic.Location{Mapping: mapID, Path: path})
}

// single returns the only node itself, or a sequence of all nodes.
func single(nodes []*yaml.Node, seq func(...*yaml.Node) *yaml.Node) *yaml.Node {
	if len(nodes) == 1 {
		return nodes[0]
	}

	return seq(nodes...)
}

func (e *exporter) source(ls mapping.LogicalSource) *yaml.Node {
	if form, ok := formulationName(ls.ReferenceFormulation); ok &&
		ls.Access != "" && !strings.Contains(ls.Access, "~") &&
		ls.Table == "" && ls.Query == "" && ls.SQLVersion == "" {
		head := scalarNode(ls.Access + "~" + form)
		if ls.Iterator == "" {
			return head
		}

		return flowSeq(head, scalarNode(ls.Iterator))
	}

	if ls == (mapping.LogicalSource{Access: ls.Access}) && !strings.Contains(ls.Access, "~") {
		return scalarNode(ls.Access)
	}

	n := mappingNode()
	add := func(key, value string) {
		if value != "" {
			n.Content = append(n.Content, scalarNode(key), scalarNode(value))
		}
	}

	add("access", ls.Access)

	if ls.ReferenceFormulation != "" {
		if form, ok := formulationName(ls.ReferenceFormulation); ok {
			add("referenceFormulation", form)
		} else {
			add("referenceFormulation", e.iriText(ls.ReferenceFormulation))
		}
	}

	add("iterator", ls.Iterator)
	add("table", ls.Table)
	add("query", ls.Query)

	if ls.SQLVersion != "" {
		add("sqlVersion", e.iriText(ls.SQLVersion))
	}

	return n
}

func formulationName(iri string) (string, bool) {
	for _, name := range formulationNames() {
		if formulations[name] == iri {
			return name, true
		}
	}

	return "", false
}

// predicateObjects prefers the inline {predicate: object} mapping, then a
// list of compact entries.
func (e *exporter) predicateObjects(poms []mapping.PredicateObjectMap) (*yaml.Node, error) {
	if inline, ok := e.inlineForm(poms); ok {
		return inline, nil
	}

	list := blockSeq()

	for i, pom := range poms {
		entry, err := e.entry(pom)
		if err != nil {
			return nil, fmt.Errorf("po[%d]: %w", i, err)
		}

		list.Content = append(list.Content, entry)
	}

	return list, nil
}

func (e *exporter) inlineForm(poms []mapping.PredicateObjectMap) (*yaml.Node, bool) {
	n := mappingNode()
	seen := map[string]bool{}

	for _, pom := range poms {
		if len(pom.Predicates) != 1 || len(pom.Graphs) > 0 {
			return nil, false
		}

		key, err := e.term(pom.Predicates[0], termContext{pos: mapping.PosPredicate})
		if err != nil || key.Kind != yaml.ScalarNode || seen[key.Value] {
			return nil, false
		}

		seen[key.Value] = true

		objs, err := e.terms(pom.Objects, termContext{pos: mapping.PosObject, typeObject: typePredicate(pom.Predicates)})
		if err != nil {
			return nil, false
		}

		n.Content = append(n.Content, key, single(objs, flowSeqIfScalars))
	}

	return n, e.verifyPOMs(n, poms)
}

// flowSeqIfScalars keeps scalar lists on one line.
func flowSeqIfScalars(nodes ...*yaml.Node) *yaml.Node {
	for _, n := range nodes {
		if n.Kind != yaml.ScalarNode {
			return blockSeq(nodes...)
		}
	}

	return flowSeq(nodes...)
}

// entry renders one predicate-object map as [p, o], [p, o, extra] or {p, o, graph}.
func (e *exporter) entry(pom mapping.PredicateObjectMap) (*yaml.Node, error) {
	if compact, ok := e.compactEntry(pom); ok {
		return compact, nil
	}

	preds, err := e.terms(pom.Predicates, termContext{pos: mapping.PosPredicate})
	if err != nil {
		return nil, err
	}

	objs, err := e.terms(pom.Objects, termContext{pos: mapping.PosObject, typeObject: typePredicate(pom.Predicates)})
	if err != nil {
		return nil, err
	}

	n := mappingNode(scalarNode("p"), single(preds, flowSeqIfScalars), scalarNode("o"), single(objs, flowSeqIfScalars))

	if len(pom.Graphs) > 0 {
		graphs, err := e.terms(pom.Graphs, termContext{pos: mapping.PosGraph})
		if err != nil {
			return nil, err
		}

		n.Content = append(n.Content, scalarNode("graph"), single(graphs, flowSeqIfScalars))
	}

	if !e.verifyPOMs(blockSeq(n), []mapping.PredicateObjectMap{pom}) {
		return nil, fmt.Errorf("predicate-object map cannot be written as shorthand")
	}

	return n, nil
}

func (e *exporter) compactEntry(pom mapping.PredicateObjectMap) (*yaml.Node, bool) {
	if len(pom.Predicates) != 1 || len(pom.Objects) != 1 || len(pom.Graphs) > 0 {
		return nil, false
	}

	pred, err := e.term(pom.Predicates[0], termContext{pos: mapping.PosPredicate})
	if err != nil || pred.Kind != yaml.ScalarNode {
		return nil, false
	}

	obj := pom.Objects[0]
	ctx := termContext{pos: mapping.PosObject, typeObject: typePredicate(pom.Predicates)}

	var extra string

	switch v := obj.Value.(type) {
	case mapping.Constant:
		if v.Term.Kind == mapping.TermLiteral && (v.Term.Datatype != "" || v.Term.Language != "") {
			extra = e.extraText(v.Term.Datatype, v.Term.Language)
			v.Term.Datatype, v.Term.Language = "", ""
			obj.Value = v
		}
	default:
		if obj.Datatype != "" || obj.Language != "" {
			extra = e.extraText(obj.Datatype, obj.Language)
			obj.Datatype, obj.Language = "", ""
		}
	}

	for _, cand := range e.scalarCandidates(obj, ctx) {
		elems := []*yaml.Node{pred, scalarNode(cand)}
		if extra != "" {
			elems = append(elems, scalarNode(extra))
		}

		entry := flowSeq(elems...)
		if e.verifyPOMs(blockSeq(entry), []mapping.PredicateObjectMap{pom}) {
			return entry, true
		}
	}

	if _, isFn := pom.Objects[0].Value.(mapping.FunctionMap); isFn {
		return nil, false
	}

	objNode, err := e.term(pom.Objects[0], ctx)
	if err != nil {
		return nil, false
	}

	entry := flowSeq(pred, objNode)

	return entry, e.verifyPOMs(blockSeq(entry), []mapping.PredicateObjectMap{pom})
}

func (e *exporter) extraText(datatype, language string) string {
	if language != "" {
		return language + "~lang"
	}

	return e.iriText(datatype)
}

// verifyPOMs parses n as a predicate-objects value and compares the result.
func (e *exporter) verifyPOMs(n *yaml.Node, want []mapping.PredicateObjectMap) bool {
	e.check.diags = diagnostic.Diagnostics{}

	got := e.check.predicateObjects(n, loc{})
	if e.check.diags.HasErrors() {
		return false
	}

	return slices.EqualFunc(got, want, pomEqual)
}

func pomEqual(a, b mapping.PredicateObjectMap) bool {
	eq := func(x, y mapping.TermMap) bool { return x.Equal(y) }

	return slices.EqualFunc(a.Predicates, b.Predicates, eq) &&
		slices.EqualFunc(a.Objects, b.Objects, eq) &&
		slices.EqualFunc(a.Graphs, b.Graphs, eq)
}

func (e *exporter) terms(tms []mapping.TermMap, ctx termContext) ([]*yaml.Node, error) {
	out := make([]*yaml.Node, 0, len(tms))

	for _, tm := range tms {
		n, err := e.term(tm, ctx)
		if err != nil {
			return nil, err
		}

		out = append(out, n)
	}

	return out, nil
}

// term renders tm as the shortest node that parses back to it.
func (e *exporter) term(tm mapping.TermMap, ctx termContext) (*yaml.Node, error) {
	for _, cand := range e.scalarCandidates(tm, ctx) {
		n := scalarNode(cand)
		if e.verifyTerm(n, tm, ctx) {
			return n, nil
		}
	}

	n, err := e.explicit(tm, ctx)
	if err != nil {
		return nil, err
	}

	if !e.verifyTerm(n, tm, ctx) {
		return nil, fmt.Errorf("%s term map %s cannot be written as shorthand", ctx.pos, describe(tm))
	}

	return n, nil
}

func (e *exporter) verifyTerm(n *yaml.Node, want mapping.TermMap, ctx termContext) bool {
	e.check.diags = diagnostic.Diagnostics{}

	got, ok := e.check.termMap(n, ctx, loc{})

	return ok && !e.check.diags.HasErrors() && got.Equal(want)
}

// scalarCandidates lists scalar spellings of tm, most idiomatic first.
func (e *exporter) scalarCandidates(tm mapping.TermMap, ctx termContext) []string {
	if tm.Datatype != "" || tm.Language != "" {
		return nil
	}

	suffix := ""
	if _, isConst := tm.Value.(mapping.Constant); !isConst && tm.TermType != shorthandTermType(ctx, tm) {
		suffix = "~" + tm.TermType.String()
	}

	switch v := tm.Value.(type) {
	case mapping.Constant:
		return e.constantCandidates(v.Term, ctx)
	case mapping.Reference:
		return []string{"$" + v.Name + suffix, "$(" + v.Name + ")" + suffix}
	case mapping.Template:
		var out []string
		if tm.TermType == mapping.TermIRI {
			if c, ok := e.templateText(v.Pattern); ok {
				out = append(out, c+suffix)
			}
		}

		return append(out, v.Pattern+suffix)
	default:
		return nil
	}
}

func (e *exporter) constantCandidates(t mapping.Term, ctx termContext) []string {
	iriByDefault := ctx.typeObject || (ctx.pos != mapping.PosObject && ctx.pos != mapping.PosParameter)

	switch t.Kind {
	case mapping.TermIRI:
		if ctx.pos == mapping.PosPredicate && t.Value == rdfType {
			return []string{"a"}
		}

		text := e.iriText(t.Value)
		if iriByDefault {
			return []string{text}
		}

		return []string{text + "~iri"}
	case mapping.TermBlankNode:
		return []string{t.Value + "~blanknode"}
	default:
		if t.Datatype != "" || t.Language != "" || iriByDefault {
			return nil
		}

		if strings.HasPrefix(t.Value, "$") {
			return []string{`\` + t.Value}
		}

		return []string{t.Value}
	}
}

// explicit renders the {constant|reference|template|function|mapping: ...} form.
func (e *exporter) explicit(tm mapping.TermMap, ctx termContext) (*yaml.Node, error) {
	n := mappingNode()
	add := func(key string, value *yaml.Node) {
		n.Content = append(n.Content, scalarNode(key), value)
	}

	typeDefault := shorthandTermType(ctx, tm)

	switch v := tm.Value.(type) {
	case mapping.Constant:
		value := v.Term.Value
		if v.Term.Kind == mapping.TermIRI {
			value = e.iriText(value)
		}

		add("constant", scalarNode(value))

		typeDefault = mapping.TermLiteral
		if ctx.typeObject || (ctx.pos != mapping.PosObject && ctx.pos != mapping.PosParameter) {
			typeDefault = mapping.TermIRI
		}

		if v.Term.Datatype != "" || v.Term.Language != "" {
			typeDefault = mapping.TermLiteral
		}

		if v.Term.Datatype != "" {
			add("datatype", scalarNode(e.iriText(v.Term.Datatype)))
		}

		if v.Term.Language != "" {
			add("language", scalarNode(v.Term.Language))
		}
	case mapping.Reference:
		add("reference", scalarNode(v.Name))
	case mapping.Template:
		add("template", scalarNode(v.Pattern))
	case mapping.FunctionMap:
		fn, err := e.function(v)
		if err != nil {
			return nil, err
		}

		n.Content = append(n.Content, fn.Content...)
	case mapping.Join:
		add("mapping", scalarNode(v.Parent))

		conds := make([]*yaml.Node, len(v.Conditions))
		for i, c := range v.Conditions {
			conds[i] = mappingNode(scalarNode("child"), scalarNode(c.Child), scalarNode("parent"), scalarNode(c.Parent))
			conds[i].Style = yaml.FlowStyle
		}

		add("condition", single(conds, blockSeq))
	default:
		return nil, fmt.Errorf("term map has no value")
	}

	if tm.TermType != typeDefault {
		add("type", scalarNode(tm.TermType.String()))
	}

	if tm.Datatype != "" {
		add("datatype", scalarNode(e.iriText(tm.Datatype)))
	}

	if tm.Language != "" {
		add("language", scalarNode(tm.Language))
	}

	return n, nil
}

func (e *exporter) function(fn mapping.FunctionMap) (*yaml.Node, error) {
	params := mappingNode()
	seen := map[string]bool{}
	unique := true

	var entries [][2]*yaml.Node

	for _, p := range fn.Parameters {
		key := e.iriText(p.Predicate)
		if seen[key] {
			unique = false
		}

		seen[key] = true

		val, err := e.term(p.Value, termContext{pos: mapping.PosParameter})
		if err != nil {
			return nil, err
		}

		entries = append(entries, [2]*yaml.Node{scalarNode(key), val})
	}

	var paramNode *yaml.Node

	if unique {
		for _, kv := range entries {
			params.Content = append(params.Content, kv[0], kv[1])
		}

		paramNode = params
	} else {
		paramNode = blockSeq()
		for _, kv := range entries {
			paramNode.Content = append(paramNode.Content, flowSeqIfScalars(kv[0], kv[1]))
		}
	}

	n := mappingNode(scalarNode("function"), scalarNode(e.iriText(fn.Function)))
	if len(fn.Parameters) > 0 {
		n.Content = append(n.Content, scalarNode("parameters"), paramNode)
	}

	return n, nil
}

// iriText contracts iri with the document prefixes, then the fallback
// table, declaring fallback labels as they are used.
func (e *exporter) iriText(iri string) string {
	if c, _, ok := e.doc.Prefixes.Contract(iri); ok {
		return c
	}

	if c, label, ok := e.opts.Fallback.Contract(iri); ok {
		ns, _ := e.opts.Fallback.Lookup(label)
		if bound, exists := e.check.table.Lookup(label); !exists || bound == ns {
			if !exists {
				e.check.table.Set(label, ns)
				e.declared = append(e.declared, label)
			}

			return c
		}
	}

	if r, err := e.check.table.Resolve(iri, e.doc.BaseIRI); err == nil && r == iri {
		return iri
	}

	return "<" + iri + ">"
}

// templateText abbreviates the head of an IRI template like iriText does.
func (e *exporter) templateText(pattern string) (string, bool) {
	if c, _, ok := e.doc.Prefixes.ContractTemplate(pattern); ok {
		return c, true
	}

	c, label, ok := e.opts.Fallback.ContractTemplate(pattern)
	if !ok {
		return "", false
	}

	ns, _ := e.opts.Fallback.Lookup(label)

	bound, exists := e.check.table.Lookup(label)
	if exists && bound != ns {
		return "", false
	}

	if !exists {
		e.check.table.Set(label, ns)
		e.declared = append(e.declared, label)
	}

	return c, true
}

func describe(tm mapping.TermMap) string {
	if tm.Value == nil {
		return "(empty)"
	}

	return tm.Value.Class().String()
}
