package yarrrml

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/utils"
)

var mappingKeys = map[string]string{
	"sources":          "sources",
	"source":           "sources",
	"s":                "subject",
	"subject":          "subject",
	"subjects":         "subject",
	"class":            "class",
	"classes":          "class",
	"g":                "graph",
	"graph":            "graph",
	"graphs":           "graph",
	"po":               "po",
	"predicateobjects": "po",
	"predicate":        "po",
}

// pomKeys are the keys of a full predicate-object entry.
var pomKeys = map[string]string{
	"p":          "p",
	"predicates": "p",
	"o":          "o",
	"objects":    "o",
	"g":          "graph",
	"graph":      "graph",
	"graphs":     "graph",
}

func (p *Parser) triplesMap(id string, key, body *yaml.Node, l loc) (*mapping.TriplesMap, bool) {
	tm := &mapping.TriplesMap{ID: id, At: spanOf(key)}

	if isNull(body) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeMissingSubject, key, l, "mapping %q is empty", id)
		return nil, false
	}

	if !isMapping(body) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, body, l,
			"mapping %q must be a mapping, got a %s", id, kindName(body))

		return nil, false
	}

	before := len(p.diags.Errors)
	keys := p.keyed(body, mappingKeys, l)

	if kv, ok := keys["sources"]; ok {
		tm.Source = p.mappingSource(kv.Value, l.at("sources"))
	}

	subj, ok := keys["subject"]
	if !ok {
		p.errorf(diagnostic.KindParse, diagnostic.CodeMissingSubject, key, l, "mapping %q has no subject", id)
	} else {
		tm.Subject.TermMap = p.subject(subj.Value, l.at("subject"))
	}

	if kv, ok := keys["class"]; ok {
		for i, c := range items(kv.Value) {
			if iri, ok := p.iri(c, l.at(fmt.Sprintf("class[%d]", i))); ok {
				tm.Subject.Classes = append(tm.Subject.Classes, iri)
			}
		}
	}

	if kv, ok := keys["graph"]; ok {
		tm.Subject.Graphs = p.graphs(kv.Value, l.at("graph"))
	}

	if kv, ok := keys["po"]; ok {
		tm.PredicateObjects = p.predicateObjects(kv.Value, l.at("po"))
	}

	return tm, len(p.diags.Errors) == before
}

func (p *Parser) subject(n *yaml.Node, l loc) mapping.TermMap {
	subjects := items(n)

	switch {
	case len(subjects) == 0 || isNull(n):
		p.errorf(diagnostic.KindParse, diagnostic.CodeMissingSubject, n, l, "subject is empty")
		return mapping.TermMap{}
	case len(subjects) > 1:
		p.errorf(diagnostic.KindSemantic, diagnostic.CodeMultipleSubjects, n, l,
			"a mapping has exactly one subject, got %d", len(subjects))

		return mapping.TermMap{}
	}

	tm, _ := p.termMap(subjects[0], termContext{pos: mapping.PosSubject}, l)

	return tm
}

func (p *Parser) graphs(n *yaml.Node, l loc) []mapping.TermMap {
	var out []mapping.TermMap

	for i, g := range items(n) {
		if tm, ok := p.termMap(g, termContext{pos: mapping.PosGraph}, l.at(fmt.Sprintf("[%d]", i))); ok {
			out = append(out, tm)
		}
	}

	return out
}

// predicateObjects accepts an inline {predicate: object} mapping or a sequence
// of [p, o], [p, o, datatype], {p, o, graph} and inline-pair entries.
func (p *Parser) predicateObjects(n *yaml.Node, l loc) []mapping.PredicateObjectMap {
	switch {
	case isNull(n):
		return nil
	case isMapping(n):
		return p.inlinePairs(n, l)
	case !isSequence(n):
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l,
			"predicate-objects must be a mapping or a sequence, got a %s", kindName(n))

		return nil
	}

	var out []mapping.PredicateObjectMap

	for i, entry := range items(n) {
		el := l.at(fmt.Sprintf("[%d]", i))

		switch {
		case isSequence(entry):
			if pom, ok := p.listEntry(entry, el); ok {
				out = append(out, pom)
			}
		case isMapping(entry) && hasAnyKey(entry, pomKeys):
			if pom, ok := p.fullEntry(entry, el); ok {
				out = append(out, pom)
			}
		case isMapping(entry):
			out = append(out, p.inlinePairs(entry, el)...)
		default:
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, entry, el,
				"predicate-object entry must be a sequence or a mapping, got a %s", kindName(entry))
		}
	}

	return out
}

func hasAnyKey(n *yaml.Node, keys map[string]string) bool {
	for _, kv := range pairs(n) {
		if _, ok := keys[strings.ToLower(kv.Key.Value)]; ok {
			return true
		}
	}

	return false
}

// inlinePairs turns each "predicate: object(s)" entry into its own map.
func (p *Parser) inlinePairs(n *yaml.Node, l loc) []mapping.PredicateObjectMap {
	var out []mapping.PredicateObjectMap

	for _, kv := range pairs(n) {
		pl := l.at(kv.Key.Value)

		preds, ok := p.predicates([]*yaml.Node{kv.Key}, pl)
		if !ok {
			continue
		}

		objs, ok := p.objects(items(kv.Value), preds, draftExtras{}, pl)
		if !ok {
			continue
		}

		out = append(out, mapping.PredicateObjectMap{At: spanOf(kv.Key), Predicates: preds, Objects: objs})
	}

	return out
}

// listEntry parses [p, o] and [p, o, datatype-or-lang~lang].
func (p *Parser) listEntry(n *yaml.Node, l loc) (mapping.PredicateObjectMap, bool) {
	elems := items(n)
	if !utils.IsInRange(2, len(elems), 3) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l,
			"predicate-object list needs 2 or 3 elements, got %d", len(elems))

		return mapping.PredicateObjectMap{}, false
	}

	predNode, objNode, extraNode := utils.Unpack3(elems)

	var extras draftExtras

	if extraNode != nil {
		raw, ok := p.scalar(extraNode, l.at("[2]"))
		if !ok {
			return mapping.PredicateObjectMap{}, false
		}

		extras = parseExtras(raw)
	}

	preds, ok := p.predicates(items(predNode), l.at("[0]"))
	if !ok {
		return mapping.PredicateObjectMap{}, false
	}

	objs, ok := p.objects(items(objNode), preds, extras, l.at("[1]"))
	if !ok {
		return mapping.PredicateObjectMap{}, false
	}

	return mapping.PredicateObjectMap{At: spanOf(n), Predicates: preds, Objects: objs}, true
}

// fullEntry parses {p: ..., o: ..., graph: ...}.
func (p *Parser) fullEntry(n *yaml.Node, l loc) (mapping.PredicateObjectMap, bool) {
	keys := p.keyed(n, pomKeys, l)

	pk, hasP := keys["p"]
	obj, hasO := keys["o"]

	if !hasP || !hasO {
		p.errorf(diagnostic.KindParse, diagnostic.CodeMissingValue, n, l,
			"predicate-object entry needs both predicates and objects")

		return mapping.PredicateObjectMap{}, false
	}

	preds, good := p.predicates(items(pk.Value), l.at("p"))
	if !good {
		return mapping.PredicateObjectMap{}, false
	}

	objs, good := p.objects(items(obj.Value), preds, draftExtras{}, l.at("o"))
	if !good {
		return mapping.PredicateObjectMap{}, false
	}

	pom := mapping.PredicateObjectMap{At: spanOf(n), Predicates: preds, Objects: objs}

	if g, has := keys["graph"]; has {
		pom.Graphs = p.graphs(g.Value, l.at("graph"))
	}

	return pom, true
}

func (p *Parser) predicates(nodes []*yaml.Node, l loc) ([]mapping.TermMap, bool) {
	out := make([]mapping.TermMap, 0, len(nodes))
	ok := true

	for _, n := range nodes {
		tm, good := p.termMap(n, termContext{pos: mapping.PosPredicate}, l)
		if !good {
			ok = false
			continue
		}

		out = append(out, tm)
	}

	return out, ok && len(out) > 0
}

// draftExtras are the datatype or language given by a list entry's third element.
type draftExtras struct {
	datatype string
	language string
}

func parseExtras(raw string) draftExtras {
	if lang, ok := strings.CutSuffix(raw, "~lang"); ok {
		return draftExtras{language: lang}
	}

	return draftExtras{datatype: raw}
}

func (p *Parser) objects(
	nodes []*yaml.Node, preds []mapping.TermMap, extras draftExtras, l loc,
) ([]mapping.TermMap, bool) {
	ctx := termContext{pos: mapping.PosObject, typeObject: typePredicate(preds)}
	out := make([]mapping.TermMap, 0, len(nodes))
	ok := true

	for _, n := range nodes {
		d, good := p.draftOf(n, ctx, l)
		if !good {
			ok = false
			continue
		}

		if extras != (draftExtras{}) {
			if d.datatype != "" || d.language != "" {
				p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidTermType, n, l,
					"datatype or language given twice")

				ok = false

				continue
			}

			d.datatype, d.language = extras.datatype, extras.language
		}

		tm, good := p.finish(d, ctx, n, l)
		if !good {
			ok = false
			continue
		}

		out = append(out, tm)
	}

	return out, ok && len(out) > 0
}

// typePredicate reports whether any predicate is the constant rdf:type.
func typePredicate(preds []mapping.TermMap) bool {
	for _, tm := range preds {
		if c, ok := tm.Value.(mapping.Constant); ok && c.Term.Value == rdfType {
			return true
		}
	}

	return false
}
