package yarrrml

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/common"
	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/match"
	"yarrrml-compiler/internal/prefix"
)

// formulations maps shorthand reference formulation names to IRIs.
var formulations = map[string]string{
	"csv":      prefix.QL + "CSV",
	"jsonpath": prefix.QL + "JSONPath",
	"xpath":    prefix.QL + "XPath",
}

var sourceKeys = map[string]string{
	"access":               "access",
	"referenceformulation": "referenceFormulation",
	"iterator":             "iterator",
	"table":                "table",
	"tablename":            "table",
	"query":                "query",
	"sqlversion":           "sqlVersion",
}

// parseNamedSources reads the top-level "sources" mapping.
func (p *Parser) parseNamedSources(n *yaml.Node) {
	if isNull(n) {
		return
	}

	if !isMapping(n) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, loc{path: "sources"},
			"sources must be a mapping of name to source, got a %s", kindName(n))

		return
	}

	for _, kv := range pairs(n) {
		name := kv.Key.Value
		l := loc{path: "sources." + name}

		var (
			ls mapping.LogicalSource
			ok bool
		)

		if isScalar(kv.Value) {
			ls, ok = p.accessShorthand(kv.Value, l)
		} else {
			ls, ok = p.sourceDef(kv.Value, l)
		}

		if !ok {
			continue
		}

		if _, dup := p.sources[name]; dup {
			p.errorf(diagnostic.KindSemantic, diagnostic.CodeDuplicateMapping, kv.Key, l,
				"source %q is declared more than once", name)

			continue
		}

		p.sources[name] = &namedSource{source: ls, at: spanOf(kv.Key)}
		p.sourceNames = append(p.sourceNames, name)
	}
}

// mappingSource reads the "sources" key of a mapping: a named source, an
// access shorthand, [access~formulation, iterator] or a full definition.
func (p *Parser) mappingSource(n *yaml.Node, l loc) mapping.LogicalSource {
	srcs := p.sourceItems(n)

	switch len(srcs) {
	case 0:
		return mapping.LogicalSource{}
	case 1:
	default:
		p.errorf(diagnostic.KindSemantic, diagnostic.CodeMultipleSources, n, l,
			"a mapping reads exactly one source, got %d; split it into one mapping per source", len(srcs))

		return mapping.LogicalSource{}
	}

	item := srcs[0]

	if isScalar(item) {
		if named, ok := p.sources[item.Value]; ok {
			named.used = true
			return named.source
		}

		if !strings.Contains(item.Value, "~") && len(p.sourceNames) > 0 {
			p.diags.AddError(diagnostic.KindSemantic, diagnostic.CodeUnknownSource,
				fmt.Sprintf("unknown source %q", item.Value), p.location(item, l),
				match.Suggest(item.Value, p.sourceNames, 2)...)

			return mapping.LogicalSource{}
		}

		ls, _ := p.accessShorthand(item, l)

		return ls
	}

	ls, _ := p.sourceDef(item, l)

	return ls
}

// sourceItems lists the sources of a mapping. A flat two-scalar sequence
// whose first element carries a formulation ("data.json~jsonpath") is one
// source, not two.
func (p *Parser) sourceItems(n *yaml.Node) []*yaml.Node {
	if isNull(n) {
		return nil
	}

	list := items(n)
	if isSequence(n) && len(list) == 2 && isScalar(list[0]) && isScalar(list[1]) {
		if _, named := p.sources[list[0].Value]; !named && strings.Contains(list[0].Value, "~") {
			return []*yaml.Node{n}
		}
	}

	return list
}

// sourceDef parses [access~formulation, iterator] or a full mapping.
func (p *Parser) sourceDef(n *yaml.Node, l loc) (mapping.LogicalSource, bool) {
	switch {
	case isSequence(n):
		elems := items(n)
		if len(elems) == 0 || len(elems) > 2 {
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l,
				"source shorthand is [access~formulation, iterator], got %d elements", len(elems))

			return mapping.LogicalSource{}, false
		}

		ls, ok := p.accessShorthand(elems[0], l)
		if ok && len(elems) == 2 {
			ls.Iterator, ok = p.scalar(elems[1], l.at("iterator"))
		}

		return ls, ok
	case isMapping(n):
		return p.sourceFull(n, l)
	default:
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l,
			"source must be a sequence or a mapping, got a %s", kindName(n))

		return mapping.LogicalSource{}, false
	}
}

// accessShorthand parses "access~formulation".
func (p *Parser) accessShorthand(n *yaml.Node, l loc) (mapping.LogicalSource, bool) {
	raw, ok := p.scalar(n, l)
	if !ok {
		return mapping.LogicalSource{}, false
	}

	access, form, found := common.CutLast(raw, "~")
	if !found || form == "" || strings.ContainsAny(form, "/.") {
		return mapping.LogicalSource{Access: raw}, true
	}

	iri, ok := p.formulation(form)
	if !ok {
		p.diags.AddError(diagnostic.KindParse, diagnostic.CodeInvalidValue,
			fmt.Sprintf("unknown reference formulation %q", form), p.location(n, l),
			match.Suggest(form, formulationNames(), 2)...)

		return mapping.LogicalSource{}, false
	}

	return mapping.LogicalSource{Access: access, ReferenceFormulation: iri}, true
}

// formulation resolves a shorthand name or a (prefixed) IRI.
func (p *Parser) formulation(name string) (string, bool) {
	if iri, ok := formulations[strings.ToLower(name)]; ok {
		return iri, true
	}

	if !strings.Contains(name, ":") {
		return "", false
	}

	iri, err := p.table.Resolve(name, p.base)

	return iri, err == nil
}

func formulationNames() []string {
	names := make([]string, 0, len(formulations))
	for k := range formulations {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

func (p *Parser) sourceFull(n *yaml.Node, l loc) (mapping.LogicalSource, bool) {
	before := len(p.diags.Errors)
	keys := p.keyed(n, sourceKeys, l)

	var ls mapping.LogicalSource

	str := func(key string) string {
		kv, ok := keys[key]
		if !ok {
			return ""
		}

		v, _ := p.scalar(kv.Value, l.at(key))

		return v
	}

	ls.Access = str("access")
	ls.Iterator = str("iterator")
	ls.Table = str("table")
	ls.Query = str("query")

	if form := str("referenceFormulation"); form != "" {
		iri, ok := p.formulation(form)
		if !ok {
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, keys["referenceFormulation"].Value, l,
				"unknown reference formulation %q", form)
		}

		ls.ReferenceFormulation = iri
	}

	if v := str("sqlVersion"); v != "" {
		if !strings.Contains(v, ":") {
			v = "rr:" + v
		}

		iri, err := p.table.Resolve(v, p.base)
		if err != nil {
			p.fail(keys["sqlVersion"].Value, l, err)
		}

		ls.SQLVersion = iri
	}

	return ls, len(p.diags.Errors) == before
}
