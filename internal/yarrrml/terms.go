package yarrrml

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
	"yarrrml-compiler/utils"
)

var errInvalidTermType = errors.New("invalid term type")

const rdfType = prefix.RDF + "type"

// termContext says how unmarked constants and defaults are interpreted.
type termContext struct {
	pos mapping.Position
	// typeObject is set for objects of rdf:type, whose constants are IRIs.
	typeObject bool
}

// draft is a term map before term type defaults and IRI resolution.
type draft struct {
	value    mapping.Value
	explicit *mapping.TermType
	datatype string
	language string
	at       mapping.Span
}

var termMapKeys = map[string]string{
	"value":      "value",
	"constant":   "constant",
	"reference":  "reference",
	"template":   "template",
	"function":   "function",
	"fn":         "function",
	"parameters": "parameters",
	"params":     "parameters",
	"pms":        "parameters",
	"mapping":    "mapping",
	"condition":  "condition",
	"conditions": "condition",
	"type":       "type",
	"termtype":   "type",
	"datatype":   "datatype",
	"language":   "language",
	"lang":       "language",
}

var valueKeys = []string{"value", "constant", "reference", "template", "function", "mapping"}

// termMap parses a scalar or explicit term map node and finalizes it.
func (p *Parser) termMap(n *yaml.Node, ctx termContext, l loc) (mapping.TermMap, bool) {
	d, ok := p.draftOf(n, ctx, l)
	if !ok {
		return mapping.TermMap{}, false
	}

	return p.finish(d, ctx, n, l)
}

func (p *Parser) draftOf(n *yaml.Node, ctx termContext, l loc) (draft, bool) {
	n = deref(n)

	switch {
	case isNull(n):
		p.errorf(diagnostic.KindParse, diagnostic.CodeMissingValue, n, l, "%s value is missing", ctx.pos)
		return draft{}, false
	case isScalar(n):
		d, err := scalarDraft(n.Value)
		if err != nil {
			p.fail(n, l, err)
			return draft{}, false
		}

		d.at = spanOf(n)

		return d, true
	case isMapping(n):
		return p.explicitDraft(n, ctx, l)
	default:
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l,
			"%s must be a scalar or a mapping, got a %s", ctx.pos, kindName(n))

		return draft{}, false
	}
}

// scalarDraft applies the term type suffix and value class inference.
func scalarDraft(raw string) (draft, error) {
	body, explicit := splitTermType(raw)

	v, err := inferValue(body)
	if err != nil {
		return draft{}, fmt.Errorf("%q: %w", raw, err)
	}

	return draft{value: v, explicit: explicit}, nil
}

func (p *Parser) explicitDraft(n *yaml.Node, ctx termContext, l loc) (draft, bool) {
	keys := p.keyed(n, termMapKeys, l)
	d := draft{at: spanOf(n)}

	var present []string

	for _, k := range valueKeys {
		if _, ok := keys[k]; ok {
			present = append(present, k)
		}
	}

	switch len(present) {
	case 0:
		p.errorf(diagnostic.KindSemantic, diagnostic.CodeMissingValue, n, l,
			"term map needs one of %s", strings.Join(valueKeys, ", "))

		return d, false
	case 1:
	default:
		p.errorf(diagnostic.KindSemantic, diagnostic.CodeAmbiguousValueClass, n, l,
			"term map has more than one value class: %s", strings.Join(present, ", "))

		return d, false
	}

	if _, ok := keys["parameters"]; ok && present[0] != "function" {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, keys["parameters"].Key, l,
			"parameters are only allowed with a function")
	}

	if _, ok := keys["condition"]; ok && present[0] != "mapping" {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, keys["condition"].Key, l,
			"conditions are only allowed with a mapping reference")
	}

	kv := keys[present[0]]

	switch present[0] {
	case "value":
		raw, ok := p.scalar(kv.Value, l.at("value"))
		if !ok {
			return d, false
		}

		sd, err := scalarDraft(raw)
		if err != nil {
			p.fail(kv.Value, l, err)
			return d, false
		}

		d.value, d.explicit = sd.value, sd.explicit
	case "constant":
		raw, ok := p.scalar(kv.Value, l.at("constant"))
		if !ok {
			return d, false
		}

		d.value = mapping.Constant{Term: mapping.Literal(raw)}
	case "reference":
		raw, ok := p.scalar(kv.Value, l.at("reference"))
		if !ok {
			return d, false
		}

		d.value = mapping.Reference{Name: raw}
	case "template":
		raw, ok := p.scalar(kv.Value, l.at("template"))
		if !ok {
			return d, false
		}

		if _, err := mapping.ParseTemplate(raw); err != nil {
			p.fail(kv.Value, l, err)
			return d, false
		}

		d.value = mapping.Template{Pattern: raw}
	case "function":
		fn, ok := p.functionMap(kv.Value, keys["parameters"].Value, l)
		if !ok {
			return d, false
		}

		d.value = fn
	case "mapping":
		if ctx.pos != mapping.PosObject {
			p.errorf(diagnostic.KindSemantic, diagnostic.CodeMisplacedJoin, n, l,
				"a mapping reference is only allowed as an object, not as a %s", ctx.pos)

			return d, false
		}

		j, ok := p.join(n, kv.Value, keys["condition"].Value, l)
		if !ok {
			return d, false
		}

		d.value = j
	}

	if kv, ok := keys["type"]; ok {
		raw, ok := p.scalar(kv.Value, l.at("type"))
		if !ok {
			return d, false
		}

		tt, known := mapping.ParseTermType(raw)
		if !known {
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidTermType, kv.Value, l,
				"unknown term type %q (want iri, literal or blanknode)", raw)

			return d, false
		}

		if d.explicit != nil && *d.explicit != tt {
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidTermType, kv.Value, l,
				"type %s contradicts the ~%s suffix", tt, *d.explicit)

			return d, false
		}

		d.explicit = &tt
	}

	if kv, ok := keys["datatype"]; ok {
		if d.datatype, ok = p.scalar(kv.Value, l.at("datatype")); !ok {
			return d, false
		}
	}

	if kv, ok := keys["language"]; ok {
		if d.language, ok = p.scalar(kv.Value, l.at("language")); !ok {
			return d, false
		}
	}

	return d, true
}

// finish finalizes d, reporting errors against n.
func (p *Parser) finish(d draft, ctx termContext, n *yaml.Node, l loc) (mapping.TermMap, bool) {
	tm, err := p.finalize(d, ctx)
	if err != nil {
		p.fail(n, l, err)
		return mapping.TermMap{}, false
	}

	return tm, true
}

// finalize settles the term type and resolves IRIs.
func (p *Parser) finalize(d draft, ctx termContext) (mapping.TermMap, error) {
	tm := mapping.TermMap{Value: d.value, Language: d.language, At: d.at}

	if d.datatype != "" {
		dt, err := p.table.Resolve(d.datatype, p.base)
		if err != nil {
			return tm, err
		}

		tm.Datatype = dt
	}

	switch v := d.value.(type) {
	case mapping.Constant:
		return p.finalizeConstant(v, tm, d.explicit, ctx)
	case mapping.Template:
		tm.TermType = termTypeOr(d.explicit, shorthandTermType(ctx, tm))
		if tm.TermType == mapping.TermIRI {
			resolved, err := p.table.ResolveTemplate(v.Pattern, p.base)
			if err != nil {
				return tm, err
			}

			tm.Value = mapping.Template{Pattern: resolved}
		}
	default:
		tm.TermType = termTypeOr(d.explicit, shorthandTermType(ctx, tm))
	}

	return tm, nil
}

func (p *Parser) finalizeConstant(
	c mapping.Constant, tm mapping.TermMap, explicit *mapping.TermType, ctx termContext,
) (mapping.TermMap, error) {
	kind := mapping.TermLiteral

	switch {
	case explicit != nil:
		kind = *explicit
	case tm.Datatype != "" || tm.Language != "":
		kind = mapping.TermLiteral
	case ctx.pos != mapping.PosObject && ctx.pos != mapping.PosParameter, ctx.typeObject:
		kind = mapping.TermIRI
	}

	term := mapping.Term{Kind: kind, Value: c.Term.Value}

	switch kind {
	case mapping.TermIRI:
		if ctx.pos == mapping.PosPredicate && term.Value == "a" {
			term.Value = rdfType
			break
		}

		iri, err := p.table.Resolve(term.Value, p.base)
		if err != nil {
			return tm, err
		}

		term.Value = iri
	case mapping.TermLiteral:
		term.Datatype, term.Language = tm.Datatype, tm.Language
	}

	if kind != mapping.TermLiteral && (tm.Datatype != "" || tm.Language != "") {
		return tm, fmt.Errorf("%w: datatype or language on a %s constant", errInvalidTermType, kind)
	}

	tm.Value = mapping.Constant{Term: term}
	tm.TermType = kind
	tm.Datatype, tm.Language = "", ""

	return tm, nil
}

// shorthandTermType is the term type implied when none is written. Object
// and parameter templates are literals unless marked ~iri, as in YARRRML.
func shorthandTermType(ctx termContext, tm mapping.TermMap) mapping.TermType {
	if _, ok := tm.Value.(mapping.Template); ok && !ctx.typeObject &&
		(ctx.pos == mapping.PosObject || ctx.pos == mapping.PosParameter) {
		return mapping.TermLiteral
	}

	return mapping.DefaultTermType(ctx.pos, tm)
}

func termTypeOr(explicit *mapping.TermType, def mapping.TermType) mapping.TermType {
	if explicit != nil {
		return *explicit
	}

	return def
}

// functionMap parses {function: f, parameters: ...}.
func (p *Parser) functionMap(fnNode, params *yaml.Node, l loc) (mapping.FunctionMap, bool) {
	fn, ok := p.iri(fnNode, l.at("function"))
	if !ok {
		return mapping.FunctionMap{}, false
	}

	fm := mapping.FunctionMap{Function: fn}

	for i, e := range p.parameterEntries(params, l) {
		pl := l.at(fmt.Sprintf("parameters[%d]", i))

		pred, okPred := p.iri(e.Key, pl)
		val, okVal := p.termMap(e.Value, termContext{pos: mapping.PosParameter}, pl)

		if !okPred || !okVal {
			ok = false
			continue
		}

		fm.Parameters = append(fm.Parameters, mapping.Parameter{Predicate: pred, Value: val})
	}

	return fm, ok
}

var parameterKeys = map[string]string{
	"parameter": "parameter",
	"p":         "parameter",
	"value":     "value",
	"o":         "value",
}

// parameterEntries accepts {param: value, ...}, [[param, value], ...] and
// [{parameter: p, value: v}, ...].
func (p *Parser) parameterEntries(n *yaml.Node, l loc) []pair {
	switch {
	case isNull(n):
		return nil
	case isMapping(n):
		return pairs(n)
	case isSequence(n):
	default:
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l.at("parameters"),
			"parameters must be a mapping or a sequence, got a %s", kindName(n))

		return nil
	}

	var out []pair

	for i, item := range items(n) {
		il := l.at(fmt.Sprintf("parameters[%d]", i))

		switch {
		case isSequence(item) && len(item.Content) == 2:
			k, v := utils.Unpack2(items(item))
			out = append(out, pair{Key: k, Value: v})
		case isMapping(item):
			keys := p.keyed(item, parameterKeys, il)

			k, v := keys["parameter"].Value, keys["value"].Value
			if k == nil || v == nil {
				p.errorf(diagnostic.KindParse, diagnostic.CodeMissingValue, item, il,
					"parameter entry needs both parameter and value")

				continue
			}

			out = append(out, pair{Key: k, Value: v})
		default:
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, item, il,
				"parameter entry must be [parameter, value] or {parameter, value}")
		}
	}

	return out
}

var conditionKeys = map[string]string{
	"child":      "child",
	"parent":     "parent",
	"function":   "function",
	"fn":         "function",
	"parameters": "parameters",
	"params":     "parameters",
	"pms":        "parameters",
}

// join parses {mapping: id, condition: ...}.
func (p *Parser) join(n, target, cond *yaml.Node, l loc) (mapping.Join, bool) {
	parent, ok := p.scalar(target, l.at("mapping"))
	if !ok {
		return mapping.Join{}, false
	}

	j := mapping.Join{Parent: parent}

	for i, c := range items(cond) {
		if isNull(c) {
			continue
		}

		jc, ok := p.joinCondition(c, l.at(fmt.Sprintf("condition[%d]", i)))
		if ok {
			j.Conditions = append(j.Conditions, jc)
		}
	}

	if len(j.Conditions) == 0 {
		p.errorf(diagnostic.KindSemantic, diagnostic.CodeMissingJoinCondition, n, l,
			"join with mapping %q has no join condition", parent)

		return j, false
	}

	return j, true
}

// joinCondition accepts {child, parent} or the equal(str1, str2) function form.
func (p *Parser) joinCondition(n *yaml.Node, l loc) (mapping.JoinCondition, bool) {
	if !isMapping(n) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l,
			"join condition must be a mapping, got a %s", kindName(n))

		return mapping.JoinCondition{}, false
	}

	keys := p.keyed(n, conditionKeys, l)

	if _, isFn := keys["function"]; isFn {
		return p.equalCondition(n, keys, l)
	}

	child, okC := p.scalar(keys["child"].Value, l.at("child"))
	parent, okP := p.scalar(keys["parent"].Value, l.at("parent"))

	if !okC || !okP {
		return mapping.JoinCondition{}, false
	}

	return mapping.JoinCondition{Child: referenceName(child), Parent: referenceName(parent)}, true
}

func (p *Parser) equalCondition(n *yaml.Node, keys map[string]pair, l loc) (mapping.JoinCondition, bool) {
	fn, ok := p.scalar(keys["function"].Value, l.at("function"))
	if !ok {
		return mapping.JoinCondition{}, false
	}

	if !strings.HasSuffix(strings.ToLower(fn), "equal") {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, keys["function"].Value, l,
			"join condition function must be equal, got %q", fn)

		return mapping.JoinCondition{}, false
	}

	var jc mapping.JoinCondition

	for _, e := range p.parameterEntries(keys["parameters"].Value, l) {
		name, okN := p.scalar(e.Key, l.at("parameters"))
		val, okV := p.scalar(e.Value, l.at("parameters"))

		if !okN || !okV {
			return jc, false
		}

		switch name {
		case "str1":
			jc.Child = referenceName(val)
		case "str2":
			jc.Parent = referenceName(val)
		default:
			p.errorf(diagnostic.KindParse, diagnostic.CodeUnknownKey, e.Key, l,
				"equal takes str1 (child) and str2 (parent), got %q", name)

			return jc, false
		}
	}

	if jc.Child == "" || jc.Parent == "" {
		p.errorf(diagnostic.KindSemantic, diagnostic.CodeMissingJoinCondition, n, l,
			"equal needs both str1 and str2")

		return jc, false
	}

	return jc, true
}
