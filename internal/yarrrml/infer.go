package yarrrml

import (
	"errors"
	"regexp"
	"strings"

	"yarrrml-compiler/internal/mapping"
)

var errAmbiguousValueClass = errors.New("scalar mixes template braces with a $ reference marker")

// inlineRef matches a YARRRML reference "$(name)".
var inlineRef = regexp.MustCompile(`\$\(([^()]*)\)`)

// termTypeSuffixes maps "~suffix" to a term type.
var termTypeSuffixes = map[string]mapping.TermType{
	"iri":       mapping.TermIRI,
	"literal":   mapping.TermLiteral,
	"blanknode": mapping.TermBlankNode,
}

// splitTermType strips a trailing "~iri", "~literal" or "~blanknode".
func splitTermType(raw string) (string, *mapping.TermType) {
	i := strings.LastIndex(raw, "~")
	if i < 0 {
		return raw, nil
	}

	tt, ok := termTypeSuffixes[raw[i+1:]]
	if !ok {
		return raw, nil
	}

	return raw[:i], &tt
}

// inferValue classifies a shorthand scalar by its markers.
// IRIs in constants and template heads are left unresolved.
func inferValue(raw string) (mapping.Value, error) {
	if strings.HasPrefix(raw, `\$`) {
		return mapping.Constant{Term: mapping.Literal(raw[1:])}, nil
	}

	dollar := strings.HasPrefix(raw, "$")
	inline := inlineRef.FindAllStringSubmatchIndex(raw, -1)
	braces := hasUnescapedBrace(raw)

	if braces && (dollar || len(inline) > 0) {
		return nil, errAmbiguousValueClass
	}

	switch {
	case len(inline) == 1 && inline[0][0] == 0 && inline[0][1] == len(raw):
		name := raw[inline[0][2]:inline[0][3]]
		if name == "" {
			return nil, errors.New("empty reference $()")
		}

		return mapping.Reference{Name: name}, nil
	case len(inline) > 0:
		return inlineTemplate(raw, inline)
	case dollar && len(raw) > 1:
		return mapping.Reference{Name: raw[1:]}, nil
	case braces:
		if _, err := mapping.ParseTemplate(raw); err != nil {
			return nil, err
		}

		return mapping.Template{Pattern: raw}, nil
	default:
		return mapping.Constant{Term: mapping.Literal(raw)}, nil
	}
}

// inlineTemplate rewrites "text $(a) text" into the pattern "text {a} text".
func inlineTemplate(raw string, matches [][]int) (mapping.Value, error) {
	var segs []mapping.Segment

	last := 0

	for _, m := range matches {
		if m[0] > last {
			segs = append(segs, mapping.Segment{Text: raw[last:m[0]]})
		}

		name := raw[m[2]:m[3]]
		if name == "" {
			return nil, errors.New("empty reference $()")
		}

		segs = append(segs, mapping.Segment{Text: name, IsReference: true})
		last = m[1]
	}

	if last < len(raw) {
		segs = append(segs, mapping.Segment{Text: raw[last:]})
	}

	return mapping.Template{Pattern: mapping.BuildTemplate(segs)}, nil
}

func hasUnescapedBrace(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{', '}':
			return true
		}
	}

	return false
}

// referenceName strips "$(...)" or "$" from a join condition operand.
func referenceName(raw string) string {
	if m := inlineRef.FindStringSubmatch(raw); m != nil && m[0] == raw {
		return m[1]
	}

	return strings.TrimPrefix(raw, "$")
}
