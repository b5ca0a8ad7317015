package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTemplate is wrapped by every template syntax error.
var ErrInvalidTemplate = errors.New("invalid template")

// Segment is one piece of a parsed template: literal text or a reference.
type Segment struct {
	Text        string
	IsReference bool
}

// ParseTemplate splits pattern into literal and reference segments.
// "\{", "\}" and "\\" escape literal characters; braces must balance and
// references must not be empty.
func ParseTemplate(pattern string) ([]Segment, error) {
	var (
		segs  []Segment
		buf   strings.Builder
		inRef bool
	)

	flush := func(ref bool) {
		if buf.Len() > 0 || ref {
			segs = append(segs, Segment{Text: buf.String(), IsReference: ref})
		}

		buf.Reset()
	}

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '\\' && i+1 < len(pattern) && strings.IndexByte(`{}\`, pattern[i+1]) >= 0:
			i++
			buf.WriteByte(pattern[i])
		case ch == '{':
			if inRef {
				return nil, fmt.Errorf("%w: nested '{' at offset %d in %q", ErrInvalidTemplate, i, pattern)
			}

			flush(false)

			inRef = true
		case ch == '}':
			if !inRef {
				return nil, fmt.Errorf("%w: unmatched '}' at offset %d in %q", ErrInvalidTemplate, i, pattern)
			}

			if buf.Len() == 0 {
				return nil, fmt.Errorf("%w: empty reference at offset %d in %q", ErrInvalidTemplate, i, pattern)
			}

			flush(true)

			inRef = false
		default:
			buf.WriteByte(ch)
		}
	}

	if inRef {
		return nil, fmt.Errorf("%w: unclosed '{' in %q", ErrInvalidTemplate, pattern)
	}

	flush(false)

	return segs, nil
}

// HasReferences reports whether segs contain at least one reference.
func HasReferences(segs []Segment) bool {
	for _, s := range segs {
		if s.IsReference {
			return true
		}
	}

	return false
}

// References returns the field names used by the template, in order.
func (t Template) References() []string {
	segs, err := ParseTemplate(t.Pattern)
	if err != nil {
		return nil
	}

	var refs []string

	for _, s := range segs {
		if s.IsReference {
			refs = append(refs, s.Text)
		}
	}

	return refs
}

// EscapeTemplateText escapes s for use as literal template text.
func EscapeTemplateText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)
	return r.Replace(s)
}

// UnescapeTemplateText reverses EscapeTemplateText.
func UnescapeTemplateText(s string) string {
	r := strings.NewReplacer(`\\`, `\`, `\{`, `{`, `\}`, `}`)
	return r.Replace(s)
}

// BuildTemplate renders segments back into a pattern.
func BuildTemplate(segs []Segment) string {
	var b strings.Builder

	for _, s := range segs {
		if s.IsReference {
			b.WriteString("{" + EscapeTemplateText(s.Text) + "}")
			continue
		}

		b.WriteString(EscapeTemplateText(s.Text))
	}

	return b.String()
}
