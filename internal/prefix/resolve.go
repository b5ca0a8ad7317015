package prefix

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnresolvable is matched by errors.Is on every *UnresolvableError.
var ErrUnresolvable = errors.New("unresolvable prefix")

// UnresolvableError reports a prefixed name whose label is not declared.
type UnresolvableError struct {
	Label string
	Term  string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("prefix %q is not declared (in %q)", e.Label, e.Term)
}

// Is matches ErrUnresolvable.
func (e *UnresolvableError) Is(target error) bool {
	return target == ErrUnresolvable
}

// schemes that never carry "//" after the colon but still denote absolute IRIs.
var opaqueSchemes = map[string]bool{
	"urn": true, "mailto": true, "tag": true, "data": true, "tel": true, "file": true,
}

// Resolve turns term into an absolute IRI.
//
//   - <iri>        resolved against base
//   - scheme://... returned unchanged
//   - label:local  namespace of label + local
//   - :local       namespace of "" (or base when "" is not bound) + local
//   - relative     resolved against base
func (t *Table) Resolve(term, base string) (string, error) {
	if strings.HasPrefix(term, "<") && strings.HasSuffix(term, ">") {
		return ResolveIRI(base, term[1:len(term)-1]), nil
	}

	label, local, ok := strings.Cut(term, ":")
	if !ok {
		return ResolveIRI(base, term), nil
	}

	if strings.HasPrefix(local, "//") {
		return term, nil
	}

	if ns, found := t.Lookup(label); found {
		return ns + local, nil
	}

	if label == "" {
		return base + local, nil
	}

	if opaqueSchemes[strings.ToLower(label)] {
		return term, nil
	}

	if !isPrefixLabel(label) {
		return ResolveIRI(base, term), nil
	}

	return "", &UnresolvableError{Label: label, Term: term}
}

// ResolveTemplate expands the prefixed or relative head of a template,
// the text before its first substitution. Fully dynamic templates are kept.
func (t *Table) ResolveTemplate(pattern, base string) (string, error) {
	head, rest := pattern, ""
	if i := strings.IndexByte(pattern, '{'); i >= 0 {
		head, rest = pattern[:i], pattern[i:]
	}

	if head == "" {
		return pattern, nil
	}

	if strings.Contains(head, ":") {
		label, local, _ := strings.Cut(head, ":")
		if strings.HasPrefix(local, "//") || opaqueSchemes[strings.ToLower(label)] {
			return pattern, nil
		}
	}

	resolved, err := t.Resolve(head, base)
	if err != nil {
		return "", err
	}

	return resolved + rest, nil
}

// ResolveIRI resolves relative against base according to RFC 3986.
func ResolveIRI(base, relative string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return concatBase(base, relative)
	}

	relURL, err := url.Parse(relative)
	if err != nil {
		return concatBase(base, relative)
	}

	if relURL.Scheme != "" {
		return relative
	}

	return baseURL.ResolveReference(relURL).String()
}

func concatBase(base, relative string) string {
	if strings.HasSuffix(base, "/") {
		return base + relative
	}

	if i := strings.LastIndex(base, "/"); i >= 0 {
		return base[:i+1] + relative
	}

	return base + "/" + relative
}

// IsAbsolute reports whether iri has a scheme.
func IsAbsolute(iri string) bool {
	u, err := url.Parse(iri)
	return err == nil && u.Scheme != ""
}

func isPrefixLabel(label string) bool {
	for i := 0; i < len(label); i++ {
		ch := label[i]
		if i == 0 && !isNameStartChar(ch) {
			return false
		}

		if !isNameChar(ch) {
			return false
		}
	}

	return true
}
