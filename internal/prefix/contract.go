package prefix

import "strings"

// Contract returns the shortest prefixed form of iri and the label used.
// The longest matching namespace wins; ties go to the label declared first.
// When nothing matches, iri is returned unchanged with ok == false.
func (t *Table) Contract(iri string) (compact, label string, ok bool) {
	best := -1

	for _, l := range t.Labels() {
		ns := t.ns[l]
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}

		if !isLocalName(iri[len(ns):]) {
			continue
		}

		if len(ns) > best {
			best = len(ns)
			label = l
		}
	}

	if best < 0 {
		return iri, "", false
	}

	return label + ":" + iri[best:], label, true
}

func isLocalName(value string) bool {
	if value == "" {
		return true
	}

	if strings.HasSuffix(value, ".") {
		return false
	}

	for i := 0; i < len(value); i++ {
		ch := value[i]
		if i == 0 {
			if !isNameStartChar(ch) && !isDigit(ch) {
				return false
			}
		} else if !isNameChar(ch) {
			return false
		}
	}

	return true
}

func isNameStartChar(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') || ch == '_'
}

func isNameChar(ch byte) bool {
	return isNameStartChar(ch) || isDigit(ch) || ch == '-' || ch == '.'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// ContractTemplate abbreviates the constant head of an IRI template, the
// text before its first substitution, with the longest matching namespace.
func (t *Table) ContractTemplate(pattern string) (compact, label string, ok bool) {
	head := pattern
	if i := strings.IndexByte(pattern, '{'); i >= 0 {
		head = pattern[:i]
	}

	best := -1

	for _, l := range t.Labels() {
		ns := t.ns[l]
		if ns == "" || !strings.HasPrefix(head, ns) || strings.HasPrefix(head[len(ns):], "//") {
			continue
		}

		if len(ns) > best {
			best = len(ns)
			label = l
		}
	}

	if best < 0 {
		return pattern, "", false
	}

	return label + ":" + pattern[best:], label, true
}
