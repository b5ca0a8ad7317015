package prefix

import "maps"

// Namespaces of the built-in prefixes.
const (
	RR   = "http://www.w3.org/ns/r2rml#"
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	RML  = "http://semweb.mmlab.be/ns/rml#"
	QL   = "http://semweb.mmlab.be/ns/ql#"
	FNML = "http://semweb.mmlab.be/ns/fnml#"
	FNO  = "http://w3id.org/function/ontology#"
)

// Table is an ordered prefix table. The zero value is empty and ready to use.
type Table struct {
	labels []string
	ns     map[string]string
}

// NewTable returns a table holding the given label/namespace pairs in order.
func NewTable(pairs ...[2]string) *Table {
	t := &Table{}
	for _, p := range pairs {
		t.Set(p[0], p[1])
	}

	return t
}

// Default returns a fresh copy of the built-in prefix table.
func Default() *Table {
	return NewTable(
		[2]string{"rr", RR},
		[2]string{"rdf", RDF},
		[2]string{"rdfs", RDFS},
		[2]string{"rml", RML},
		[2]string{"ql", QL},
		[2]string{"fnml", FNML},
		[2]string{"fno", FNO},
	)
}

// IsDefault reports whether label is bound to the same namespace in Default.
func IsDefault(label, namespace string) bool {
	ns, ok := Default().Lookup(label)
	return ok && ns == namespace
}

// Set binds label to namespace. Rebinding keeps the original position.
func (t *Table) Set(label, namespace string) {
	if t.ns == nil {
		t.ns = make(map[string]string)
	}

	if _, ok := t.ns[label]; !ok {
		t.labels = append(t.labels, label)
	}

	t.ns[label] = namespace
}

// Lookup returns the namespace bound to label.
func (t *Table) Lookup(label string) (string, bool) {
	if t == nil {
		return "", false
	}

	ns, ok := t.ns[label]

	return ns, ok
}

// Labels returns the labels in declaration order.
func (t *Table) Labels() []string {
	if t == nil {
		return nil
	}

	return append([]string(nil), t.labels...)
}

// Len returns the number of bindings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.labels)
}

// Clone returns an independent copy.
func (t *Table) Clone() *Table {
	c := &Table{}
	if t == nil {
		return c
	}

	c.labels = append([]string(nil), t.labels...)
	c.ns = maps.Clone(t.ns)

	return c
}

// Merge adds every binding of other, overriding labels already present.
func (t *Table) Merge(other *Table) {
	for _, l := range other.Labels() {
		ns, _ := other.Lookup(l)
		t.Set(l, ns)
	}
}

// Map returns the bindings as a plain map.
func (t *Table) Map() map[string]string {
	if t == nil {
		return map[string]string{}
	}

	return maps.Clone(t.ns)
}

// Equal reports whether both tables hold the same bindings in the same order.
func (t *Table) Equal(other *Table) bool {
	if t.Len() != other.Len() {
		return false
	}

	for i, l := range t.Labels() {
		if other.labels[i] != l || other.ns[l] != t.ns[l] {
			return false
		}
	}

	return true
}
