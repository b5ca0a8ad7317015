package mapping

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"yarrrml-compiler/internal/common"
	"yarrrml-compiler/internal/prefix"
)

// DefaultBaseIRI is used when a document declares no base.
const DefaultBaseIRI = "http://example.com/"

var (
	// ErrFrozen is returned when adding to a frozen document.
	ErrFrozen = errors.New("document is frozen")
	// ErrDuplicateID is returned when a triples map ID is already taken.
	ErrDuplicateID = errors.New("duplicate triples map id")
)

var idPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_./#-]*$`)

// ValidID reports whether id can name a triples map.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Dialect selects the output vocabulary.
type Dialect int

const (
	DialectRML Dialect = iota
	DialectR2RML
)

// String returns the dialect name.
func (d Dialect) String() string {
	switch d {
	case DialectRML:
		return "rml"
	case DialectR2RML:
		return "r2rml"
	default:
		return common.UnknownStr
	}
}

// ParseDialect parses "rml" or "r2rml" (case-insensitive).
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "rml":
		return DialectRML, nil
	case "r2rml":
		return DialectR2RML, nil
	default:
		return DialectRML, fmt.Errorf("unknown dialect %q (want rml or r2rml)", s)
	}
}

// Span is a 1-based source position; the zero value means unknown.
type Span struct {
	Line   int
	Column int
}

// Document is a complete mapping document.
type Document struct {
	// BaseIRI is the absolute IRI relative references and map IDs resolve against.
	BaseIRI string
	// Prefixes holds the built-in bindings plus the document's own.
	Prefixes *prefix.Table
	// Dialect is the declared or detected dialect.
	Dialect Dialect
	// TriplesMaps in document order.
	TriplesMaps []*TriplesMap

	index  map[string]int
	frozen bool
}

// NewDocument returns an empty document. An empty base selects DefaultBaseIRI.
func NewDocument(base string, prefixes *prefix.Table) *Document {
	if base == "" {
		base = DefaultBaseIRI
	}

	if prefixes == nil {
		prefixes = prefix.Default()
	}

	return &Document{
		BaseIRI:  base,
		Prefixes: prefixes,
		index:    make(map[string]int),
	}
}

// Add appends tm. IDs must be unique.
func (d *Document) Add(tm *TriplesMap) error {
	if d.frozen {
		return ErrFrozen
	}

	if d.index == nil {
		d.index = make(map[string]int)
	}

	if _, ok := d.index[tm.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, tm.ID)
	}

	d.index[tm.ID] = len(d.TriplesMaps)
	d.TriplesMaps = append(d.TriplesMaps, tm)

	return nil
}

// Freeze forbids further Add calls.
func (d *Document) Freeze() {
	d.frozen = true
}

// Frozen reports whether Freeze was called.
func (d *Document) Frozen() bool {
	return d.frozen
}

// Lookup returns the triples map with the given ID.
func (d *Document) Lookup(id string) (*TriplesMap, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}

	return d.TriplesMaps[i], true
}

// IDs returns all triples map IDs in document order.
func (d *Document) IDs() []string {
	ids := make([]string, len(d.TriplesMaps))
	for i, tm := range d.TriplesMaps {
		ids[i] = tm.ID
	}

	return ids
}

// IRIOf returns the IRI naming the triples map id.
func (d *Document) IRIOf(id string) string {
	return MapIRI(d.BaseIRI, id)
}

// MapIRI joins base and id, inserting "#" unless base ends in "/" or "#".
func MapIRI(base, id string) string {
	if strings.HasSuffix(base, "/") || strings.HasSuffix(base, "#") {
		return base + id
	}

	return base + "#" + id
}

// TriplesMap produces triples for every record of its logical source.
type TriplesMap struct {
	ID               string
	At               Span
	Source           LogicalSource
	Subject          SubjectMap
	PredicateObjects []PredicateObjectMap
}

// LogicalSource is passed through unchanged; the compiler never reads data.
type LogicalSource struct {
	// Access locates the data (file path or URL).
	Access string
	// ReferenceFormulation is the IRI of the reference language, e.g. ql:JSONPath.
	ReferenceFormulation string
	// Iterator selects the records.
	Iterator string
	// Table is a relational table or view name.
	Table string
	// Query is a relational query.
	Query string
	// SQLVersion is the IRI of the query language version.
	SQLVersion string
}

// IsZero reports whether no field is set.
func (ls LogicalSource) IsZero() bool {
	return ls == LogicalSource{}
}

// IsRelational reports whether the source is a table or query and nothing else.
func (ls LogicalSource) IsRelational() bool {
	return ls.Access == "" && ls.ReferenceFormulation == "" && ls.Iterator == "" &&
		(ls.Table != "" || ls.Query != "")
}

// SubjectMap generates the subject of every triple of a triples map.
type SubjectMap struct {
	TermMap
	// Classes are IRIs asserted as rdf:type of every subject.
	Classes []string
	// Graphs place the generated triples in named graphs.
	Graphs []TermMap
}

// PredicateObjectMap generates one triple per predicate × object.
type PredicateObjectMap struct {
	At         Span
	Predicates []TermMap
	Objects    []TermMap
	Graphs     []TermMap
}
