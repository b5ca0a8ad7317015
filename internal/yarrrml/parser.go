package yarrrml

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/match"
	"yarrrml-compiler/internal/prefix"
)

// Options configures a Parser.
type Options struct {
	// Prefixes is the default prefix table; nil selects prefix.Default().
	// Document prefixes override entries but never remove them.
	Prefixes *prefix.Table
	// BaseIRI is used when the document declares no base; "" selects
	// mapping.DefaultBaseIRI.
	BaseIRI string
}

// Parser turns YARRRML node trees into mapping documents.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	opts  Options
	table *prefix.Table
	base  string
	diags diagnostic.Diagnostics

	sources     map[string]*namedSource
	sourceNames []string
}

type namedSource struct {
	source mapping.LogicalSource
	at     mapping.Span
	used   bool
}

// loc tracks where in the document the parser is.
type loc struct {
	mapID string
	path  string
}

func (l loc) at(path string) loc {
	if l.path == "" {
		return loc{mapID: l.mapID, path: path}
	}

	if strings.HasPrefix(path, "[") {
		return loc{mapID: l.mapID, path: l.path + path}
	}

	return loc{mapID: l.mapID, path: l.path + "." + path}
}

var topLevelKeys = map[string]string{
	"prefixes": "prefixes",
	"base":     "base",
	"sources":  "sources",
	"mappings": "mappings",
	"dialect":  "dialect",
}

// NewParser returns a parser with the given options.
func NewParser(opts Options) *Parser {
	return &Parser{opts: opts}
}

// Parse is shorthand for NewParser(opts).Parse(root).
func Parse(root *yaml.Node, opts Options) (*mapping.Document, error) {
	return NewParser(opts).Parse(root)
}

// ParseBytes decodes YAML text and parses it.
func ParseBytes(data []byte, opts Options) (*mapping.Document, error) {
	root, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return Parse(root, opts)
}

var yamlLine = regexp.MustCompile(`line (\d+): (.*)`)

// Decode unmarshals YAML text into a node tree. Syntax errors are returned
// as parse diagnostics carrying the reported line.
func Decode(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		msg := strings.TrimPrefix(err.Error(), "yaml: ")

		var at diagnostic.Location
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			at.Line, _ = strconv.Atoi(m[1])
			msg = m[2]
		}

		return nil, diagnostic.NewError(diagnostic.KindParse, diagnostic.CodeSyntax, msg, at)
	}

	return &root, nil
}

// Warnings returns the non-fatal findings of the last Parse call.
func (p *Parser) Warnings() []diagnostic.Diagnostic {
	return p.diags.Warnings
}

// Parse builds a frozen document from root, which may be a document node or
// its top-level mapping. All problems found are returned together.
func (p *Parser) Parse(root *yaml.Node) (*mapping.Document, error) {
	p.reset()

	body := documentBody(root)

	if !isNull(body) && body.Kind != yaml.MappingNode {
		p.errorf(diagnostic.KindParse, diagnostic.CodeSyntax, body, loc{},
			"document must be a mapping, got a %s", kindName(body))

		return nil, p.diags.Err()
	}

	keys := p.keyed(body, topLevelKeys, loc{})

	p.parsePrefixes(keys["prefixes"].Value)
	p.parseBase(keys["base"].Value)

	doc := mapping.NewDocument(p.base, p.table)
	p.parseDialect(doc, keys["dialect"].Value)
	p.parseNamedSources(keys["sources"].Value)
	p.parseMappings(doc, keys["mappings"].Value)

	if p.diags.HasErrors() {
		return nil, p.diags.Err()
	}

	if res := mapping.Validate(doc); res.HasErrors() {
		return nil, res.Err()
	}

	p.warnUnusedSources()
	doc.Freeze()

	return doc, nil
}

func (p *Parser) reset() {
	p.table = p.opts.Prefixes.Clone()
	if p.opts.Prefixes == nil {
		p.table = prefix.Default()
	}

	p.base = p.opts.BaseIRI
	if p.base == "" {
		p.base = mapping.DefaultBaseIRI
	}

	p.diags = diagnostic.Diagnostics{}
	p.sources = map[string]*namedSource{}
	p.sourceNames = nil
}

func (p *Parser) parsePrefixes(n *yaml.Node) {
	if isNull(n) {
		return
	}

	if !isMapping(n) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, loc{path: "prefixes"},
			"prefixes must be a mapping of label to namespace, got a %s", kindName(n))

		return
	}

	for _, kv := range pairs(n) {
		ns, ok := p.scalar(kv.Value, loc{path: "prefixes." + kv.Key.Value})
		if !ok {
			continue
		}

		p.table.Set(kv.Key.Value, ns)
	}
}

func (p *Parser) parseBase(n *yaml.Node) {
	if isNull(n) {
		return
	}

	base, ok := p.scalar(n, loc{path: "base"})
	if !ok {
		return
	}

	if !prefix.IsAbsolute(base) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidBase, n, loc{path: "base"},
			"base %q is not an absolute IRI", base)

		return
	}

	p.base = base
}

func (p *Parser) parseDialect(doc *mapping.Document, n *yaml.Node) {
	if isNull(n) {
		return
	}

	raw, ok := p.scalar(n, loc{path: "dialect"})
	if !ok {
		return
	}

	d, err := mapping.ParseDialect(raw)
	if err != nil {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, loc{path: "dialect"}, "%v", err)
		return
	}

	doc.Dialect = d
}

func (p *Parser) parseMappings(doc *mapping.Document, n *yaml.Node) {
	if isNull(n) {
		return
	}

	if !isMapping(n) {
		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, loc{path: "mappings"},
			"mappings must be a mapping of identifier to mapping, got a %s", kindName(n))

		return
	}

	for _, kv := range pairs(n) {
		id := kv.Key.Value
		l := loc{mapID: id}

		if !mapping.ValidID(id) {
			p.errorf(diagnostic.KindSemantic, diagnostic.CodeInvalidMappingID, kv.Key, l,
				"mapping identifier %q must start with a letter or '_' and use only letters, digits and '_', '-', '.', '/', '#'", id)

			continue
		}

		if _, dup := doc.Lookup(id); dup {
			p.errorf(diagnostic.KindSemantic, diagnostic.CodeDuplicateMapping, kv.Key, l,
				"mapping %q is declared more than once", id)

			continue
		}

		tm, ok := p.triplesMap(id, kv.Key, kv.Value, l)
		if !ok {
			continue
		}

		if err := doc.Add(tm); err != nil {
			p.errorf(diagnostic.KindSemantic, diagnostic.CodeDuplicateMapping, kv.Key, l, "%v", err)
		}
	}
}

func (p *Parser) warnUnusedSources() {
	for _, name := range p.sourceNames {
		s := p.sources[name]
		if !s.used {
			p.diags.AddWarning(diagnostic.CodeUnusedSource, fmt.Sprintf("source %q is never used", name),
				diagnostic.Location{Line: s.at.Line, Column: s.at.Column, Path: "sources." + name})
		}
	}
}

// keyed indexes a mapping node by canonical key. Unknown and repeated keys
// are reported; the first occurrence wins.
func (p *Parser) keyed(n *yaml.Node, aliases map[string]string, l loc) map[string]pair {
	out := map[string]pair{}

	for _, kv := range pairs(n) {
		canon, ok := aliases[strings.ToLower(kv.Key.Value)]
		if !ok {
			p.unknownKey(kv.Key, aliases, l)
			continue
		}

		if _, dup := out[canon]; dup {
			p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, kv.Key, l,
				"key %q repeats %q", kv.Key.Value, canon)

			continue
		}

		out[canon] = kv
	}

	return out
}

func (p *Parser) unknownKey(key *yaml.Node, aliases map[string]string, l loc) {
	known := make([]string, 0, len(aliases))
	for k := range aliases {
		known = append(known, k)
	}

	sort.Strings(known)

	p.diags.AddError(diagnostic.KindParse, diagnostic.CodeUnknownKey,
		fmt.Sprintf("unknown key %q", key.Value), p.location(key, l),
		match.Suggest(key.Value, known, 2)...)
}

// scalar returns the value of a scalar node, reporting anything else.
func (p *Parser) scalar(n *yaml.Node, l loc) (string, bool) {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		got := "nothing"
		if n != nil {
			got = "a " + kindName(n)
		}

		if n != nil && isNull(n) {
			got = "null"
		}

		p.errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, n, l, "expected a scalar, got %s", got)

		return "", false
	}

	return n.Value, true
}

// iri resolves a scalar holding an IRI, prefixed name or relative IRI.
func (p *Parser) iri(n *yaml.Node, l loc) (string, bool) {
	raw, ok := p.scalar(n, l)
	if !ok {
		return "", false
	}

	iri, err := p.table.Resolve(raw, p.base)
	if err != nil {
		p.fail(n, l, err)
		return "", false
	}

	return iri, true
}

func (p *Parser) location(n *yaml.Node, l loc) diagnostic.Location {
	at := diagnostic.Location{Mapping: l.mapID, Path: l.path}
	if n != nil {
		at.Line, at.Column = n.Line, n.Column
	}

	return at
}

func (p *Parser) errorf(kind diagnostic.Kind, code diagnostic.Code, n *yaml.Node, l loc, format string, args ...any) {
	p.diags.Errorf(kind, code, p.location(n, l), format, args...)
}

// fail reports err, classifying the errors produced by inference and resolution.
func (p *Parser) fail(n *yaml.Node, l loc, err error) {
	kind, code := diagnostic.KindParse, diagnostic.CodeInvalidValue

	switch {
	case errors.Is(err, errAmbiguousValueClass):
		code = diagnostic.CodeAmbiguousValueClass
	case errors.Is(err, prefix.ErrUnresolvable):
		kind, code = diagnostic.KindUnresolvablePrefix, diagnostic.CodeUnresolvablePrefix
	case errors.Is(err, mapping.ErrInvalidTemplate):
		code = diagnostic.CodeInvalidTemplate
	case errors.Is(err, errInvalidTermType):
		code = diagnostic.CodeInvalidTermType
	}

	p.diags.AddError(kind, code, err.Error(), p.location(n, l))
}

func spanOf(n *yaml.Node) mapping.Span {
	if n == nil {
		return mapping.Span{}
	}

	return mapping.Span{Line: n.Line, Column: n.Column}
}
