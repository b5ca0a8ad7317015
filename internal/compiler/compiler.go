package compiler

import (
	"github.com/cayleygraph/quad"
	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
	"yarrrml-compiler/internal/mapping"
	"yarrrml-compiler/internal/prefix"
	"yarrrml-compiler/internal/rml"
	"yarrrml-compiler/internal/yarrrml"
)

// Config holds the settings of one compilation.
type Config struct {
	// Prefixes is the default prefix table. Forward, documents extend it;
	// reverse, it contracts IRIs the decompiled document does not cover.
	// It always includes DefaultPrefixes().
	Prefixes *prefix.Table
	// BaseIRI is the base for documents that declare none and, reverse,
	// the base triples map IRIs are made relative to. "" lets the
	// compiler choose.
	BaseIRI string
	// PreserveDialect writes "dialect: r2rml" when decompiling R2RML-only
	// triples, which Compile then honours.
	PreserveDialect bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{Prefixes: DefaultPrefixes()}
}

// DefaultPrefixes returns a fresh copy of the built-in prefix table.
func DefaultPrefixes() *prefix.Table {
	return prefix.Default()
}

// prefixes returns the built-in table extended with c.Prefixes; the
// built-in labels can be rebound but never removed.
func (c Config) prefixes() *prefix.Table {
	t := DefaultPrefixes()
	t.Merge(c.Prefixes)

	return t
}

// Result is the outcome of a forward compilation.
type Result struct {
	// Triples in emission order.
	Triples []quad.Quad
	// BaseIRI and Prefixes are those of the compiled document, for
	// serializers that abbreviate IRIs.
	BaseIRI  string
	Prefixes *prefix.Table
	Dialect  mapping.Dialect
	// Warnings are non-fatal findings of the parser.
	Warnings []diagnostic.Diagnostic
}

// Parse builds the mapping document of root without emitting it.
func Parse(root *yaml.Node, cfg Config) (*mapping.Document, []diagnostic.Diagnostic, error) {
	p := yarrrml.NewParser(yarrrml.Options{Prefixes: cfg.prefixes(), BaseIRI: cfg.BaseIRI})

	doc, err := p.Parse(root)
	if err != nil {
		return nil, nil, err
	}

	return doc, p.Warnings(), nil
}

// CompileToRML compiles root to RML triples.
func CompileToRML(root *yaml.Node, cfg Config) (*Result, error) {
	return compile(root, cfg, func(*mapping.Document) mapping.Dialect { return mapping.DialectRML })
}

// CompileToR2RML compiles root to R2RML triples. Documents using function
// maps or non-relational sources fail with diagnostic.ErrUnsupportedInR2RML.
func CompileToR2RML(root *yaml.Node, cfg Config) (*Result, error) {
	return compile(root, cfg, func(*mapping.Document) mapping.Dialect { return mapping.DialectR2RML })
}

// Compile compiles root to the dialect the document declares, RML unless
// it says "dialect: r2rml".
func Compile(root *yaml.Node, cfg Config) (*Result, error) {
	return compile(root, cfg, func(doc *mapping.Document) mapping.Dialect { return doc.Dialect })
}

func compile(root *yaml.Node, cfg Config, dialect func(*mapping.Document) mapping.Dialect) (*Result, error) {
	doc, warnings, err := Parse(root, cfg)
	if err != nil {
		return nil, err
	}

	d := dialect(doc)

	triples, err := rml.Emit(doc, d)
	if err != nil {
		return nil, err
	}

	return &Result{
		Triples:  triples,
		BaseIRI:  doc.BaseIRI,
		Prefixes: doc.Prefixes,
		Dialect:  d,
		Warnings: warnings,
	}, nil
}

// Decompile groups triples into a mapping document whose prefix table is
// the configured one.
func Decompile(triples []quad.Quad, cfg Config) (*mapping.Document, error) {
	return rml.Decompile(triples, rml.DecompileOptions{BaseIRI: cfg.BaseIRI, Prefixes: cfg.prefixes()})
}

// DecompileFromTriples turns an RML or R2RML triple set into YARRRML text.
// Configured prefixes are declared like those of a parsed document; the
// built-in ones only when the output uses them.
func DecompileFromTriples(triples []quad.Quad, cfg Config) ([]byte, error) {
	doc, err := Decompile(triples, cfg)
	if err != nil {
		return nil, err
	}

	return yarrrml.Marshal(doc, yarrrml.ExportOptions{
		Fallback:        cfg.prefixes(),
		PreserveDialect: cfg.PreserveDialect,
	})
}
