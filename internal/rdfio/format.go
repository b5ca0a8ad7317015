package rdfio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"yarrrml-compiler/internal/common"
)

// ErrUnsupported is returned when a format cannot be read.
var ErrUnsupported = errors.New("unsupported RDF format")

// Format is an RDF serialization.
type Format int

const (
	Turtle Format = iota
	NTriples
	NQuads
	JSONLD
)

var formatNames = map[string]Format{
	"turtle":    Turtle,
	"ttl":       Turtle,
	"ntriples":  NTriples,
	"n-triples": NTriples,
	"nt":        NTriples,
	"nquads":    NQuads,
	"n-quads":   NQuads,
	"nq":        NQuads,
	"jsonld":    JSONLD,
	"json-ld":   JSONLD,
}

var extensions = map[string]Format{
	".ttl":    Turtle,
	".nt":     NTriples,
	".nq":     NQuads,
	".jsonld": JSONLD,
	".json":   JSONLD,
}

func (f Format) String() string {
	switch f {
	case Turtle:
		return "turtle"
	case NTriples:
		return "ntriples"
	case NQuads:
		return "nquads"
	case JSONLD:
		return "jsonld"
	default:
		return common.UnknownStr
	}
}

// ParseFormat parses a format name such as "turtle", "nt" or "json-ld".
func ParseFormat(name string) (Format, error) {
	f, ok := formatNames[strings.ToLower(name)]
	if !ok {
		return Turtle, fmt.Errorf("%w: %q", ErrUnsupported, name)
	}

	return f, nil
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}
