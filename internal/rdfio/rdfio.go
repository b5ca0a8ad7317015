package rdfio

import (
	"fmt"
	"io"

	"github.com/cayleygraph/quad"

	"yarrrml-compiler/internal/prefix"
)

// Options configures Write.
type Options struct {
	// Prefixes abbreviates IRIs in Turtle and JSON-LD output.
	Prefixes *prefix.Table
	// BaseIRI is bound to the empty prefix in Turtle output when the
	// table does not bind it already.
	BaseIRI string
}

// Read decodes every quad of r.
func Read(r io.Reader, f Format) ([]quad.Quad, error) {
	switch f {
	case Turtle:
		return readTurtle(r)
	case NTriples, NQuads:
		return readNQuads(r)
	case JSONLD:
		return readJSONLD(r)
	default:
		return nil, fmt.Errorf("%w: cannot read %s", ErrUnsupported, f)
	}
}

// Write encodes quads to w in format f.
func Write(w io.Writer, quads []quad.Quad, f Format, opts Options) error {
	switch f {
	case Turtle:
		return writeTurtle(w, quads, opts)
	case NTriples, NQuads:
		return writeNQuads(w, quads)
	case JSONLD:
		return writeJSONLD(w, quads, opts)
	default:
		return fmt.Errorf("%w: cannot write %s", ErrUnsupported, f)
	}
}
