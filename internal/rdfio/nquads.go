package rdfio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"
)

// readNQuads keeps literals raw so values round-trip with their lexical form.
func readNQuads(r io.Reader) ([]quad.Quad, error) {
	qr := nquads.NewReader(r, true)

	var out []quad.Quad

	for {
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return nil, fmt.Errorf("reading N-Quads: %w", err)
		}

		out = append(out, q)
	}
}

func writeNQuads(w io.Writer, quads []quad.Quad) error {
	qw := nquads.NewWriter(w)

	for _, q := range quads {
		if err := qw.WriteQuad(q); err != nil {
			return fmt.Errorf("writing N-Quads: %w", err)
		}
	}

	if err := qw.Close(); err != nil {
		return fmt.Errorf("writing N-Quads: %w", err)
	}

	return nil
}
