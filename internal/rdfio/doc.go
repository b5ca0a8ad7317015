// Package rdfio reads and writes the RDF syntaxes the command line tool
// accepts: N-Triples and N-Quads through the cayley codec, JSON-LD through
// json-gold, Turtle input through knakk/rdf, and a Turtle writer that
// abbreviates with a prefix table.
package rdfio
