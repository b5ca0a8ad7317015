package rdfio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"

	"yarrrml-compiler/internal/prefix"
)

var (
	errNamedGraph = errors.New("turtle cannot hold quads with a graph label")
	rdfType       = quad.IRI(rdf.Type).Full()
)

const turtleIndent = "    "

// turtleWriter renders terms and remembers which prefixes it used, so the
// header declares only those.
type turtleWriter struct {
	table *prefix.Table
	used  map[string]bool
}

// statement groups the triples of one subject in input order.
type statement struct {
	subject    quad.Value
	predicates []quad.Value
	objects    map[string][]quad.Value
}

func writeTurtle(w io.Writer, quads []quad.Quad, opts Options) error {
	table := opts.Prefixes.Clone()
	if opts.BaseIRI != "" {
		if _, bound := table.Lookup(""); !bound {
			table.Set("", opts.BaseIRI)
		}
	}

	tw := &turtleWriter{table: table, used: map[string]bool{}}

	statements, err := groupStatements(quads)
	if err != nil {
		return err
	}

	var body strings.Builder

	for i, st := range statements {
		if i > 0 {
			body.WriteString("\n")
		}

		tw.statement(&body, st)
	}

	bw := bufio.NewWriter(w)

	for _, label := range table.Labels() {
		if !tw.used[label] {
			continue
		}

		ns, _ := table.Lookup(label)
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", label, escapeIRI(ns))
	}

	if len(tw.used) > 0 && len(statements) > 0 {
		bw.WriteString("\n")
	}

	bw.WriteString(body.String())

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing Turtle: %w", err)
	}

	return nil
}

func groupStatements(quads []quad.Quad) ([]*statement, error) {
	var out []*statement

	bySubject := map[string]*statement{}

	for _, q := range quads {
		if q.Label != nil {
			return nil, fmt.Errorf("writing Turtle: %w: %s", errNamedGraph, q.String())
		}

		sk := q.Subject.String()

		st, ok := bySubject[sk]
		if !ok {
			st = &statement{subject: q.Subject, objects: map[string][]quad.Value{}}
			bySubject[sk] = st
			out = append(out, st)
		}

		pk := q.Predicate.String()
		if _, seen := st.objects[pk]; !seen {
			st.predicates = append(st.predicates, q.Predicate)
		}

		st.objects[pk] = append(st.objects[pk], q.Object)
	}

	return out, nil
}

func (tw *turtleWriter) statement(b *strings.Builder, st *statement) {
	b.WriteString(tw.term(st.subject))

	for i, p := range st.predicates {
		if i > 0 {
			b.WriteString(" ;\n" + turtleIndent)
		} else {
			b.WriteString(" ")
		}

		b.WriteString(tw.predicate(p))
		b.WriteString(" ")

		for j, o := range st.objects[p.String()] {
			if j > 0 {
				b.WriteString(", ")
			}

			b.WriteString(tw.term(o))
		}
	}

	b.WriteString(" .\n")
}

func (tw *turtleWriter) predicate(p quad.Value) string {
	if iri, ok := p.(quad.IRI); ok && iri.Full() == rdfType {
		return "a"
	}

	return tw.term(p)
}

func (tw *turtleWriter) term(v quad.Value) string {
	switch v := v.(type) {
	case quad.IRI:
		return tw.iri(string(v.Full()))
	case quad.BNode:
		return "_:" + string(v)
	case quad.String:
		return quoteLiteral(string(v))
	case quad.LangString:
		return quoteLiteral(string(v.Value)) + "@" + v.Lang
	case quad.TypedString:
		return quoteLiteral(string(v.Value)) + "^^" + tw.iri(string(v.Type.Full()))
	case quad.TypedStringer:
		return tw.term(v.TypedString())
	default:
		return quoteLiteral(quad.StringOf(v))
	}
}

func (tw *turtleWriter) iri(iri string) string {
	if compact, label, ok := tw.table.Contract(iri); ok {
		tw.used[label] = true
		return compact
	}

	return "<" + escapeIRI(iri) + ">"
}

func quoteLiteral(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// escapeIRI escapes the characters Turtle forbids inside <...>.
func escapeIRI(iri string) string {
	var b strings.Builder

	for _, r := range iri {
		if r <= 0x20 || strings.ContainsRune(`<>"{}|^`+"`\\", r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
