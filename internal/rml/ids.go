package rml

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cayleygraph/quad"

	"yarrrml-compiler/internal/mapping"
)

// syntheticLabel matches blank node labels produced by RDF tooling.
var syntheticLabel = regexp.MustCompile(`^(b|n|g|genid|node|blank)[-_]?[0-9]+$|^[0-9a-f]{8,}$`)

// namespaceOf returns iri up to and including its last '#' or '/'.
func namespaceOf(iri string) string {
	i := strings.LastIndexAny(iri, "#/")
	if i < 0 {
		return ""
	}

	return iri[:i+1]
}

// inferBase returns the longest namespace shared by every IRI anchor, so
// each anchor IRI is base+id. It returns "" when the shared part stops
// short of an authority, or there are no IRI anchors.
func inferBase(anchors []quad.Value) string {
	base, found := "", false

	for _, a := range anchors {
		i, ok := a.(quad.IRI)
		if !ok {
			continue
		}

		ns := namespaceOf(string(i))
		if !found {
			base, found = ns, true
			continue
		}

		base = namespaceOf(commonPrefix(base, ns))
	}

	_, rest, ok := strings.Cut(base, "://")
	if !ok || rest == "" || rest[0] == '/' {
		return ""
	}

	return base
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}

	return a[:n]
}

// assignIDs names each anchor. IRIs under base keep their local part and
// readable blank node labels are kept; everything else is numbered map_N
// in anchor order.
func assignIDs(anchors []quad.Value, base string) []string {
	ids := make([]string, len(anchors))
	taken := map[string]bool{}

	for i, a := range anchors {
		id := readableID(a, base)
		if id != "" && !taken[id] {
			ids[i] = id
			taken[id] = true
		}
	}

	for i := range anchors {
		if ids[i] != "" {
			continue
		}

		n := i + 1
		for {
			id := "map_" + strconv.Itoa(n)
			if !taken[id] {
				ids[i] = id
				taken[id] = true

				break
			}

			n++
		}
	}

	return ids
}

func readableID(a quad.Value, base string) string {
	var local string

	switch v := a.(type) {
	case quad.IRI:
		s := string(v)
		if base != "" && strings.HasPrefix(s, base) {
			local = s[len(base):]
		} else {
			local = s[len(namespaceOf(s)):]
		}
	case quad.BNode:
		local = string(v)
		if syntheticLabel.MatchString(local) {
			return ""
		}
	}

	if !mapping.ValidID(local) {
		return ""
	}

	return local
}
