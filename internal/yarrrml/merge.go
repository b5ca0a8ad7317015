package yarrrml

import (
	"gopkg.in/yaml.v3"

	"yarrrml-compiler/internal/diagnostic"
)

// mergedSections are the top-level keys whose entries are concatenated.
var mergedSections = map[string]bool{"prefixes": true, "sources": true, "mappings": true}

// Merge combines several YARRRML documents into one, in input order. The
// entries of prefixes, sources and mappings are concatenated, so repeated
// mapping identifiers surface as duplicates when the result is parsed. A
// base or dialect set by more than one document must have the same value.
func Merge(roots ...*yaml.Node) (*yaml.Node, error) {
	var diags diagnostic.Diagnostics

	merged := mappingNode()
	sections := map[string]*yaml.Node{}
	settings := map[string]*yaml.Node{}

	for _, root := range roots {
		body := documentBody(root)
		if isNull(body) {
			continue
		}

		if !isMapping(body) {
			diags.Errorf(diagnostic.KindParse, diagnostic.CodeSyntax, nodeLocation(body, ""),
				"document must be a mapping, got a %s", kindName(body))

			continue
		}

		for _, kv := range pairs(body) {
			name := kv.Key.Value

			if !mergedSections[name] {
				if prev, seen := settings[name]; seen {
					if isScalar(prev) && isScalar(kv.Value) && prev.Value == kv.Value.Value {
						continue
					}

					diags.Errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, nodeLocation(kv.Key, name),
						"%s is set to different values by the merged documents", name)

					continue
				}

				settings[name] = kv.Value
				merged.Content = append(merged.Content, kv.Key, kv.Value)

				continue
			}

			section, seen := sections[name]
			if !seen {
				section = kv.Value
				if isMapping(kv.Value) || isNull(kv.Value) {
					section = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: kv.Value.Line, Column: kv.Value.Column}
					section.Content = append(section.Content, kv.Value.Content...)
				}

				sections[name] = section
				merged.Content = append(merged.Content, kv.Key, section)

				continue
			}

			switch {
			case isNull(kv.Value):
			case isMapping(section) && isMapping(kv.Value):
				section.Content = append(section.Content, kv.Value.Content...)
			default:
				diags.Errorf(diagnostic.KindParse, diagnostic.CodeInvalidValue, nodeLocation(kv.Key, name),
					"%s must be a mapping to be merged, got a %s", name, kindName(kv.Value))
			}
		}
	}

	if diags.HasErrors() {
		return nil, diags.Err()
	}

	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{merged}}, nil
}

func nodeLocation(n *yaml.Node, path string) diagnostic.Location {
	return diagnostic.Location{Line: n.Line, Column: n.Column, Path: path}
}
