package yarrrml

import (
	"gopkg.in/yaml.v3"
)

// deref follows alias nodes.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}

	return n
}

// documentBody unwraps a document node to its top-level value.
func documentBody(root *yaml.Node) *yaml.Node {
	body := deref(root)
	if body != nil && body.Kind == yaml.DocumentNode {
		if len(body.Content) == 0 {
			return nil
		}

		return deref(body.Content[0])
	}

	return body
}

// isNull reports whether n is absent, empty input or an explicit YAML null.
func isNull(n *yaml.Node) bool {
	n = deref(n)
	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// pair is one key/value entry of a mapping node.
type pair struct {
	Key   *yaml.Node
	Value *yaml.Node
}

// pairs returns the entries of a mapping node in document order.
func pairs(n *yaml.Node) []pair {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}

	out := make([]pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, pair{Key: deref(n.Content[i]), Value: deref(n.Content[i+1])})
	}

	return out
}

// items returns the elements of a sequence node, or n itself for any other node.
func items(n *yaml.Node) []*yaml.Node {
	n = deref(n)
	if n == nil {
		return nil
	}

	if n.Kind != yaml.SequenceNode {
		return []*yaml.Node{n}
	}

	out := make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		out[i] = deref(c)
	}

	return out
}

func isScalar(n *yaml.Node) bool {
	n = deref(n)
	return n != nil && n.Kind == yaml.ScalarNode
}

func isMapping(n *yaml.Node) bool {
	n = deref(n)
	return n != nil && n.Kind == yaml.MappingNode
}

func isSequence(n *yaml.Node) bool {
	n = deref(n)
	return n != nil && n.Kind == yaml.SequenceNode
}

func kindName(n *yaml.Node) string {
	switch deref(n).Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.DocumentNode:
		return "document"
	default:
		return "node"
	}
}

// scalarNode builds a plain string scalar.
func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// mappingNode builds a block mapping from key/value pairs.
func mappingNode(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv}
}

// flowSeq builds a flow-style sequence.
func flowSeq(elems ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle, Content: elems}
}

// blockSeq builds a block-style sequence.
func blockSeq(elems ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: elems}
}
