// Package prefix resolves prefixed names and relative IRIs to absolute IRIs
// and contracts absolute IRIs back to prefixed names.
//
// A Table is an ordered set of label → namespace bindings. Declaration order
// matters: when two namespaces of equal length match an IRI, the label
// declared first wins.
package prefix
