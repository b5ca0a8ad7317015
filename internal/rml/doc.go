// Package rml converts mapping documents to RML or R2RML triples and back.
//
// Emit produces a deterministic triple sequence: triples maps in document
// order, each as logical source, subject map, then predicate-object maps.
// Map nodes are blank nodes labelled b0, b1, ... in emission order.
//
// Decompile groups an unordered triple set back into a document. Every input
// triple must be consumed by a recognised RML/R2RML shape; anything left over
// fails the whole decompilation.
package rml
