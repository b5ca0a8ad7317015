// Package compiler exposes the two directions of the YARRRML compiler.
//
// Forward, a decoded YARRRML node tree is parsed into a mapping document
// and emitted as RML or R2RML triples. Reverse, an RML or R2RML triple set
// is grouped back into a document and written as YARRRML text.
//
// Every entry point takes an explicit Config; nothing is shared between
// calls, so compilations may run concurrently.
package compiler
