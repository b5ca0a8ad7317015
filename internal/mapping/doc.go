// Package mapping is the in-memory model shared by both compilation
// directions: the YARRRML shorthand parser builds it, the RML/R2RML emitter
// and the shorthand emitter read it, and the triple decompiler rebuilds it.
//
// # Model Overview
//
//	Document
//	  BaseIRI, Prefixes, Dialect
//	  TriplesMaps (ordered, looked up by ID)
//	    Source       LogicalSource (opaque pass-through)
//	    Subject      SubjectMap = TermMap + Classes + Graphs
//	    PredicateObjects
//	      Predicates []TermMap
//	      Objects    []TermMap
//	      Graphs     []TermMap
//
// Every TermMap carries exactly one Value:
//
//	Constant     a fixed RDF term
//	Reference    a field of the logical source
//	Template     a string with {field} substitutions
//	FunctionMap  an FnO function call (RML only)
//	Join         a reference to another triples map (object position only)
//
// Joins name their parent by ID and are resolved through the Document, so
// the model never holds pointers between triples maps.
//
// # Lifecycle
//
// A Document is built once, frozen, and only read afterwards.
package mapping
