// Package yarrrml reads and writes the YARRRML shorthand.
//
// Parse turns a decoded YAML tree into a mapping.Document, reporting every
// problem with the line and column of the offending node. Marshal writes a
// document back as minimal shorthand.
//
// # Shorthand Overview
//
//	prefixes:
//	  ex: http://ex.org/
//	base: http://example.com/
//	sources:
//	  people: [people.json~jsonpath, "$.persons[*]"]
//	mappings:
//	  person:
//	    sources: people
//	    subject: ex:person/{id}
//	    class: ex:Person
//	    predicate:
//	      ex:name: $name
//	      ex:knows:
//	        mapping: person
//	        condition: {child: friend, parent: id}
//
// A scalar term is classified by its markers: "$name" or "$(name)" is a
// reference, "{name}" or an embedded "$(name)" makes a template, anything
// else is a constant. A scalar carrying both kinds of marker is rejected.
// Suffixes "~iri", "~literal" and "~blanknode" set the term type.
package yarrrml
