// Package diagnostic provides the structured errors and warnings reported by
// the YARRRML compiler in both directions.
//
// Every problem is a Diagnostic carrying:
//   - a Kind (parse, semantic, unsupported in R2RML, decompile, unresolvable prefix)
//   - a stable snake_case Code
//   - the source location: YAML line/column, mapping identifier and path
//   - optional "did you mean" suggestions
//
// Diagnostics are collected in a Diagnostics value and turned into a Go error
// with Err. Callers classify errors with errors.Is against the Err* sentinels
// or with CodeOf.
package diagnostic
