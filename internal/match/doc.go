// Package match finds near misses among names, so diagnostics can say
// "did you mean" for mistyped keys, prefixes and source names.
package match
