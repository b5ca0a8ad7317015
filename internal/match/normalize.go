package match

import (
	"strings"
	"unicode"
)

// Normalize folds case and drops the separators people vary in keys, so
// "predicate_objects", "predicateObjects" and "PredicateObjects" compare equal.
func Normalize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
