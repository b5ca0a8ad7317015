package utils

// Unpack2 returns the first two elements of s, zero-filling the missing ones.
func Unpack2[Slice ~[]T, T any](s Slice) (first T, second T) {
	switch len(s) {
	default:
		return s[0], s[1]
	case 0:
		return
	case 1:
		first = s[0]
		return
	}
}

// Unpack3 returns the first three elements of s, zero-filling the missing ones.
func Unpack3[Slice ~[]T, T any](s Slice) (first, second, third T) {
	first, second = Unpack2(s)
	if len(s) > 2 {
		third = s[2]
	}

	return
}
