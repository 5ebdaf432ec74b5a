package cmp

// SliceEq returns true when two slices have the same length and
// equal elements in the same order.
func SliceEq[T comparable](a, b []T) bool {
	return SliceEqWith(a, b, func(a, b T) bool { return a == b })
}

// SliceEqWith is SliceEq, but elements are compared with eq.
func SliceEqWith[T any, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for nth := range a {
		if !eq(a[nth], b[nth]) {
			return false
		}
	}
	return true
}

// SliceContentEq returns true when two slices hold the same elements,
// ignoring order. Duplicated elements are counted.
func SliceContentEq[T comparable](a, b []T) bool {
	return SliceContentEqWith(a, b, func(a, b T) bool { return a == b })
}

// SliceContentEqWith is SliceContentEq, but elements are compared with eq.
func SliceContentEqWith[T any, U any](a []T, b []U, eq func(T, U) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
match:
	for _, va := range a {
		for nth, vb := range b {
			if used[nth] {
				continue
			}
			if eq(va, vb) {
				used[nth] = true
				continue match
			}
		}
		return false
	}
	return true
}

// SliceContains returns true when haystack contains needle as a
// contiguous subsequence.
func SliceContains[T comparable](haystack []T, needle []T) bool {
	if len(needle) == 0 {
		return true
	}
	if len(haystack) < len(needle) {
		return false
	}
	for offset := 0; offset <= len(haystack)-len(needle); offset++ {
		if SliceEq(haystack[offset:offset+len(needle)], needle) {
			return true
		}
	}
	return false
}
