package cmp

// MapEq returns true when two maps have the same key set and
// equal values for each key.
func MapEq[K comparable, V comparable](a, b map[K]V) bool {
	return MapEqWith(a, b, func(a, b V) bool { return a == b })
}

// MapEqWith is MapEq, but values are compared with eq.
func MapEqWith[K comparable, V any, W any](a map[K]V, b map[K]W, eq func(V, W) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			return false
		}
		if !eq(va, vb) {
			return false
		}
	}
	return true
}
