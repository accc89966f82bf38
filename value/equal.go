package value

import "math"

// Equal reports structural equality. Arrays compare in order, objects
// compare as key sets. Numbers are equal when they compare equal or are
// both NaN, so 0 and -0 are equal; Number and Int64 never are.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Null:
		return true
	case Bool:
		return x == b.(Bool)
	case Number:
		y := b.(Number)
		return x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y)))
	case Int64:
		return x == b.(Int64)
	case String:
		return x == b.(String)
	case Array:
		y := b.(Array)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		xs, ys := x.Sorted(), b.(Object).Sorted()
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if xs[i].Key != ys[i].Key || !Equal(xs[i].Value, ys[i].Value) {
				return false
			}
		}
		return true
	case Left:
		return Equal(x.Value, b.(Left).Value)
	case Right:
		return Equal(x.Value, b.(Right).Value)
	}
	return false
}
