package codec

import (
	"github.com/wippyai/wasm-ejson/value"
)

// Shorthand keys. A single-member object with one of these keys is written
// as an Either record instead of an object.
const (
	LeftKey  = "left"
	RightKey = "right"
)

// Canonicalize returns the members of o in byte-wise key order with
// duplicate keys resolved last-write-wins. o is not modified.
func Canonicalize(o value.Object) value.Object {
	return o.Sorted()
}

// Shorthand reports whether o collapses to Left or Right and returns the
// collapsed value. The collapse is lossy: {"left": v} written by a caller
// who meant a one-field record reads back as Left(v).
func Shorthand(o value.Object) (value.Value, bool) {
	c := Canonicalize(o)
	if len(c) != 1 {
		return nil, false
	}
	switch c[0].Key {
	case LeftKey:
		return value.Left{Value: c[0].Value}, true
	case RightKey:
		return value.Right{Value: c[0].Value}, true
	}
	return nil, false
}
