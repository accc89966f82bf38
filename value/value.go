package value

import (
	"math"
	"sort"
)

// Kind identifies a Value case.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindInt64
	KindString
	KindArray
	KindObject
	KindLeft
	KindRight
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindNumber: "number",
	KindInt64:  "int64",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
	KindLeft:   "left",
	KindRight:  "right",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is one of Null, Bool, Number, Int64, String, Array, Object, Left
// or Right. The set is closed: only types in this package implement it.
type Value interface {
	Kind() Kind
	sealed()
}

// Null is the null atom.
type Null struct{}

// Bool is the false or true atom.
type Bool bool

// Number is an IEEE-754 double. NaN and infinity bit patterns are kept
// as they are.
type Number float64

// Int64 is a signed 64-bit integer. Only the extended format can encode it.
type Int64 int64

// String holds raw bytes, normally UTF-8. Length is explicit, so NUL bytes
// are allowed.
type String string

// Array is an ordered sequence. Order is significant.
type Array []Value

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a set of members with distinct keys. Member order carries no
// meaning.
type Object []Member

// Left is the first case of the Either sum type.
type Left struct {
	Value Value
}

// Right is the second case of the Either sum type.
type Right struct {
	Value Value
}

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Number) Kind() Kind { return KindNumber }
func (Int64) Kind() Kind  { return KindInt64 }
func (String) Kind() Kind { return KindString }
func (Array) Kind() Kind  { return KindArray }
func (Object) Kind() Kind { return KindObject }
func (Left) Kind() Kind   { return KindLeft }
func (Right) Kind() Kind  { return KindRight }

func (Null) sealed()   {}
func (Bool) sealed()   {}
func (Number) sealed() {}
func (Int64) sealed()  {}
func (String) sealed() {}
func (Array) sealed()  {}
func (Object) sealed() {}
func (Left) sealed()   {}
func (Right) sealed()  {}

// Shared atoms.
var (
	NullValue  Value = Null{}
	FalseValue Value = Bool(false)
	TrueValue  Value = Bool(true)
)

// NewObject builds an object from members. When a key repeats, the last
// member wins and takes the position of the first occurrence.
func NewObject(members ...Member) Object {
	obj := make(Object, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := index[m.Key]; ok {
			obj[i].Value = m.Value
			continue
		}
		index[m.Key] = len(obj)
		obj = append(obj, m)
	}
	return obj
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].Key == key {
			return o[i].Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in member order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Sorted returns a copy ordered by byte-wise key comparison. Duplicate keys
// collapse to their last occurrence.
func (o Object) Sorted() Object {
	out := make(Object, len(o))
	copy(out, o)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })

	// Keep the last member of each run of equal keys.
	n := 0
	for i := range out {
		if i+1 < len(out) && out[i+1].Key == out[i].Key {
			continue
		}
		out[n] = out[i]
		n++
	}
	return out[:n]
}

// IsNaN reports whether n is any NaN bit pattern.
func (n Number) IsNaN() bool {
	return math.IsNaN(float64(n))
}
