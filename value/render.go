package value

import (
	"strconv"
	"strings"
)

// Render returns the canonical text form of v, used as a comparison oracle
// in tests and by the command line tool:
//
//	null  false  true  number(3.14)  int64(-7)  string("a")
//	array(number(1),null)  object("a":null,"b":true)  left(null)  right(true)
//
// Object members are rendered in sorted key order, so equal objects render
// identically.
func Render(v Value) string {
	var b strings.Builder
	render(&b, v)
	return b.String()
}

func render(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil:
		b.WriteString("<nil>")
	case Null:
		b.WriteString("null")
	case Bool:
		if x {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Number:
		b.WriteString("number(")
		b.WriteString(strconv.FormatFloat(float64(x), 'g', -1, 64))
		b.WriteByte(')')
	case Int64:
		b.WriteString("int64(")
		b.WriteString(strconv.FormatInt(int64(x), 10))
		b.WriteByte(')')
	case String:
		b.WriteString("string(")
		b.WriteString(strconv.Quote(string(x)))
		b.WriteByte(')')
	case Array:
		b.WriteString("array(")
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			render(b, e)
		}
		b.WriteByte(')')
	case Object:
		b.WriteString("object(")
		for i, m := range x.Sorted() {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(m.Key))
			b.WriteByte(':')
			render(b, m.Value)
		}
		b.WriteByte(')')
	case Left:
		b.WriteString("left(")
		render(b, x.Value)
		b.WriteByte(')')
	case Right:
		b.WriteString("right(")
		render(b, x.Value)
		b.WriteByte(')')
	}
}

func (n Null) String() string   { return Render(n) }
func (b Bool) String() string   { return Render(b) }
func (n Number) String() string { return Render(n) }
func (i Int64) String() string  { return Render(i) }
func (a Array) String() string  { return Render(a) }
func (o Object) String() string { return Render(o) }
func (l Left) String() string   { return Render(l) }
func (r Right) String() string  { return Render(r) }
