package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/arena"
	ejerrors "github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/value"
)

func newArena() *arena.Arena {
	return arena.New(arena.Options{InitialCapacity: 256, Growth: arena.GrowthDouble})
}

func words(t *testing.T, a *arena.Arena, addr wasmejson.Address, n int) []uint32 {
	t.Helper()
	out := make([]uint32, n)
	for i := range out {
		w, err := a.ReadU32(addr + uint32(4*i))
		if err != nil {
			t.Fatalf("ReadU32(%d): %v", addr+uint32(4*i), err)
		}
		out[i] = w
	}
	return out
}

func TestEncode_Null(t *testing.T) {
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.Null{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a.Cursor()-addr != 4 {
		t.Errorf("record size = %d, want 4", a.Cursor()-addr)
	}
	if tag := words(t, a, addr, 1)[0]; tag != TagNull {
		t.Errorf("tag = %d, want 0", tag)
	}

	v, err := NewDecoder(a, FormatExtended).Decode(addr)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := v.(value.Null); !ok {
		t.Errorf("decoded %s, want null", value.Render(v))
	}
}

func TestEncode_Number(t *testing.T) {
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.Number(3.14))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a.Cursor()-addr != 12 {
		t.Errorf("record size = %d, want 12", a.Cursor()-addr)
	}
	if tag := words(t, a, addr, 1)[0]; tag != TagNumber {
		t.Errorf("tag = %d, want 3", tag)
	}
	bits, err := a.ReadU64(addr + 4)
	if err != nil || bits != math.Float64bits(3.14) {
		t.Errorf("payload = %x, want %x", bits, math.Float64bits(3.14))
	}

	v, err := NewDecoder(a, FormatExtended).Decode(addr)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n, ok := v.(value.Number); !ok || math.Float64bits(float64(n)) != math.Float64bits(3.14) {
		t.Errorf("decoded %s, want 3.14", value.Render(v))
	}
}

func TestEncode_String(t *testing.T) {
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.String("abc"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	raw, err := a.Read(addr, 11)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []byte{4, 0, 0, 0, 3, 0, 0, 0, 0x61, 0x62, 0x63}
	if !bytes.Equal(raw, want) {
		t.Errorf("bytes = %x, want %x", raw, want)
	}
	if a.Cursor() != addr+11 {
		t.Errorf("cursor = %d, want %d", a.Cursor(), addr+11)
	}

	v, _ := NewDecoder(a, FormatExtended).Decode(addr)
	if v != value.String("abc") {
		t.Errorf("decoded %s", value.Render(v))
	}
}

func TestEncode_ArrayChildrenFirst(t *testing.T) {
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.Array{value.Number(1), value.Number(2), value.Number(3)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if addr != 36 {
		t.Fatalf("array address = %d, want 36 after three numbers", addr)
	}
	for i, want := range []float64{1, 2, 3} {
		bits, _ := a.ReadU64(uint32(12*i) + 4)
		if math.Float64frombits(bits) != want {
			t.Errorf("element %d = %v, want %v", i, math.Float64frombits(bits), want)
		}
	}
	if diff := cmp.Diff([]uint32{TagArray, 3, 0, 12, 24}, words(t, a, addr, 5)); diff != "" {
		t.Errorf("array header mismatch (-want +got):\n%s", diff)
	}

	v, _ := NewDecoder(a, FormatExtended).Decode(addr)
	want := value.Array{value.Number(1), value.Number(2), value.Number(3)}
	if !value.Equal(want, v) {
		t.Errorf("decoded %s", value.Render(v))
	}
}

func TestEncode_ObjectKeyOrder(t *testing.T) {
	first := newArena()
	second := newArena()

	a1, err := NewEncoder(first, FormatExtended).Encode(value.Object{
		{Key: "b", Value: value.Number(1)},
		{Key: "a", Value: value.Number(2)},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	a2, err := NewEncoder(second, FormatExtended).Encode(value.Object{
		{Key: "a", Value: value.Number(2)},
		{Key: "b", Value: value.Number(1)},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// key "a" (9 bytes) at 0, 2 at 9, key "b" at 21, 1 at 30, header at 42
	if a1 != 42 || a2 != 42 {
		t.Fatalf("object addresses = %d, %d, want 42", a1, a2)
	}
	if diff := cmp.Diff([]uint32{TagObject, 2, 0, 9, 21, 30}, words(t, first, a1, 6)); diff != "" {
		t.Errorf("object header mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(first.Snapshot(), second.Snapshot()) {
		t.Error("member order changed the encoding")
	}

	v, _ := NewDecoder(first, FormatExtended).Decode(a1)
	obj := v.(value.Object)
	if obj.Keys()[0] != "a" || obj.Keys()[1] != "b" {
		t.Errorf("decoded keys %v, want [a b]", obj.Keys())
	}
}

func TestEncode_ObjectKeysByteOrder(t *testing.T) {
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.Object{
		{Key: "é", Value: value.Null{}},
		{Key: "z", Value: value.Null{}},
		{Key: "Z", Value: value.Null{}},
		{Key: "", Value: value.Null{}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	v, _ := NewDecoder(a, FormatExtended).Decode(addr)
	got := v.(value.Object).Keys()
	if diff := cmp.Diff([]string{"", "Z", "z", "é"}, got); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_DuplicateKeysLastWins(t *testing.T) {
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.Object{
		{Key: "k", Value: value.Number(1)},
		{Key: "j", Value: value.Null{}},
		{Key: "k", Value: value.Number(2)},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	v, _ := NewDecoder(a, FormatExtended).Decode(addr)
	want := value.Object{{Key: "j", Value: value.Null{}}, {Key: "k", Value: value.Number(2)}}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
}

// The shorthand is lossy: a one-field record named left or right cannot be
// told apart from an Either once encoded.
func TestEncode_ShorthandCollapse(t *testing.T) {
	tests := []struct {
		name string
		in   value.Value
		want value.Value
	}{
		{"left number", value.Object{{Key: "left", Value: value.Number(5)}}, value.Left{Value: value.Number(5)}},
		{"right null", value.Object{{Key: "right", Value: value.Null{}}}, value.Right{Value: value.Null{}}},
		{"nested", value.Array{value.Object{{Key: "left", Value: value.Object{{Key: "right", Value: value.TrueValue}}}}},
			value.Array{value.Left{Value: value.Right{Value: value.TrueValue}}}},
		{"duplicate left", value.Object{{Key: "left", Value: value.Number(1)}, {Key: "left", Value: value.Number(2)}},
			value.Left{Value: value.Number(2)}},
		{"two keys", value.Object{{Key: "left", Value: value.Null{}}, {Key: "right", Value: value.Null{}}},
			value.Object{{Key: "left", Value: value.Null{}}, {Key: "right", Value: value.Null{}}}},
		{"case sensitive", value.Object{{Key: "Left", Value: value.Null{}}}, value.Object{{Key: "Left", Value: value.Null{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArena()
			addr, err := NewEncoder(a, FormatExtended).Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := NewDecoder(a, FormatExtended).Decode(addr)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !value.Equal(tt.want, got) {
				t.Errorf("decoded %s, want %s", value.Render(got), value.Render(tt.want))
			}
		})
	}
}

func TestEncode_ShorthandMatchesEither(t *testing.T) {
	fromObject := newArena()
	fromEither := newArena()

	if _, err := NewEncoder(fromObject, FormatExtended).Encode(value.Object{{Key: "left", Value: value.Number(5)}}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEncoder(fromEither, FormatExtended).Encode(value.Left{Value: value.Number(5)}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(fromObject.Snapshot(), fromEither.Snapshot()) {
		t.Error("shorthand object and Left encode differently")
	}
	if got := words(t, fromEither, 12, 2); got[0] != TagLeft || got[1] != 0 {
		t.Errorf("left record = %v, want [7 0]", got)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"null", value.Null{}},
		{"false", value.FalseValue},
		{"true", value.TrueValue},
		{"zero", value.Number(0)},
		{"negative zero", value.Number(math.Copysign(0, -1))},
		{"inf", value.Number(math.Inf(-1))},
		{"max float", value.Number(math.MaxFloat64)},
		{"int64 min", value.Int64(math.MinInt64)},
		{"int64 max", value.Int64(math.MaxInt64)},
		{"empty string", value.String("")},
		{"unicode", value.String("héllo, 世界")},
		{"raw bytes", value.String("\xff\x00\xfe")},
		{"empty array", value.Array{}},
		{"empty object", value.Object{}},
		{"nested", value.Array{
			value.Object{
				{Key: "a", Value: value.Array{value.Null{}, value.Number(1.5)}},
				{Key: "b", Value: value.Object{{Key: "c", Value: value.String("d")}}},
			},
			value.Left{Value: value.Array{}},
			value.Right{Value: value.Left{Value: value.FalseValue}},
		}},
		{"one field record", value.Object{{Key: "name", Value: value.String("x")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArena()
			addr, err := NewEncoder(a, FormatExtended).Encode(tt.v)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := NewDecoder(a, FormatExtended).Decode(addr)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !value.Equal(tt.v, got) {
				t.Errorf("round trip = %s, want %s", value.Render(got), value.Render(tt.v))
			}
			// Equal treats 0 and -0 alike; numbers must keep every bit.
			if n, ok := tt.v.(value.Number); ok {
				g, ok := got.(value.Number)
				if !ok || math.Float64bits(float64(g)) != math.Float64bits(float64(n)) {
					t.Errorf("round trip bits = %#v, want %x", got, math.Float64bits(float64(n)))
				}
			}
		})
	}
}

func TestEncode_NaNBitsPreserved(t *testing.T) {
	nan := math.Float64frombits(0x7ff8dead_beef0001)
	a := newArena()
	addr, err := NewEncoder(a, FormatExtended).Encode(value.Number(nan))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	v, _ := NewDecoder(a, FormatExtended).Decode(addr)
	if bits := math.Float64bits(float64(v.(value.Number))); bits != 0x7ff8dead_beef0001 {
		t.Errorf("NaN bits = %x", bits)
	}
}

func TestEncode_ArrayOrderSensitive(t *testing.T) {
	a := newArena()
	enc := NewEncoder(a, FormatExtended)
	dec := NewDecoder(a, FormatExtended)

	x, _ := enc.Encode(value.Array{value.Number(1), value.String("b")})
	y, _ := enc.Encode(value.Array{value.String("b"), value.Number(1)})

	vx, _ := dec.Decode(x)
	vy, _ := dec.Decode(y)
	if value.Equal(vx, vy) {
		t.Errorf("%s and %s decoded equal", value.Render(vx), value.Render(vy))
	}
}

func TestEncode_CursorAdvancesByRecordSize(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want uint64
	}{
		{"null", value.Null{}, 4},
		{"true", value.TrueValue, 4},
		{"number", value.Number(1), 12},
		{"int64", value.Int64(1), 12},
		{"string", value.String("hello"), 13},
		{"array", value.Array{value.Null{}, value.Null{}}, 4 + 4 + 8 + 8},
		{"object", value.Object{{Key: "ab", Value: value.Null{}}}, 10 + 4 + 16},
		{"left", value.Left{Value: value.Null{}}, 4 + 8},
		{"shorthand", value.Object{{Key: "right", Value: value.Number(0)}}, 12 + 8},
	}

	a := newArena()
	enc := NewEncoder(a, FormatExtended)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := enc.Size(tt.v)
			if err != nil {
				t.Fatalf("Size: %v", err)
			}
			if size != tt.want {
				t.Errorf("Size = %d, want %d", size, tt.want)
			}

			before := a.Cursor()
			addr, err := enc.Encode(tt.v)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got := uint64(a.Cursor() - before); got != tt.want {
				t.Errorf("cursor advanced %d, want %d", got, tt.want)
			}
			rs, err := RecordSize(a, FormatExtended, addr)
			if err != nil {
				t.Fatalf("RecordSize: %v", err)
			}
			if a.Cursor()-addr != rs {
				t.Errorf("root record is not last: size %d, tail %d", rs, a.Cursor()-addr)
			}
		})
	}
}

func TestEncode_UnsupportedLeavesArenaUntouched(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		v      value.Value
		path   string
	}{
		{"nil", FormatExtended, nil, ""},
		{"pointer value", FormatExtended, &value.Null{}, ""},
		{"nil element", FormatExtended, value.Array{value.Number(1), nil}, "[1]"},
		{"nil member", FormatExtended, value.Object{{Key: "a", Value: value.Array{nil}}}, "a[0]"},
		{"nil in left", FormatExtended, value.Left{}, "left"},
		{"int64 in baseline", FormatBaseline, value.Array{value.Int64(1)}, "[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newArena()
			_, err := NewEncoder(a, tt.format).Encode(tt.v)
			if !errors.Is(err, ejerrors.ErrUnsupportedType) {
				t.Fatalf("err = %v, want unsupported type", err)
			}
			var e *ejerrors.Error
			if errors.As(err, &e) {
				if got := ejerrors.FormatPath(e.Path); got != tt.path {
					t.Errorf("path = %q, want %q", got, tt.path)
				}
			}
			if a.Cursor() != 0 {
				t.Errorf("cursor moved to %d", a.Cursor())
			}
		})
	}
}

func TestEncode_OverflowLeavesArenaUntouched(t *testing.T) {
	a := arena.New(arena.Options{InitialCapacity: 32, Growth: arena.GrowthFixed})
	enc := NewEncoder(a, FormatExtended)

	first, err := enc.Encode(value.Number(1))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err = enc.Encode(value.Array{value.Number(2), value.Number(3)})
	if !errors.Is(err, ejerrors.ErrArenaOverflow) {
		t.Fatalf("err = %v, want arena overflow", err)
	}
	if a.Cursor() != 12 {
		t.Errorf("cursor = %d, want 12", a.Cursor())
	}

	v, err := NewDecoder(a, FormatExtended).Decode(first)
	if err != nil || v != value.Number(1) {
		t.Errorf("earlier record damaged: %v, %v", v, err)
	}
}

func TestEncodeAll(t *testing.T) {
	a := newArena()
	enc := NewEncoder(a, FormatBaseline)

	addrs, err := enc.EncodeAll(value.Null{}, value.Number(1))
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	if diff := cmp.Diff([]wasmejson.Address{0, 4}, addrs); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}

	addrs, err = enc.EncodeAll(value.TrueValue, value.Int64(2), value.Null{})
	if !errors.Is(err, ejerrors.ErrUnsupportedType) {
		t.Fatalf("err = %v, want unsupported type", err)
	}
	if len(addrs) != 1 {
		t.Errorf("got %d addresses before failure, want 1", len(addrs))
	}
}

func TestCanonicalize(t *testing.T) {
	in := value.Object{
		{Key: "b", Value: value.Null{}},
		{Key: "a", Value: value.Number(1)},
		{Key: "a", Value: value.Number(2)},
	}
	got := Canonicalize(in)
	want := value.Object{{Key: "a", Value: value.Number(2)}, {Key: "b", Value: value.Null{}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Canonicalize mismatch (-want +got):\n%s", diff)
	}
	if in[0].Key != "b" {
		t.Error("Canonicalize modified its input")
	}
}

func TestShorthand(t *testing.T) {
	if v, ok := Shorthand(value.Object{{Key: "left", Value: value.Null{}}}); !ok || !value.Equal(v, value.Left{Value: value.Null{}}) {
		t.Errorf("Shorthand(left) = %v, %v", v, ok)
	}
	if _, ok := Shorthand(value.Object{}); ok {
		t.Error("empty object collapsed")
	}
	if _, ok := Shorthand(value.Object{{Key: "lefty", Value: value.Null{}}}); ok {
		t.Error("non-shorthand key collapsed")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatExtended, false},
		{"extended", FormatExtended, false},
		{"Baseline", FormatBaseline, false},
		{"compact", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if FormatBaseline.Allows(TagInt64) || !FormatExtended.Allows(TagInt64) {
		t.Error("Int64 tag membership is wrong")
	}
}
