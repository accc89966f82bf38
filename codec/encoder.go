package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/value"
)

// Target is the storage an Encoder writes records to. *arena.Arena
// implements it.
type Target interface {
	wasmejson.Memory
	wasmejson.Allocator
	// Reserve makes sure n more bytes can be allocated without moving the
	// cursor.
	Reserve(n uint64) error
}

// Encoder writes values as records, children before parents. Encoders
// sharing a Target must not run concurrently.
type Encoder struct {
	dst    Target
	format Format
}

// NewEncoder creates an encoder writing to dst in format f.
func NewEncoder(dst Target, f Format) *Encoder {
	return &Encoder{dst: dst, format: f}
}

// Format returns the encoder's tag domain.
func (e *Encoder) Format() Format {
	return e.format
}

// Target returns the storage the encoder writes to.
func (e *Encoder) Target() Target {
	return e.dst
}

// Encode writes v and returns the address of its top-level record.
//
// v is validated and measured first, then the whole tree is reserved in
// one step, so an unsupported type or an overflow leaves the target
// untouched.
func (e *Encoder) Encode(v value.Value) (wasmejson.Address, error) {
	norm, size, err := e.prepare(v, nil)
	if err != nil {
		return 0, err
	}
	if err := e.dst.Reserve(size); err != nil {
		return 0, err
	}
	addr, err := e.write(norm)
	if err != nil {
		return 0, err
	}
	Logger().Debug("encoded value",
		zap.Uint32("addr", addr),
		zap.Uint64("bytes", size),
		zap.Stringer("format", e.format))
	return addr, nil
}

// EncodeAll encodes each value in order. On failure the addresses of the
// values already written are returned with the error.
func (e *Encoder) EncodeAll(vs ...value.Value) ([]wasmejson.Address, error) {
	addrs := make([]wasmejson.Address, 0, len(vs))
	for i, v := range vs {
		addr, err := e.Encode(v)
		if err != nil {
			return addrs, errors.New(errors.PhaseEncode, errors.KindOf(err)).
				Path("[" + strconv.Itoa(i) + "]").
				Detail("value %d", i).
				Cause(err).
				Build()
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// Size returns the number of bytes Encode would write for v.
func (e *Encoder) Size(v value.Value) (uint64, error) {
	_, size, err := e.prepare(v, nil)
	return size, err
}

// prepare validates v, resolves object canonicalization and shorthand,
// and returns the normalized tree with its encoded size.
func (e *Encoder) prepare(v value.Value, path []string) (value.Value, uint64, error) {
	switch x := v.(type) {
	case value.Null, value.Bool:
		return x, AtomSize, nil

	case value.Number:
		return x, ScalarSize, nil

	case value.Int64:
		if e.format == FormatBaseline {
			return nil, 0, errors.New(errors.PhaseEncode, errors.KindUnsupportedType).
				Path(path...).
				GoType("value.Int64").
				Detail("int64 is not representable in %s format", e.format).
				Build()
		}
		return x, ScalarSize, nil

	case value.String:
		return x, HeaderSize + uint64(len(x)), nil

	case value.Array:
		out := make(value.Array, len(x))
		size := HeaderSize + 4*uint64(len(x))
		for i, elem := range x {
			n, s, err := e.prepare(elem, appendPath(path, "["+strconv.Itoa(i)+"]"))
			if err != nil {
				return nil, 0, err
			}
			out[i] = n
			size += s
		}
		return out, size, nil

	case value.Object:
		if sv, ok := Shorthand(x); ok {
			return e.prepare(sv, path)
		}
		members := Canonicalize(x)
		size := HeaderSize + 8*uint64(len(members))
		for i, m := range members {
			n, s, err := e.prepare(m.Value, appendPath(path, m.Key))
			if err != nil {
				return nil, 0, err
			}
			members[i].Value = n
			size += HeaderSize + uint64(len(m.Key)) + s
		}
		return members, size, nil

	case value.Left:
		n, s, err := e.prepare(x.Value, appendPath(path, LeftKey))
		if err != nil {
			return nil, 0, err
		}
		return value.Left{Value: n}, EitherSize + s, nil

	case value.Right:
		n, s, err := e.prepare(x.Value, appendPath(path, RightKey))
		if err != nil {
			return nil, 0, err
		}
		return value.Right{Value: n}, EitherSize + s, nil

	case nil:
		return nil, 0, errors.UnsupportedType(errors.PhaseEncode, path, "nil")
	}
	return nil, 0, errors.UnsupportedType(errors.PhaseEncode, path, fmt.Sprintf("%T", v))
}

// write emits a normalized tree. Capacity has been reserved already.
func (e *Encoder) write(v value.Value) (wasmejson.Address, error) {
	switch x := v.(type) {
	case value.Null:
		return e.record(TagNull)
	case value.Bool:
		if x {
			return e.record(TagTrue)
		}
		return e.record(TagFalse)
	case value.Number:
		return e.record(TagNumber, math.Float64bits(float64(x)))
	case value.Int64:
		return e.record(TagInt64, uint64(x))
	case value.String:
		return e.writeString(string(x))

	case value.Array:
		addrs := make([]uint32, len(x))
		for i, elem := range x {
			addr, err := e.write(elem)
			if err != nil {
				return 0, err
			}
			addrs[i] = addr
		}
		return e.table(TagArray, uint32(len(x)), addrs)

	case value.Object:
		pairs := make([]uint32, 0, 2*len(x))
		for _, m := range x {
			k, err := e.writeString(m.Key)
			if err != nil {
				return 0, err
			}
			val, err := e.write(m.Value)
			if err != nil {
				return 0, err
			}
			pairs = append(pairs, k, val)
		}
		return e.table(TagObject, uint32(len(x)), pairs)

	case value.Left:
		inner, err := e.write(x.Value)
		if err != nil {
			return 0, err
		}
		return e.table(TagLeft, inner, nil)

	case value.Right:
		inner, err := e.write(x.Value)
		if err != nil {
			return 0, err
		}
		return e.table(TagRight, inner, nil)
	}
	return 0, errors.UnsupportedType(errors.PhaseEncode, nil, fmt.Sprintf("%T", v))
}

// record writes a tag optionally followed by one 8-byte payload.
func (e *Encoder) record(tag Tag, payload ...uint64) (wasmejson.Address, error) {
	buf := getBuf()
	defer putBuf(buf)

	b := binary.LittleEndian.AppendUint32(*buf, tag)
	for _, p := range payload {
		b = binary.LittleEndian.AppendUint64(b, p)
	}
	*buf = b
	return e.emit(b)
}

// table writes a tag, a u32 word and a list of u32 words.
func (e *Encoder) table(tag Tag, word uint32, words []uint32) (wasmejson.Address, error) {
	buf := getBuf()
	defer putBuf(buf)

	b := binary.LittleEndian.AppendUint32(*buf, tag)
	b = binary.LittleEndian.AppendUint32(b, word)
	for _, w := range words {
		b = binary.LittleEndian.AppendUint32(b, w)
	}
	*buf = b
	return e.emit(b)
}

func (e *Encoder) writeString(s string) (wasmejson.Address, error) {
	addr, err := e.dst.Allocate(HeaderSize + uint32(len(s)))
	if err != nil {
		return 0, err
	}
	if err := e.dst.WriteU32(addr, TagString); err != nil {
		return 0, err
	}
	if err := e.dst.WriteU32(addr+4, uint32(len(s))); err != nil {
		return 0, err
	}
	if len(s) > 0 {
		if err := e.dst.Write(addr+HeaderSize, []byte(s)); err != nil {
			return 0, err
		}
	}
	return addr, nil
}

func (e *Encoder) emit(b []byte) (wasmejson.Address, error) {
	addr, err := e.dst.Allocate(uint32(len(b)))
	if err != nil {
		return 0, err
	}
	if err := e.dst.Write(addr, b); err != nil {
		return 0, err
	}
	return addr, nil
}

// appendPath returns path extended by seg without sharing path's backing
// array.
func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
