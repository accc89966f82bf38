package codec

import (
	"context"
	"math"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/value"
)

// DefaultMaxDepth bounds nesting so a corrupt or cyclic address table
// cannot recurse without end.
const DefaultMaxDepth = 10000

// Decoder reads records back into values. It never writes to memory, so
// any number of decoders may read a stable arena concurrently.
type Decoder struct {
	mem      wasmejson.Memory
	format   Format
	maxDepth int
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxDepth sets the nesting limit. Zero or less disables it.
func WithMaxDepth(n int) DecoderOption {
	return func(d *Decoder) {
		d.maxDepth = n
	}
}

// NewDecoder creates a decoder over mem accepting the tags of format f.
func NewDecoder(mem wasmejson.Memory, f Format, opts ...DecoderOption) *Decoder {
	d := &Decoder{mem: mem, format: f, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Format returns the decoder's tag domain.
func (d *Decoder) Format() Format {
	return d.format
}

// Memory returns the memory the decoder reads.
func (d *Decoder) Memory() wasmejson.Memory {
	return d.mem
}

// Decode reads the record tree rooted at addr. Left and Right records
// always decode to value.Left and value.Right.
func (d *Decoder) Decode(addr wasmejson.Address) (value.Value, error) {
	return d.decode(addr, nil, 0)
}

// DecodeAll decodes every address using up to workers goroutines and
// returns the values in input order. workers <= 0 means one per address.
func (d *Decoder) DecodeAll(ctx context.Context, addrs []wasmejson.Address, workers int) ([]value.Value, error) {
	out := make([]value.Value, len(addrs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, addr := range addrs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := d.Decode(addr)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	Logger().Debug("decoded batch", zap.Int("count", len(addrs)), zap.Int("workers", workers))
	return out, nil
}

func (d *Decoder) decode(addr wasmejson.Address, path []string, depth int) (value.Value, error) {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return nil, errors.DepthExceeded(path, addr, d.maxDepth)
	}

	r, err := readRecord(d.mem, d.format, addr, path)
	if err != nil {
		return nil, err
	}

	switch r.Tag {
	case TagNull:
		return value.NullValue, nil
	case TagFalse:
		return value.FalseValue, nil
	case TagTrue:
		return value.TrueValue, nil

	case TagNumber:
		bits, err := d.mem.ReadU64(addr + 4)
		if err != nil {
			return nil, errors.OutOfBounds(errors.PhaseDecode, path, addr, err)
		}
		return value.Number(math.Float64frombits(bits)), nil

	case TagInt64:
		bits, err := d.mem.ReadU64(addr + 4)
		if err != nil {
			return nil, errors.OutOfBounds(errors.PhaseDecode, path, addr, err)
		}
		return value.Int64(int64(bits)), nil

	case TagString:
		s, err := d.readString(r, path)
		if err != nil {
			return nil, err
		}
		return value.String(s), nil

	case TagArray:
		arr := make(value.Array, len(r.Children))
		for i, child := range r.Children {
			v, err := d.decode(child, appendPath(path, "["+strconv.Itoa(i)+"]"), depth+1)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil

	case TagObject:
		obj := make(value.Object, 0, len(r.Children)/2)
		for i := 0; i+1 < len(r.Children); i += 2 {
			key, err := d.decodeKey(r.Children[i], path)
			if err != nil {
				return nil, err
			}
			v, err := d.decode(r.Children[i+1], appendPath(path, key), depth+1)
			if err != nil {
				return nil, err
			}
			obj = append(obj, value.Member{Key: key, Value: v})
		}
		return obj, nil

	case TagLeft:
		v, err := d.decode(r.Children[0], appendPath(path, LeftKey), depth+1)
		if err != nil {
			return nil, err
		}
		return value.Left{Value: v}, nil

	case TagRight:
		v, err := d.decode(r.Children[0], appendPath(path, RightKey), depth+1)
		if err != nil {
			return nil, err
		}
		return value.Right{Value: v}, nil
	}
	return nil, errors.UnknownTag(path, addr, r.Tag, d.format.String())
}

func (d *Decoder) decodeKey(addr wasmejson.Address, path []string) (string, error) {
	tag, err := d.mem.ReadU32(addr)
	if err != nil {
		return "", errors.OutOfBounds(errors.PhaseDecode, path, addr, err)
	}
	if tag != TagString {
		return "", errors.InvalidKeyType(path, addr, tag)
	}
	r, err := readRecord(d.mem, d.format, addr, path)
	if err != nil {
		return "", err
	}
	return d.readString(r, path)
}

func (d *Decoder) readString(r Record, path []string) (string, error) {
	n := r.Size - HeaderSize
	if n == 0 {
		return "", nil
	}
	b, err := span(d.mem, r.Addr, HeaderSize, n, path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Copy decodes the tree at addr from src and encodes it with dst. Copying
// a tree written by a single Encode reproduces its layout, shifted by the
// difference between the two cursors.
func Copy(dst *Encoder, src *Decoder, addr wasmejson.Address) (wasmejson.Address, error) {
	v, err := src.Decode(addr)
	if err != nil {
		return 0, err
	}
	return dst.Encode(v)
}
