package value

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"

	"github.com/wippyai/wasm-ejson/errors"
)

// Converter turns Go host values into Values.
type Converter struct {
	// IntegersAsInt64 maps Go integers and integral json.Number literals to
	// Int64 instead of Number. Only useful with the extended format.
	IntegersAsInt64 bool
}

// FromNative converts a Go value with the default Converter.
func FromNative(x any) (Value, error) {
	return Converter{}.Convert(x)
}

// MustFromNative is FromNative that panics on error. Intended for literals
// in tests and examples.
func MustFromNative(x any) Value {
	v, err := FromNative(x)
	if err != nil {
		panic(err)
	}
	return v
}

// Convert maps x onto the value domain:
//
//	nil, nil pointer         Null
//	bool                     Bool
//	float32, float64         Number
//	integers                 Number, or Int64 with IntegersAsInt64
//	json.Number              Number, or Int64 for integral literals
//	string, []byte           String
//	slices and arrays        Array
//	maps with string keys    Object
//	Value                    itself
//
// Anything else is an unsupported type error.
func (c Converter) Convert(x any) (Value, error) {
	return c.convert(x, nil)
}

func (c Converter) convert(x any, path []string) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(t), nil
	case string:
		return String(t), nil
	case []byte:
		return String(t), nil
	case json.Number:
		return c.convertJSONNumber(t, path)
	case int:
		return c.integer(int64(t)), nil
	case int8:
		return c.integer(int64(t)), nil
	case int16:
		return c.integer(int64(t)), nil
	case int32:
		return c.integer(int64(t)), nil
	case int64:
		return c.integer(t), nil
	case uint8:
		return c.integer(int64(t)), nil
	case uint16:
		return c.integer(int64(t)), nil
	case uint32:
		return c.integer(int64(t)), nil
	case uint:
		return c.unsigned(uint64(t), path)
	case uint64:
		return c.unsigned(t, path)
	case []any:
		arr := make(Array, len(t))
		for i, e := range t {
			v, err := c.convert(e, appendIndex(path, i))
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		members := make([]Member, 0, len(t))
		for k, e := range t {
			v, err := c.convert(e, appendKey(path, k))
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Key: k, Value: v})
		}
		return Object(members).Sorted(), nil
	}
	return c.convertReflect(reflect.ValueOf(x), path)
}

func (c Converter) convertReflect(rv reflect.Value, path []string) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return c.convert(rv.Elem().Interface(), path)

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Array{}, nil
		}
		arr := make(Array, rv.Len())
		for i := range arr {
			v, err := c.convert(rv.Index(i).Interface(), appendIndex(path, i))
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil

	case reflect.Map:
		members := make([]Member, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := mapKey(iter.Key())
			if !ok {
				return nil, errors.New(errors.PhaseConvert, errors.KindUnsupportedType).
					Path(path...).
					GoType(iter.Key().Type().String()).
					Detail("object keys must be strings").
					Build()
			}
			v, err := c.convert(iter.Value().Interface(), appendKey(path, key))
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Key: key, Value: v})
		}
		return Object(members).Sorted(), nil
	}

	goType := "<invalid>"
	if rv.IsValid() {
		goType = rv.Type().String()
	}
	return nil, errors.UnsupportedType(errors.PhaseConvert, path, goType)
}

// mapKey accepts string keys and interface keys holding strings, which is
// what generic CBOR and YAML decoders produce.
func mapKey(k reflect.Value) (string, bool) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", false
		}
		k = k.Elem()
	}
	if k.Kind() != reflect.String {
		return "", false
	}
	return k.String(), true
}

func (c Converter) integer(i int64) Value {
	if c.IntegersAsInt64 {
		return Int64(i)
	}
	return Number(i)
}

func (c Converter) unsigned(u uint64, path []string) (Value, error) {
	if !c.IntegersAsInt64 {
		return Number(u), nil
	}
	if u > math.MaxInt64 {
		return nil, errors.New(errors.PhaseConvert, errors.KindUnsupportedType).
			Path(path...).
			GoType("uint64").
			Value(u).
			Detail("value %d overflows int64", u).
			Build()
	}
	return Int64(u), nil
}

func (c Converter) convertJSONNumber(n json.Number, path []string) (Value, error) {
	if c.IntegersAsInt64 {
		if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return Int64(i), nil
		}
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, errors.New(errors.PhaseConvert, errors.KindInvalidData).
			Path(path...).
			Cause(err).
			Detail("invalid number literal %q", string(n)).
			Build()
	}
	return Number(f), nil
}

// ToNative converts v back to plain Go values. Left and Right become
// single-key maps, matching how the shorthand is written by hand.
func ToNative(v Value) any {
	switch x := v.(type) {
	case Null, nil:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case Int64:
		return int64(x)
	case String:
		return string(x)
	case Array:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToNative(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(x))
		for _, m := range x {
			out[m.Key] = ToNative(m.Value)
		}
		return out
	case Left:
		return map[string]any{"left": ToNative(x.Value)}
	case Right:
		return map[string]any{"right": ToNative(x.Value)}
	}
	return nil
}

func appendIndex(path []string, i int) []string {
	return append(path[:len(path):len(path)], "["+strconv.Itoa(i)+"]")
}

func appendKey(path []string, k string) []string {
	return append(path[:len(path):len(path)], k)
}
