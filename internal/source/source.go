// Package source converts host documents (JSON, YAML, CBOR) to and from
// values.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/value"
)

// Kind is a document syntax.
type Kind int

const (
	JSON Kind = iota
	YAML
	CBOR
)

func (k Kind) String() string {
	switch k {
	case YAML:
		return "yaml"
	case CBOR:
		return "cbor"
	}
	return "json"
}

// ParseKind maps a name such as "json" or "yml" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json", "jsonc":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "cbor":
		return CBOR, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConvert, fmt.Sprintf("unknown document kind %q", s))
}

// KindFromPath picks a Kind from a file extension.
func KindFromPath(path string) (Kind, error) {
	return ParseKind(filepath.Ext(path))
}

// Options controls how documents become values.
type Options struct {
	// Format is the tag domain the values will be encoded in.
	Format codec.Format
	// IntegersAsInt64 turns integral numbers into Int64 values. It only
	// takes effect with codec.FormatExtended.
	IntegersAsInt64 bool
}

func (o Options) converter() value.Converter {
	return value.Converter{IntegersAsInt64: o.IntegersAsInt64 && o.Format == codec.FormatExtended}
}

// cborDecMode decodes maps with string keys to map[string]any; maps with
// other keys fail to decode.
var cborDecMode cbor.DecMode

// cborEncMode writes Core Deterministic Encoding so equal values produce
// identical bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("source: CBOR decoder initialization failed: " + err.Error())
	}
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("source: CBOR encoder initialization failed: " + err.Error())
	}
}

// Decode reads every document in data. JSON input may hold several
// whitespace-separated values and may use comments and trailing commas;
// YAML input may hold several "---" separated documents; CBOR input is a
// sequence of data items.
func Decode(data []byte, k Kind, opts Options) ([]value.Value, error) {
	var natives []any
	var err error
	switch k {
	case JSON:
		natives, err = decodeJSON(data)
	case YAML:
		natives, err = decodeYAML(data)
	case CBOR:
		natives, err = decodeCBOR(data)
	default:
		return nil, errors.InvalidInput(errors.PhaseConvert, fmt.Sprintf("unknown document kind %d", k))
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConvert, errors.KindInvalidData, err, "parse "+k.String())
	}

	conv := opts.converter()
	out := make([]value.Value, 0, len(natives))
	for _, n := range natives {
		v, err := conv.Convert(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeJSON(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	var out []any
	for {
		var v any
		if err := dec.Decode(&v); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func decodeYAML(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var v any
		if err := dec.Decode(&v); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func decodeCBOR(data []byte) ([]any, error) {
	dec := cborDecMode.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var v any
		if err := dec.Decode(&v); err == io.EOF {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// Encode renders v as a document of kind k. Left and Right become
// single-key "left"/"right" objects, so encoding the document again
// collapses them back to the same records.
func Encode(v value.Value, k Kind) ([]byte, error) {
	native := value.ToNative(v)
	var (
		out []byte
		err error
	)
	switch k {
	case JSON:
		out, err = json.MarshalIndent(native, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case YAML:
		out, err = yaml.Marshal(native)
	case CBOR:
		out, err = cborEncMode.Marshal(native)
	default:
		return nil, errors.InvalidInput(errors.PhaseConvert, fmt.Sprintf("unknown document kind %d", k))
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConvert, errors.KindUnsupportedType, err, "render "+k.String())
	}
	return out, nil
}
