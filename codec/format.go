package codec

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-ejson/errors"
)

// Tag is the u32 that opens every record.
type Tag = uint32

const (
	TagNull   Tag = 0
	TagFalse  Tag = 1
	TagTrue   Tag = 2
	TagNumber Tag = 3
	TagString Tag = 4
	TagArray  Tag = 5
	TagObject Tag = 6
	TagLeft   Tag = 7
	TagRight  Tag = 8
	TagInt64  Tag = 9 // extended format only
)

// Fixed record sizes. Strings, arrays and objects add their payload to
// HeaderSize.
const (
	AtomSize   = 4
	ScalarSize = 12
	HeaderSize = 8
	EitherSize = 8
)

// TagName returns a lowercase name for a tag, or "tag(n)" for unknown ones.
func TagName(t Tag) string {
	switch t {
	case TagNull:
		return "null"
	case TagFalse:
		return "false"
	case TagTrue:
		return "true"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagLeft:
		return "left"
	case TagRight:
		return "right"
	case TagInt64:
		return "int64"
	}
	return fmt.Sprintf("tag(%d)", t)
}

// Format selects the tag domain an encoder or decoder targets. The zero
// value is FormatExtended.
type Format uint8

const (
	// FormatExtended accepts tags 0 through 9.
	FormatExtended Format = iota
	// FormatBaseline accepts tags 0 through 8; Int64 is not representable.
	FormatBaseline
)

func (f Format) String() string {
	if f == FormatBaseline {
		return "baseline"
	}
	return "extended"
}

// MaxTag returns the highest tag the format defines.
func (f Format) MaxTag() Tag {
	if f == FormatBaseline {
		return TagRight
	}
	return TagInt64
}

// Allows reports whether t is defined by the format.
func (f Format) Allows(t Tag) bool {
	return t <= f.MaxTag()
}

// ParseFormat maps "baseline" or "extended" (case insensitive) to a Format.
// An empty string yields FormatExtended.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "extended":
		return FormatExtended, nil
	case "baseline":
		return FormatBaseline, nil
	}
	return 0, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown format %q", s))
}
