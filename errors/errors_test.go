package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:      PhaseDecode,
				Kind:       KindUnknownTag,
				Path:       []string{"items", "[2]", "name"},
				Address:    64,
				HasAddress: true,
				Detail:     "tag 12 not in extended format",
			},
			contains: []string{"[decode]", "unknown_tag", "items[2].name", "@64", "tag 12"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseAlloc,
				Kind:  KindArenaOverflow,
			},
			contains: []string{"[alloc]", "arena_overflow"},
		},
		{
			name: "go type",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindUnsupportedType,
				GoType: "chan int",
				Detail: "not representable",
			},
			contains: []string{"[encode]", "Go type chan int - not representable"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "read snapshot",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "read snapshot", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseEvaluate,
		Kind:  KindInstantiation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{Phase: PhaseDecode, Kind: KindUnknownTag, Path: []string{"x"}}

	if !errors.Is(err, &Error{Phase: PhaseDecode, Kind: KindUnknownTag}) {
		t.Error("same phase and kind should match")
	}
	if errors.Is(err, &Error{Phase: PhaseEncode, Kind: KindUnknownTag}) {
		t.Error("different phase should not match")
	}
	if !errors.Is(err, ErrUnknownTag) {
		t.Error("sentinel should match any phase")
	}
	if errors.Is(err, ErrInvalidKeyType) {
		t.Error("sentinel of another kind should not match")
	}

	wrapped := fmt.Errorf("decode request: %w", err)
	if !errors.Is(wrapped, ErrUnknownTag) {
		t.Error("sentinel should match through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseDecode, KindInvalidKeyType).
		Path("obj", "[0]").
		Address(12).
		GoType("value.Number").
		Value(3).
		Detail("key tag %d", 3).
		Build()

	if err.Phase != PhaseDecode || err.Kind != KindInvalidKeyType {
		t.Fatalf("phase/kind = %s/%s", err.Phase, err.Kind)
	}
	if !err.HasAddress || err.Address != 12 {
		t.Errorf("address = %d (set %v)", err.Address, err.HasAddress)
	}
	if err.Detail != "key tag 3" {
		t.Errorf("detail = %q", err.Detail)
	}
	if got := FormatPath(err.Path); got != "obj[0]" {
		t.Errorf("path = %q", got)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("ArenaOverflow", func(t *testing.T) {
		err := ArenaOverflow(24, 65530, 65536)
		if !errors.Is(err, ErrArenaOverflow) {
			t.Error("not an arena overflow")
		}
		if !strings.Contains(err.Detail, "24 bytes") || !strings.Contains(err.Detail, "65530") {
			t.Errorf("detail = %q", err.Detail)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		err := UnsupportedType(PhaseEncode, []string{"a"}, "func()")
		if !errors.Is(err, ErrUnsupportedType) || err.GoType != "func()" {
			t.Errorf("got %v", err)
		}
	})

	t.Run("UnknownTag", func(t *testing.T) {
		err := UnknownTag(nil, 8, 9, "baseline")
		if err.Value != uint32(9) || !strings.Contains(err.Error(), "baseline") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("InvalidKeyType", func(t *testing.T) {
		err := InvalidKeyType([]string{"[1]"}, 40, 3)
		if !errors.Is(err, ErrInvalidKeyType) || err.Address != 40 {
			t.Errorf("got %v", err)
		}
	})

	t.Run("DepthExceeded", func(t *testing.T) {
		err := DepthExceeded(nil, 0, 10)
		if err.Kind != KindDepthExceeded || !strings.Contains(err.Detail, "10") {
			t.Errorf("got %v", err)
		}
	})
}

func TestHasKind(t *testing.T) {
	inner := OutOfBounds(PhaseDecode, nil, 99, errors.New("short read"))
	wrapped := fmt.Errorf("outer: %w", Wrap(PhaseEvaluate, KindInvalidData, inner, "decode result"))

	if !HasKind(wrapped, KindOutOfBounds) {
		t.Error("HasKind should find nested kind")
	}
	if !HasKind(wrapped, KindInvalidData) {
		t.Error("HasKind should find outer kind")
	}
	if HasKind(wrapped, KindChecksum) {
		t.Error("HasKind found absent kind")
	}
	if HasKind(nil, KindChecksum) {
		t.Error("HasKind(nil) should be false")
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ArenaOverflow(8, 0, 4))
	if got := KindOf(wrapped); got != KindArenaOverflow {
		t.Errorf("KindOf = %s, want %s", got, KindArenaOverflow)
	}
	if got := KindOf(errors.New("plain")); got != KindInvalidData {
		t.Errorf("KindOf(plain) = %s, want %s", got, KindInvalidData)
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"[0]"}, "[0]"},
		{[]string{"a", "b", "[3]", "c"}, "a.b[3].c"},
	}
	for _, tt := range tests {
		if got := FormatPath(tt.path); got != tt.want {
			t.Errorf("FormatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
