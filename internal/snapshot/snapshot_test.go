package snapshot

import (
	"bytes"
	"encoding/binary"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	ejerrors "github.com/wippyai/wasm-ejson/errors"
	"github.com/wippyai/wasm-ejson/value"
)

func encoded(t *testing.T, base uint32, f codec.Format, vs ...value.Value) (*arena.Arena, []uint32) {
	t.Helper()
	a := arena.New(arena.Options{Base: base, Growth: arena.GrowthDouble})
	addrs, err := codec.NewEncoder(a, f).EncodeAll(vs...)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	return a, addrs
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	vs := []value.Value{
		value.Object{
			{Key: "name", Value: value.String("demo")},
			{Key: "n", Value: value.Int64(-7)},
		},
		value.Array{value.Number(1), value.Right{Value: value.Null{}}},
	}
	a, addrs := encoded(t, 128, codec.FormatExtended, vs...)

	var buf bytes.Buffer
	if err := Write(&buf, a, codec.FormatExtended); err != nil {
		t.Fatalf("Write: %v", err)
	}

	restored, format, err := Load(&buf, arena.Options{Growth: arena.GrowthDouble})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if format != codec.FormatExtended {
		t.Errorf("format = %s", format)
	}
	if restored.Base() != 128 || restored.Cursor() != a.Cursor() {
		t.Errorf("base/cursor = %d/%d, want 128/%d", restored.Base(), restored.Cursor(), a.Cursor())
	}
	if diff := cmp.Diff(a.Snapshot(), restored.Snapshot()); diff != "" {
		t.Errorf("contents differ (-want +got):\n%s", diff)
	}

	dec := codec.NewDecoder(restored, format)
	for i, addr := range addrs {
		got, err := dec.Decode(addr)
		if err != nil {
			t.Fatalf("Decode(%d): %v", addr, err)
		}
		if !value.Equal(vs[i], got) {
			t.Errorf("value %d = %s, want %s", i, value.Render(got), value.Render(vs[i]))
		}
	}

	// the restored arena keeps allocating after the old cursor
	next, err := codec.NewEncoder(restored, format).Encode(value.TrueValue)
	if err != nil {
		t.Fatalf("Encode after restore: %v", err)
	}
	if next != a.Cursor() {
		t.Errorf("next address = %d, want %d", next, a.Cursor())
	}
}

func TestRead_Header(t *testing.T) {
	a, _ := encoded(t, 0, codec.FormatBaseline, value.String("abc"))
	var buf bytes.Buffer
	if err := Write(&buf, a, codec.FormatBaseline); err != nil {
		t.Fatal(err)
	}

	img, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if img.Format != codec.FormatBaseline || img.Base != 0 || img.Cursor() != 11 {
		t.Errorf("image = format %s base %d cursor %d", img.Format, img.Base, img.Cursor())
	}
	if img.Checksum != Checksum(a.Snapshot()) {
		t.Errorf("checksum = %s", img.Checksum)
	}
	if string(buf.Bytes()[:4]) != "EJAR" {
		t.Errorf("magic = %q", buf.Bytes()[:4])
	}
}

func TestRead_Corrupt(t *testing.T) {
	a, _ := encoded(t, 0, codec.FormatExtended, value.Array{value.String("x"), value.Number(2)})
	var buf bytes.Buffer
	if err := Write(&buf, a, codec.FormatExtended); err != nil {
		t.Fatal(err)
	}
	good := buf.Bytes()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		kind   ejerrors.Kind
	}{
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }, ejerrors.KindInvalidData},
		{"version", func(b []byte) []byte { b[4] = 9; return b }, ejerrors.KindInvalidData},
		{"format", func(b []byte) []byte { b[5] = 7; return b }, ejerrors.KindInvalidData},
		{"checksum", func(b []byte) []byte { b[20] ^= 0xff; return b }, ejerrors.KindChecksum},
		{"truncated header", func(b []byte) []byte { return b[:10] }, ejerrors.KindInvalidData},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-1] }, ejerrors.KindInvalidData},
		{"cursor below base", func(b []byte) []byte { b[8] = 0xff; return b }, ejerrors.KindInvalidData},
		{"oversized lengths without payload", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[12:], 0xFFFFFFF0)
			binary.LittleEndian.PutUint32(b[16:], 0xFFFFFFF0)
			return b[:headerSize]
		}, ejerrors.KindInvalidData},
		{"cursor larger than payload", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[12:], 0xFFFFFFF0)
			return b
		}, ejerrors.KindInvalidData},
		{"cursor smaller than payload", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[12:], 1)
			return b
		}, ejerrors.KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), good...))
			_, err := Read(bytes.NewReader(data))
			if !ejerrors.HasKind(err, tt.kind) {
				t.Errorf("err = %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestRead_HeaderLengthsDoNotDriveAllocation(t *testing.T) {
	var hdr [headerSize]byte
	copy(hdr[:], magic[:])
	hdr[4] = Version
	binary.LittleEndian.PutUint32(hdr[12:], 0xFFFFFFF0)
	binary.LittleEndian.PutUint32(hdr[16:], 0xFFFFFFF0)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Read(bytes.NewReader(hdr[:]))
	runtime.ReadMemStats(&after)

	if !ejerrors.HasKind(err, ejerrors.KindInvalidData) {
		t.Errorf("err = %v, want invalid data", err)
	}
	if grew := after.TotalAlloc - before.TotalAlloc; grew > 16<<20 {
		t.Errorf("reading a bare header allocated %d bytes", grew)
	}
}

func TestChecksum_Keyed(t *testing.T) {
	if Checksum([]byte("a")) == Checksum([]byte("b")) {
		t.Error("distinct inputs share a checksum")
	}
	if Checksum(nil) != Checksum([]byte{}) {
		t.Error("empty inputs differ")
	}
}
