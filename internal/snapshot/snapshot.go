// Package snapshot persists an arena image so records encoded in one
// process can be decoded, inspected or compared in another.
//
// A snapshot is a fixed header followed by the zstd-compressed arena bytes:
//
//	offset  size  field
//	0       4     magic "EJAR"
//	4       1     version
//	5       1     format (0 extended, 1 baseline)
//	6       2     reserved, zero
//	8       4     base
//	12      4     cursor (uncompressed payload length)
//	16      4     compressed payload length
//	20      32    BLAKE3 keyed hash of the uncompressed payload
//	52      n     payload
//
// Integers are little-endian. The payload holds every byte below the
// cursor, so addresses recorded before the snapshot stay valid after Load.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/wippyai/wasm-ejson/arena"
	"github.com/wippyai/wasm-ejson/codec"
	"github.com/wippyai/wasm-ejson/errors"
)

const (
	// Version is the header version written by Write.
	Version = 1

	headerSize = 52
)

var magic = [4]byte{'E', 'J', 'A', 'R'}

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// payloadKey separates snapshot checksums from any other BLAKE3 use of the
// same bytes.
var payloadKey = [32]byte{
	'w', 'a', 's', 'm', '-', 'e', 'j', 's', 'o', 'n', '.', 's', 'n', 'a', 'p', 's',
	'h', 'o', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Checksum returns the keyed hash stored in a snapshot header for data.
func Checksum(data []byte) Hash {
	hasher, err := blake3.NewKeyed(payloadKey[:])
	if err != nil {
		panic("snapshot: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}

// maxDecoderMemory caps the window a zstd frame may ask for. Arena bytes
// are addressed with u32, so no valid payload needs more.
const maxDecoderMemory = 1 << 32

// EncodeAll is safe for concurrent use.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
}

// Image is a decoded snapshot.
type Image struct {
	Format   codec.Format
	Base     uint32
	Checksum Hash
	// Data is the arena content from address 0 up to the cursor.
	Data []byte
}

// Cursor returns the cursor the arena had when it was saved.
func (img *Image) Cursor() uint32 {
	return uint32(len(img.Data))
}

// Arena restores a heap arena holding img.Data. Base is taken from the
// image; the other options (capacity, growth) come from opts.
func (img *Image) Arena(opts arena.Options) *arena.Arena {
	opts.Base = img.Base
	return arena.FromBytes(img.Data, opts)
}

// Write saves every allocated byte of a together with its base and format.
func Write(w io.Writer, a *arena.Arena, f codec.Format) error {
	data := a.Snapshot()
	sum := Checksum(data)
	payload := zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2))

	var hdr [headerSize]byte
	copy(hdr[0:4], magic[:])
	hdr[4] = Version
	hdr[5] = byte(f)
	binary.LittleEndian.PutUint32(hdr[8:], a.Base())
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(len(payload)))
	copy(hdr[20:], sum[:])

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write snapshot payload: %w", err)
	}
	return nil
}

// Read parses and verifies a snapshot. A payload whose hash does not match
// the header is reported with the checksum kind.
func Read(r io.Reader) (*Image, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, errors.Load("read snapshot header", err)
	}
	if !bytes.Equal(hdr[0:4], magic[:]) {
		return nil, errors.Load(fmt.Sprintf("bad snapshot magic %q", hdr[0:4]), nil)
	}
	if hdr[4] != Version {
		return nil, errors.Load(fmt.Sprintf("unsupported snapshot version %d", hdr[4]), nil)
	}
	format := codec.Format(hdr[5])
	if format != codec.FormatExtended && format != codec.FormatBaseline {
		return nil, errors.Load(fmt.Sprintf("unknown snapshot format %d", hdr[5]), nil)
	}

	base := binary.LittleEndian.Uint32(hdr[8:])
	cursor := binary.LittleEndian.Uint32(hdr[12:])
	compressedLen := binary.LittleEndian.Uint32(hdr[16:])
	var want Hash
	copy(want[:], hdr[20:])
	if cursor < base {
		return nil, errors.Load(fmt.Sprintf("snapshot cursor %d below base %d", cursor, base), nil)
	}

	// Both lengths come from the header, so buffers grow with the bytes
	// actually present instead of being sized up front.
	payload, err := io.ReadAll(io.LimitReader(r, int64(compressedLen)))
	if err != nil {
		return nil, errors.Load("read snapshot payload", err)
	}
	if uint64(len(payload)) != uint64(compressedLen) {
		return nil, errors.Load(fmt.Sprintf("snapshot payload truncated at %d of %d bytes", len(payload), compressedLen), nil)
	}
	data, err := decompress(payload, cursor)
	if err != nil {
		return nil, errors.Load("decompress snapshot payload", err)
	}
	if uint64(len(data)) != uint64(cursor) {
		return nil, errors.Load(fmt.Sprintf("snapshot payload is %d bytes, header says %d", len(data), cursor), nil)
	}

	if got := Checksum(data); got != want {
		return nil, errors.New(errors.PhaseLoad, errors.KindChecksum).
			Detail("payload hash %s does not match header %s", got, want).
			Build()
	}

	return &Image{Format: format, Base: base, Checksum: want, Data: data}, nil
}

// decompress inflates payload, reading at most one byte past limit so an
// oversized stream is caught by the length check.
func decompress(payload []byte, limit uint32) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(payload),
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecoderMemory))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(io.LimitReader(dec, int64(limit)+1))
}

// Load reads a snapshot and restores it as a heap arena.
func Load(r io.Reader, opts arena.Options) (*arena.Arena, codec.Format, error) {
	img, err := Read(r)
	if err != nil {
		return nil, 0, err
	}
	return img.Arena(opts), img.Format, nil
}
