package arena

import (
	"encoding/binary"
	"math"

	"go.uber.org/zap"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/errors"
)

// DefaultInitialCapacity is one wasm page.
const DefaultInitialCapacity = 64 << 10

// GrowthPolicy decides what happens when an allocation does not fit.
type GrowthPolicy uint8

const (
	// GrowthFixed never grows; a full arena reports ArenaOverflow.
	GrowthFixed GrowthPolicy = iota
	// GrowthDouble doubles capacity (at least to the requested end) up to
	// MaxCapacity.
	GrowthDouble
)

func (p GrowthPolicy) String() string {
	if p == GrowthDouble {
		return "double"
	}
	return "fixed"
}

// Options configures an Arena.
type Options struct {
	// Base is the first address handed out. Bytes below it are never
	// allocated.
	Base uint32
	// InitialCapacity is the starting buffer size in bytes. Defaults to
	// DefaultInitialCapacity and is raised to Base if smaller.
	InitialCapacity uint32
	// MaxCapacity bounds growth. Zero means the full 32-bit address space.
	MaxCapacity uint32
	Growth      GrowthPolicy
}

// Backing is the storage an Arena allocates from.
type Backing interface {
	wasmejson.MemorySizer
	// Bytes returns a view of [offset, offset+length). ok is false when the
	// range is outside the backing.
	Bytes(offset, length uint32) ([]byte, bool)
	// Grow enlarges the backing to at least size bytes and reports the new
	// size. Existing bytes keep their offsets.
	Grow(size uint32) (uint32, bool)
}

// Cursor holds the next free address.
type Cursor interface {
	Load() uint32
	Store(uint32)
}

// Arena is a bump allocator over a flat byte buffer. It only grows; there
// is no free. An Arena is not safe for concurrent allocation; reads of
// already written regions may run in parallel while nothing allocates.
type Arena struct {
	backing Backing
	cursor  Cursor
	base    uint32
	max     uint32
	growth  GrowthPolicy
}

// NewWithBacking builds an arena over caller-provided storage and cursor.
// The cursor is moved up to opts.Base if it is below it.
func NewWithBacking(b Backing, c Cursor, opts Options) *Arena {
	limit := opts.MaxCapacity
	if limit == 0 {
		limit = math.MaxUint32
	}
	if c.Load() < opts.Base {
		c.Store(opts.Base)
	}
	return &Arena{
		backing: b,
		cursor:  c,
		base:    opts.Base,
		max:     limit,
		growth:  opts.Growth,
	}
}

// Allocate reserves n bytes at the cursor and returns their address. The
// cursor advances by exactly n.
func (a *Arena) Allocate(n uint32) (wasmejson.Address, error) {
	addr := a.cursor.Load()
	end := uint64(addr) + uint64(n)
	if err := a.ensure(end); err != nil {
		return 0, err
	}
	a.cursor.Store(uint32(end))
	return addr, nil
}

// Reserve makes sure n more bytes fit after the cursor without moving it.
func (a *Arena) Reserve(n uint64) error {
	return a.ensure(uint64(a.cursor.Load()) + n)
}

func (a *Arena) ensure(end uint64) error {
	size := a.backing.Size()
	if end <= uint64(size) {
		return nil
	}
	cursor := a.cursor.Load()
	if a.growth == GrowthFixed || end > uint64(a.max) {
		return errors.ArenaOverflow(end-uint64(cursor), cursor, size)
	}

	target := uint64(size) * 2
	if target < end {
		target = end
	}
	if target > uint64(a.max) {
		target = uint64(a.max)
	}

	grown, ok := a.backing.Grow(uint32(target))
	if !ok || uint64(grown) < end {
		return errors.ArenaOverflow(end-uint64(cursor), cursor, size)
	}
	Logger().Debug("arena grown",
		zap.Uint32("old", size),
		zap.Uint32("new", grown),
		zap.Uint32("cursor", cursor))
	return nil
}

// Cursor returns the next address Allocate will hand out.
func (a *Arena) Cursor() wasmejson.Address {
	return a.cursor.Load()
}

// Base returns the first address this arena allocates.
func (a *Arena) Base() wasmejson.Address {
	return a.base
}

// Used returns the number of bytes allocated since Base.
func (a *Arena) Used() uint32 {
	return a.cursor.Load() - a.base
}

// Size returns the current capacity of the backing in bytes.
func (a *Arena) Size() uint32 {
	return a.backing.Size()
}

// Growth returns the arena's growth policy.
func (a *Arena) Growth() GrowthPolicy {
	return a.growth
}

// Snapshot returns a copy of every byte below the cursor.
func (a *Arena) Snapshot() []byte {
	cur := a.cursor.Load()
	view, ok := a.backing.Bytes(0, cur)
	if !ok {
		return nil
	}
	out := make([]byte, cur)
	copy(out, view)
	return out
}

func (a *Arena) view(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(a.cursor.Load()) {
		return nil, errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Address(offset).
			Detail("range of %d bytes ends past cursor %d", length, a.cursor.Load()).
			Build()
	}
	b, ok := a.backing.Bytes(offset, length)
	if !ok {
		return nil, errors.New(errors.PhaseAlloc, errors.KindOutOfBounds).
			Address(offset).
			Detail("range of %d bytes outside backing of %d", length, a.backing.Size()).
			Build()
	}
	return b, nil
}

// Read returns a view of an allocated region. The view aliases arena
// storage and must not be kept across allocations.
func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	return a.view(offset, length)
}

// Write copies data into an allocated region.
func (a *Arena) Write(offset uint32, data []byte) error {
	b, err := a.view(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	b, err := a.view(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (a *Arena) ReadU64(offset uint32) (uint64, error) {
	b, err := a.view(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (a *Arena) WriteU32(offset uint32, value uint32) error {
	b, err := a.view(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (a *Arena) WriteU64(offset uint32, value uint64) error {
	b, err := a.view(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

// Compile-time checks
var (
	_ wasmejson.Memory      = (*Arena)(nil)
	_ wasmejson.MemorySizer = (*Arena)(nil)
	_ wasmejson.Allocator   = (*Arena)(nil)
)
