package arena

import (
	"github.com/tetratelabs/wazero/api"
)

// PageSize is the wasm linear memory page size.
const PageSize = 64 << 10

// NewLinear creates an arena inside wasm linear memory. The cursor lives in
// a mutable i32 global so the guest module sees every host allocation and
// the host sees every guest allocation. Capacity is whatever the memory
// currently holds; GrowthDouble grows it in whole pages up to the memory's
// declared maximum and opts.MaxCapacity.
func NewLinear(mem api.Memory, cursor api.MutableGlobal, opts Options) *Arena {
	return NewWithBacking(&linearBacking{mem: mem}, globalCursor{g: cursor}, opts)
}

type linearBacking struct {
	mem api.Memory
}

func (l *linearBacking) Size() uint32 {
	return l.mem.Size()
}

func (l *linearBacking) Bytes(offset, length uint32) ([]byte, bool) {
	return l.mem.Read(offset, length)
}

func (l *linearBacking) Grow(size uint32) (uint32, bool) {
	current := l.mem.Size()
	if size <= current {
		return current, true
	}
	wantPages := (uint64(size) + PageSize - 1) / PageSize
	delta := wantPages - uint64(current)/PageSize
	if _, ok := l.mem.Grow(uint32(delta)); !ok {
		return current, false
	}
	return l.mem.Size(), true
}

// globalCursor stores the cursor in a wasm global as an i32.
type globalCursor struct {
	g api.MutableGlobal
}

func (c globalCursor) Load() uint32 {
	return api.DecodeU32(c.g.Get())
}

func (c globalCursor) Store(v uint32) {
	c.g.Set(api.EncodeU32(v))
}
