package arena

// New creates an arena on the Go heap.
func New(opts Options) *Arena {
	capacity := opts.InitialCapacity
	if capacity == 0 {
		capacity = DefaultInitialCapacity
	}
	if capacity < opts.Base {
		capacity = opts.Base
	}
	if opts.MaxCapacity != 0 && capacity > opts.MaxCapacity {
		capacity = opts.MaxCapacity
	}
	return NewWithBacking(&heapBacking{buf: make([]byte, capacity)}, &heapCursor{}, opts)
}

// FromBytes creates a heap arena whose contents are a copy of data and
// whose cursor sits at len(data). Used to restore snapshots: every address
// that was valid in the original arena is valid in the new one.
func FromBytes(data []byte, opts Options) *Arena {
	capacity := uint32(len(data))
	if opts.InitialCapacity > capacity {
		capacity = opts.InitialCapacity
	}
	buf := make([]byte, capacity)
	copy(buf, data)
	return NewWithBacking(&heapBacking{buf: buf}, &heapCursor{pos: uint32(len(data))}, opts)
}

type heapBacking struct {
	buf []byte
}

func (h *heapBacking) Size() uint32 {
	return uint32(len(h.buf))
}

func (h *heapBacking) Bytes(offset, length uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(h.buf)) {
		return nil, false
	}
	return h.buf[offset:end:end], true
}

func (h *heapBacking) Grow(size uint32) (uint32, bool) {
	if int(size) <= len(h.buf) {
		return uint32(len(h.buf)), true
	}
	buf := make([]byte, size)
	copy(buf, h.buf)
	h.buf = buf
	return size, true
}

type heapCursor struct {
	pos uint32
}

func (c *heapCursor) Load() uint32   { return c.pos }
func (c *heapCursor) Store(v uint32) { c.pos = v }
