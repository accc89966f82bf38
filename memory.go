package wasmejson

// Address is a byte offset into an arena. It always points at the first
// byte of a record.
type Address = uint32

// Memory is byte-addressed storage holding encoded records. Arenas and
// wasm linear memory both implement it.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// MemorySizer provides the current size of a memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator hands out regions of a memory. There is no Free: the
// encoding is append-only.
type Allocator interface {
	Allocate(size uint32) (Address, error)
}
