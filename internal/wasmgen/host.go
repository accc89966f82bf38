package wasmgen

import "github.com/tetratelabs/wazero/api"

// Names the guest evaluator imports its shared state under.
const (
	MemoryModule = "memory"
	MemoryExport = "object"
	CursorExport = "alloc_p"
)

// MemoryHost returns a module exporting a memory of minPages (growable to
// maxPages; zero means unbounded) and a mutable i32 cursor starting at
// cursor. Instantiated under MemoryModule, it satisfies the imports of an
// evaluator compiled against the shared arena.
func MemoryHost(minPages, maxPages, cursor uint32) []byte {
	b := NewModule().DefineMemory(MemoryExport, Limits{
		Min:    minPages,
		Max:    maxPages,
		HasMax: maxPages != 0,
	})
	b.DefineGlobal(CursorExport, api.ValueTypeI32, true, int64(int32(cursor)))
	return b.Build()
}

// ImportShared adds the memory and cursor imports an evaluator needs and
// returns the cursor's global index.
func (b *ModuleBuilder) ImportShared(minPages uint32) uint32 {
	b.ImportMemory(MemoryModule, MemoryExport, Limits{Min: minPages})
	return b.ImportGlobal(MemoryModule, CursorExport, api.ValueTypeI32, true)
}
