// Package wasmgen builds small core wasm modules: the host module that
// exports the shared memory and allocation cursor, and the guest modules
// used in tests.
package wasmgen

import (
	"github.com/tetratelabs/wazero/api"
)

const (
	sectionType     = 0x01
	sectionImport   = 0x02
	sectionFunction = 0x03
	sectionMemory   = 0x05
	sectionGlobal   = 0x06
	sectionExport   = 0x07
	sectionCode     = 0x0a

	externFunc   = 0x00
	externMemory = 0x02
	externGlobal = 0x03
)

// Limits are memory limits in pages. HasMax false means unbounded.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Func is a function defined by the module. Body holds instructions
// without the trailing end opcode.
type Func struct {
	Export  string
	Params  []api.ValueType
	Results []api.ValueType
	Locals  []api.ValueType
	Body    []byte
}

type global struct {
	module, name string // import source; empty for local globals
	export       string
	valType      api.ValueType
	mutable      bool
	init         int64
}

type memory struct {
	module, name string
	export       string
	limits       Limits
}

// ModuleBuilder assembles a module. Imported globals must be added before
// locally defined ones so indices stay stable.
type ModuleBuilder struct {
	memory  *memory
	globals []global
	funcs   []Func
	locals  int
}

// NewModule creates an empty builder.
func NewModule() *ModuleBuilder {
	return &ModuleBuilder{}
}

// ImportMemory imports the module's single memory.
func (b *ModuleBuilder) ImportMemory(module, name string, limits Limits) *ModuleBuilder {
	b.memory = &memory{module: module, name: name, limits: limits}
	return b
}

// DefineMemory defines the module's single memory and exports it.
func (b *ModuleBuilder) DefineMemory(export string, limits Limits) *ModuleBuilder {
	b.memory = &memory{export: export, limits: limits}
	return b
}

// ImportGlobal imports a global and returns its index.
func (b *ModuleBuilder) ImportGlobal(module, name string, t api.ValueType, mutable bool) uint32 {
	if b.locals > 0 {
		panic("wasmgen: imported globals must precede local globals")
	}
	b.globals = append(b.globals, global{module: module, name: name, valType: t, mutable: mutable})
	return uint32(len(b.globals) - 1)
}

// DefineGlobal defines an i32 or i64 global, exports it when export is not
// empty, and returns its index.
func (b *ModuleBuilder) DefineGlobal(export string, t api.ValueType, mutable bool, init int64) uint32 {
	b.globals = append(b.globals, global{export: export, valType: t, mutable: mutable, init: init})
	b.locals++
	return uint32(len(b.globals) - 1)
}

// AddFunc defines a function and returns its index.
func (b *ModuleBuilder) AddFunc(f Func) uint32 {
	b.funcs = append(b.funcs, f)
	return uint32(len(b.funcs) - 1)
}

// Build encodes the module.
func (b *ModuleBuilder) Build() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(b.funcs) > 0 {
		out = appendSection(out, sectionType, b.typeSection())
	}
	if imports, n := b.importSection(); n > 0 {
		out = appendSection(out, sectionImport, imports)
	}
	if len(b.funcs) > 0 {
		sec := appendULEB128(nil, uint32(len(b.funcs)))
		for i := range b.funcs {
			sec = appendULEB128(sec, uint32(i))
		}
		out = appendSection(out, sectionFunction, sec)
	}
	if b.memory != nil && b.memory.module == "" {
		sec := appendULEB128(nil, 1)
		sec = appendLimits(sec, b.memory.limits)
		out = appendSection(out, sectionMemory, sec)
	}
	if b.locals > 0 {
		out = appendSection(out, sectionGlobal, b.globalSection())
	}
	if exports, n := b.exportSection(); n > 0 {
		out = appendSection(out, sectionExport, exports)
	}
	if len(b.funcs) > 0 {
		out = appendSection(out, sectionCode, b.codeSection())
	}
	return out
}

func (b *ModuleBuilder) typeSection() []byte {
	sec := appendULEB128(nil, uint32(len(b.funcs)))
	for _, f := range b.funcs {
		sec = append(sec, 0x60)
		sec = appendValTypes(sec, f.Params)
		sec = appendValTypes(sec, f.Results)
	}
	return sec
}

func (b *ModuleBuilder) importSection() ([]byte, int) {
	var body []byte
	n := 0
	if b.memory != nil && b.memory.module != "" {
		body = appendName(body, b.memory.module)
		body = appendName(body, b.memory.name)
		body = append(body, externMemory)
		body = appendLimits(body, b.memory.limits)
		n++
	}
	for _, g := range b.globals {
		if g.module == "" {
			continue
		}
		body = appendName(body, g.module)
		body = appendName(body, g.name)
		body = append(body, externGlobal)
		body = appendGlobalType(body, g.valType, g.mutable)
		n++
	}
	return append(appendULEB128(nil, uint32(n)), body...), n
}

func (b *ModuleBuilder) globalSection() []byte {
	sec := appendULEB128(nil, uint32(b.locals))
	for _, g := range b.globals {
		if g.module != "" {
			continue
		}
		sec = appendGlobalType(sec, g.valType, g.mutable)
		if g.valType == api.ValueTypeI64 {
			sec = append(sec, opI64Const)
		} else {
			sec = append(sec, opI32Const)
		}
		sec = appendSLEB128(sec, g.init)
		sec = append(sec, opEnd)
	}
	return sec
}

func (b *ModuleBuilder) exportSection() ([]byte, int) {
	var body []byte
	n := 0
	if b.memory != nil && b.memory.export != "" {
		body = appendName(body, b.memory.export)
		body = append(body, externMemory)
		body = appendULEB128(body, 0)
		n++
	}
	for i, g := range b.globals {
		if g.export == "" {
			continue
		}
		body = appendName(body, g.export)
		body = append(body, externGlobal)
		body = appendULEB128(body, uint32(i))
		n++
	}
	for i, f := range b.funcs {
		if f.Export == "" {
			continue
		}
		body = appendName(body, f.Export)
		body = append(body, externFunc)
		body = appendULEB128(body, uint32(i))
		n++
	}
	return append(appendULEB128(nil, uint32(n)), body...), n
}

func (b *ModuleBuilder) codeSection() []byte {
	sec := appendULEB128(nil, uint32(len(b.funcs)))
	for _, f := range b.funcs {
		body := appendULEB128(nil, uint32(len(f.Locals)))
		for _, l := range f.Locals {
			body = appendULEB128(body, 1)
			body = append(body, byte(l))
		}
		body = append(body, f.Body...)
		body = append(body, opEnd)

		sec = appendULEB128(sec, uint32(len(body)))
		sec = append(sec, body...)
	}
	return sec
}

func appendValTypes(dst []byte, types []api.ValueType) []byte {
	dst = appendULEB128(dst, uint32(len(types)))
	for _, t := range types {
		dst = append(dst, byte(t))
	}
	return dst
}

func appendGlobalType(dst []byte, t api.ValueType, mutable bool) []byte {
	dst = append(dst, byte(t))
	if mutable {
		return append(dst, 0x01)
	}
	return append(dst, 0x00)
}

func appendLimits(dst []byte, l Limits) []byte {
	if l.HasMax {
		dst = append(dst, 0x01)
		dst = appendULEB128(dst, l.Min)
		return appendULEB128(dst, l.Max)
	}
	dst = append(dst, 0x00)
	return appendULEB128(dst, l.Min)
}
