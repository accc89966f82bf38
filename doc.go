// Package wasmejson provides a self-describing binary encoding for a small
// JSON-like value domain, laid out in a flat append-only arena that can be
// shared with a WebAssembly evaluator.
//
// # Architecture Overview
//
//	wasmejson/          Root package with Address, Memory and Allocator
//	├── value/          Closed value model, host conversion, rendering
//	├── arena/          Bump-allocating arena (heap or wasm linear memory)
//	├── codec/          Tagged-record encoder, decoder and canonicalizer
//	├── evaluator/      wazero host for precompiled comparator modules
//	├── errors/         Structured error types
//	├── internal/
//	│   ├── config/     YAML configuration and flags
//	│   ├── source/     JSON, YAML and CBOR documents to values
//	│   ├── snapshot/   Compressed, checksummed arena images
//	│   └── wasmgen/    Minimal wasm binary builder
//	└── cmd/ejson/      Command line tool (encode, decode, compare, dump, inspect)
//
// # Record Layout
//
// Every record starts with a little-endian u32 tag:
//
//	Tag  Case     Payload
//	────────────────────────────────────────────────
//	0    null     -
//	1    false    -
//	2    true     -
//	3    number   f64
//	4    string   u32 len, len bytes
//	5    array    u32 count, count × u32 address
//	6    object   u32 count, count × (u32 key, u32 value)
//	7    left     u32 address
//	8    right    u32 address
//	9    int64    i64 (extended format only)
//
// Children are always written before their parent, so nested addresses
// are known when the parent header is written.
//
// # Quick Start
//
//	a := arena.New(arena.Options{InitialCapacity: 64 << 10})
//	enc := codec.NewEncoder(a, codec.FormatExtended)
//
//	addr, err := enc.Encode(value.MustFromNative(map[string]any{"b": 1.0, "a": 2.0}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	v, err := codec.NewDecoder(a, codec.FormatExtended).Decode(addr)
//
// # Thread Safety
//
// An arena has a single shared cursor. Encodes into the same arena must be
// serialized by the caller. Decoding never mutates memory, so concurrent
// decodes over an arena that is not being written are safe.
//
// # Memory Model
//
// Arenas only grow. Growing never moves an address, so every address handed
// out stays valid for the lifetime of the arena.
package wasmejson
