// Package arena provides the append-only byte arena records are written to.
//
// An Arena hands out addresses by bumping a cursor and never frees. Two
// backings exist: a Go heap buffer (New, FromBytes) and wasm linear memory
// (NewLinear) whose cursor is a mutable i32 global shared with a guest
// module. Capacity is explicit; when a request does not fit, GrowthFixed
// reports an ArenaOverflow error and GrowthDouble enlarges the backing up
// to Options.MaxCapacity. Growing keeps every issued address valid.
package arena
