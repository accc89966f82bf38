// Package evaluator runs precompiled wasm evaluators over encoded values.
//
// An evaluator is an opaque guest module that imports its state from a
// module named "memory":
//
//	(import "memory" "object"  (memory 1))
//	(import "memory" "alloc_p" (global (mut i32)))
//
// A Host synthesizes and instantiates that module, lays an arena over the
// memory with alloc_p as its cursor, and loads guests against it. Values
// are encoded into the shared arena and their addresses passed to guest
// exports; a guest that allocates bumps the same cursor, so addresses it
// returns can be decoded by the host.
//
// Basic usage:
//
//	host, err := evaluator.New(ctx, evaluator.Config{})
//	if err != nil {
//	    return err
//	}
//	defer host.Close(ctx)
//
//	ev, err := host.Load(ctx, wasmBytes)
//	if err != nil {
//	    return err
//	}
//	eq, err := ev.Equal(ctx, a, b)
//
// Memory is never reclaimed. Long-running callers create a fresh Host when
// the arena grows too large.
package evaluator
