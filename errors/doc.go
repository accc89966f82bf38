// Package errors provides structured error types for the wasm-ejson module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: value path, arena address, Go type name and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindUnknownTag).
//		Path("items", "[2]").
//		Address(128).
//		Detail("tag %d not in baseline format", 9).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ArenaOverflow(24, cursor, capacity)
//	err := errors.InvalidKeyType(path, addr, tag)
//
// All errors implement the standard error interface and support errors.Is/As.
// The sentinels ErrArenaOverflow, ErrUnsupportedType, ErrUnknownTag and
// ErrInvalidKeyType match their kind in any phase.
package errors
