package wasmgen

import (
	"encoding/binary"
	"math"
)

const (
	opUnreachable = 0x00
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0b
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opLocalTee    = 0x22
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Load     = 0x28
	opF64Load     = 0x2b
	opI32Store    = 0x36
	opI32Const    = 0x41
	opI64Const    = 0x42
	opF64Const    = 0x44
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32Ne       = 0x47
	opF64Eq       = 0x61
	opF64Ne       = 0x62
	opI32Add      = 0x6a
	opI32Sub      = 0x6b

	blockEmpty = 0x40
	blockI32   = 0x7f
)

// Code accumulates a function body one instruction at a time.
type Code struct {
	buf []byte
}

// Bytes returns the encoded instructions.
func (c *Code) Bytes() []byte { return c.buf }

func (c *Code) LocalGet(i uint32) *Code  { return c.op1(opLocalGet, i) }
func (c *Code) LocalSet(i uint32) *Code  { return c.op1(opLocalSet, i) }
func (c *Code) LocalTee(i uint32) *Code  { return c.op1(opLocalTee, i) }
func (c *Code) GlobalGet(i uint32) *Code { return c.op1(opGlobalGet, i) }
func (c *Code) GlobalSet(i uint32) *Code { return c.op1(opGlobalSet, i) }

// I32Load loads an i32 at the address on the stack plus offset.
func (c *Code) I32Load(offset uint32) *Code { return c.mem(opI32Load, 2, offset) }

// F64Load loads an f64 at the address on the stack plus offset. Records
// only guarantee 4-byte alignment, so the hint is 2.
func (c *Code) F64Load(offset uint32) *Code { return c.mem(opF64Load, 2, offset) }

func (c *Code) I32Store(offset uint32) *Code { return c.mem(opI32Store, 2, offset) }

func (c *Code) I32Const(v int32) *Code {
	c.buf = append(c.buf, opI32Const)
	c.buf = appendSLEB128(c.buf, int64(v))
	return c
}

func (c *Code) F64Const(v float64) *Code {
	c.buf = append(c.buf, opF64Const)
	c.buf = binary.LittleEndian.AppendUint64(c.buf, math.Float64bits(v))
	return c
}

func (c *Code) I32Eqz() *Code { return c.op(opI32Eqz) }
func (c *Code) I32Eq() *Code  { return c.op(opI32Eq) }
func (c *Code) I32Ne() *Code  { return c.op(opI32Ne) }
func (c *Code) F64Eq() *Code  { return c.op(opF64Eq) }
func (c *Code) F64Ne() *Code  { return c.op(opF64Ne) }
func (c *Code) I32Add() *Code { return c.op(opI32Add) }
func (c *Code) I32Sub() *Code { return c.op(opI32Sub) }

// If opens a block with no result.
func (c *Code) If() *Code { return c.op(opIf, blockEmpty) }

// IfI32 opens a block that leaves one i32.
func (c *Code) IfI32() *Code { return c.op(opIf, blockI32) }

func (c *Code) Else() *Code        { return c.op(opElse) }
func (c *Code) Unreachable() *Code { return c.op(opUnreachable) }
func (c *Code) End() *Code         { return c.op(opEnd) }

func (c *Code) op(b ...byte) *Code {
	c.buf = append(c.buf, b...)
	return c
}

func (c *Code) op1(op byte, idx uint32) *Code {
	c.buf = append(c.buf, op)
	c.buf = appendULEB128(c.buf, idx)
	return c
}

func (c *Code) mem(op byte, align, offset uint32) *Code {
	c.buf = append(c.buf, op)
	c.buf = appendULEB128(c.buf, align)
	c.buf = appendULEB128(c.buf, offset)
	return c
}
