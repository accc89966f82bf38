// Package codec encodes values into tagged records and decodes them back.
//
// # Records
//
// Every record starts with a little-endian u32 tag. Children are written
// before their parent, so a parent's address table only ever points at
// lower addresses:
//
//	Tag  Case     Layout                                   Size
//	0    null     tag                                      4
//	1    false    tag                                      4
//	2    true     tag                                      4
//	3    number   tag, f64                                 12
//	4    string   tag, u32 len, bytes                      8+len
//	5    array    tag, u32 n, n x u32 addr                 8+4n
//	6    object   tag, u32 n, n x (u32 key, u32 value)     8+8n
//	7    left     tag, u32 inner                           8
//	8    right    tag, u32 inner                           8
//	9    int64    tag, i64 (FormatExtended only)           12
//
// # Objects
//
// Object members are written in byte-wise key order with duplicates
// resolved last-write-wins; each key is its own string record. An object
// with exactly one member named "left" or "right" is written as a Left or
// Right record instead. This shorthand cannot be told apart from a
// genuine one-field record with that key: {"left": 5} decodes as Left(5).
//
// # Failure
//
// Encode validates and measures the whole value before reserving space,
// so an unsupported type or an arena overflow leaves the arena unchanged.
// Decode reports unknown tags, non-string object keys, reads past the end
// of memory and nesting beyond the decoder's depth limit.
package codec
