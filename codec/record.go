package codec

import (
	"encoding/binary"
	"math"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/errors"
)

// Record is the header view of one record: its tag, its total size and
// the addresses it embeds. For objects Children alternates key and value
// addresses; for Left and Right it holds the single inner address.
type Record struct {
	Addr     wasmejson.Address
	Tag      Tag
	Size     uint32
	Children []wasmejson.Address
}

// ReadRecord reads the header at addr and checks that the whole record
// lies inside mem.
func ReadRecord(mem wasmejson.Memory, f Format, addr wasmejson.Address) (Record, error) {
	return readRecord(mem, f, addr, nil)
}

// RecordSize returns the byte length of the record at addr.
func RecordSize(mem wasmejson.Memory, f Format, addr wasmejson.Address) (uint32, error) {
	r, err := readRecord(mem, f, addr, nil)
	return r.Size, err
}

func readRecord(mem wasmejson.Memory, f Format, addr wasmejson.Address, path []string) (Record, error) {
	tag, err := mem.ReadU32(addr)
	if err != nil {
		return Record{}, errors.OutOfBounds(errors.PhaseDecode, path, addr, err)
	}
	if !f.Allows(tag) {
		return Record{}, errors.UnknownTag(path, addr, tag, f.String())
	}

	r := Record{Addr: addr, Tag: tag}
	switch tag {
	case TagNull, TagFalse, TagTrue:
		r.Size = AtomSize
		return r, nil

	case TagNumber, TagInt64:
		r.Size = ScalarSize
		if _, err := span(mem, addr, 4, 8, path); err != nil {
			return Record{}, err
		}
		return r, nil

	case TagLeft, TagRight:
		inner, err := word(mem, addr, 4, path)
		if err != nil {
			return Record{}, err
		}
		r.Size = EitherSize
		r.Children = []wasmejson.Address{inner}
		return r, nil
	}

	// string, array, object: a count word and a payload
	count, err := word(mem, addr, 4, path)
	if err != nil {
		return Record{}, err
	}
	var payload uint64
	switch tag {
	case TagString:
		payload = uint64(count)
	case TagArray:
		payload = 4 * uint64(count)
	case TagObject:
		payload = 8 * uint64(count)
	}
	if HeaderSize+payload > math.MaxUint32 {
		return Record{}, errors.OutOfBounds(errors.PhaseDecode, path, addr, nil)
	}
	body, err := span(mem, addr, HeaderSize, uint32(payload), path)
	if err != nil {
		return Record{}, err
	}
	r.Size = HeaderSize + uint32(payload)
	if tag != TagString {
		r.Children = make([]wasmejson.Address, len(body)/4)
		for i := range r.Children {
			r.Children[i] = binary.LittleEndian.Uint32(body[4*i:])
		}
	}
	return r, nil
}

// span returns a view of length bytes at addr+off.
func span(mem wasmejson.Memory, addr, off, length uint32, path []string) ([]byte, error) {
	start := uint64(addr) + uint64(off)
	if start+uint64(length) > math.MaxUint32 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, path, addr, nil)
	}
	b, err := mem.Read(uint32(start), length)
	if err != nil {
		return nil, errors.OutOfBounds(errors.PhaseDecode, path, addr, err)
	}
	return b, nil
}

func word(mem wasmejson.Memory, addr, off uint32, path []string) (uint32, error) {
	b, err := span(mem, addr, off, 4, path)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}
