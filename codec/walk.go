package codec

import (
	stderrors "errors"
	"strconv"

	wasmejson "github.com/wippyai/wasm-ejson"
	"github.com/wippyai/wasm-ejson/errors"
)

// SkipChildren may be returned by a WalkFunc to skip the children of the
// record just visited.
var SkipChildren = stderrors.New("skip children")

// Visit describes one record reached by Walk.
type Visit struct {
	Record
	Depth int
	Path  []string
	// Key is set for the string record holding an object member's key.
	Key bool
}

// WalkFunc is called for every record in a tree, parents before children.
type WalkFunc func(Visit) error

// Walk visits the tree rooted at addr in pre-order. Object members are
// visited key first, then value. Walk stops at the first error other than
// SkipChildren and returns it. Options are those of NewDecoder; the
// nesting limit applies to the walk the same way.
func Walk(mem wasmejson.Memory, f Format, addr wasmejson.Address, fn WalkFunc, opts ...DecoderOption) error {
	return NewDecoder(mem, f, opts...).walk(addr, nil, 0, false, fn)
}

func (d *Decoder) walk(addr wasmejson.Address, path []string, depth int, key bool, fn WalkFunc) error {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return errors.DepthExceeded(path, addr, d.maxDepth)
	}
	r, err := readRecord(d.mem, d.format, addr, path)
	if err != nil {
		return err
	}
	if key && r.Tag != TagString {
		return errors.InvalidKeyType(path, addr, r.Tag)
	}

	if err := fn(Visit{Record: r, Depth: depth, Path: path, Key: key}); err != nil {
		if err == SkipChildren {
			return nil
		}
		return err
	}

	switch r.Tag {
	case TagArray:
		for i, child := range r.Children {
			if err := d.walk(child, appendPath(path, "["+strconv.Itoa(i)+"]"), depth+1, false, fn); err != nil {
				return err
			}
		}
	case TagObject:
		for i := 0; i+1 < len(r.Children); i += 2 {
			k, err := d.decodeKey(r.Children[i], path)
			if err != nil {
				return err
			}
			member := appendPath(path, k)
			if err := d.walk(r.Children[i], member, depth+1, true, fn); err != nil {
				return err
			}
			if err := d.walk(r.Children[i+1], member, depth+1, false, fn); err != nil {
				return err
			}
		}
	case TagLeft:
		return d.walk(r.Children[0], appendPath(path, LeftKey), depth+1, false, fn)
	case TagRight:
		return d.walk(r.Children[0], appendPath(path, RightKey), depth+1, false, fn)
	}
	return nil
}
