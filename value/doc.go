// Package value defines the closed value domain that the codec encodes:
// null, booleans, numbers, 64-bit integers, strings, arrays, objects and the
// Left/Right sum type.
//
// Host data enters through Converter (or FromNative); there is no implicit
// inspection of arbitrary Go types during encoding.
package value
