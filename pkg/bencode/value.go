package bencode

import (
	"bytes"
	"slices"
	"strconv"
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "int"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "invalid"
	}
}

// Value is one of Integer, String, List or Dict.
type Value interface {
	Kind() Kind
	isValue()
}

type Integer int64

// String is an owned byte string. It does not need to be valid UTF-8.
type String []byte

type List []Value

// Dict maps byte string keys to values. Keys are held as Go strings, which
// compare byte by byte, so sorting them gives the canonical key order.
type Dict map[string]Value

func (Integer) Kind() Kind { return KindInteger }
func (String) Kind() Kind  { return KindString }
func (List) Kind() Kind    { return KindList }
func (Dict) Kind() Kind    { return KindDict }

func (Integer) isValue() {}
func (String) isValue()  {}
func (List) isValue()    {}
func (Dict) isValue()    {}

func (i Integer) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (s String) String() string {
	return string(s)
}

// Get returns the value stored under key.
func (d Dict) Get(key string) (Value, bool) {
	v, ok := d[key]
	return v, ok
}

// SortedKeys returns the keys in canonical (byte-lexicographic) order.
func (d Dict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ByteStr is a borrowed view into the buffer a Decoder reads from. It is only
// valid while that buffer is left untouched.
type ByteStr []byte

// Own copies the view into an owned String.
func (b ByteStr) Own() String {
	return String(bytes.Clone([]byte(b)))
}

// Span is the half-open byte range [Start, End) one encoded value occupies.
type Span struct {
	Start int64
	End   int64
}

func (s Span) Len() int64 {
	return s.End - s.Start
}

// CompareKeys orders dictionary keys byte-lexicographically; a strict prefix
// sorts before the longer key.
func CompareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && bytes.Equal(x, y)
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Dict:
		y, ok := b.(Dict)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}

	return false
}
