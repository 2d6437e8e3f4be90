// Package bencode implements the bencode format: integers, byte strings,
// lists and dictionaries with sorted keys.
//
// Decode and Encode work on Value trees. Marshal and Unmarshal map Go values
// through reflection. HashOf and HashSpan digest the original encoded bytes
// of a value, which is what info-hash style identities need.
package bencode

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
)

// Decode decodes exactly one value from data. Trailing bytes are an error.
func Decode(data []byte) (Value, error) {
	d := NewDecoder(data)

	v, err := d.Decode()
	if err != nil {
		return nil, err
	}

	if err := d.ReadEOF(); err != nil {
		return nil, err
	}

	return v, nil
}

// DecodePrefix decodes the first value in data and returns how many bytes it
// used. Anything after it is left alone.
func DecodePrefix(data []byte) (Value, int, error) {
	d := NewDecoder(data)

	v, err := d.Decode()
	if err != nil {
		return nil, 0, err
	}

	return v, int(d.Offset), nil
}

// Encode returns the canonical encoding of v.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer

	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Marshal(v interface{}) ([]byte, error) {
	val, err := ValueOf(v)
	if err != nil {
		return nil, err
	}

	return Encode(val)
}

func Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return &UnmarshalInvalidArgError{reflect.TypeOf(v)}
	}

	d := NewDecoder(data)
	if err := d.unmarshalValue(rv.Elem()); err != nil {
		return err
	}

	return d.ReadEOF()
}

// FindSpan locates the value reached by following path through nested
// dicts. The whole input is validated first.
func FindSpan(data []byte, path ...string) (Span, error) {
	return NewDecoder(data).FindSpan(path...)
}

// FindSpan is like the package level FindSpan but applies the decoder's
// limits and key ordering mode. The value at the current offset must be the
// last one in the input. On success the decoder is left at the end of input.
func (d *Decoder) FindSpan(path ...string) (Span, error) {
	start := d.Offset

	root, err := d.Skip()
	if err != nil {
		return Span{}, err
	}

	if err := d.ReadEOF(); err != nil {
		return Span{}, err
	}

	if len(path) == 0 {
		return root, nil
	}

	d.Offset = start
	for i, key := range path {
		if err := d.seekKey(key); err != nil {
			return Span{}, fmt.Errorf("bencode: %w: %s", err, strings.Join(path[:i+1], "."))
		}
	}

	s, err := d.Skip()
	if err != nil {
		return Span{}, err
	}
	d.Offset = root.End

	return s, nil
}

// seekKey moves to the value stored under key in the dict at the current
// position. The input must already be known valid.
func (d *Decoder) seekKey(key string) error {
	b, err := d.Peek()
	if err != nil {
		return err
	}

	if b != 'd' {
		return ErrNotDict
	}
	d.Offset++

	for {
		b, err := d.Peek()
		if err != nil {
			return err
		}

		if b == 'e' {
			return ErrKeyNotFound
		}

		k, err := d.ReadBytes()
		if err != nil {
			return err
		}

		if string(k) == key {
			return nil
		}

		if _, err := d.Skip(); err != nil {
			return err
		}
	}
}
