package bencode

import (
	"errors"
	"fmt"
	"reflect"
)

// Decode failures. A *DecodeError wraps exactly one of these.
var (
	ErrUnexpectedEnd        = errors.New("unexpected end of input")
	ErrInvalidDigit         = errors.New("invalid digit")
	ErrMissingDelimiter     = errors.New("missing delimiter")
	ErrNonCanonicalInteger  = errors.New("non-canonical integer")
	ErrNonCanonicalKeyOrder = errors.New("dict keys out of order")
	ErrDuplicateKey         = errors.New("duplicate dict key")
	ErrIntegerOverflow      = errors.New("integer overflow")
	ErrExcessiveNesting     = errors.New("nesting too deep")
	ErrTrailingBytes        = errors.New("trailing bytes after value")
	ErrStringTooLong        = errors.New("string length exceeds limit")
)

// Encode failures. An *EncodeError wraps exactly one of these.
var (
	ErrIntegerOutOfRange = errors.New("integer out of range")
	ErrLengthOverflow    = errors.New("string length overflow")
	ErrInvalidValue      = errors.New("invalid value")
)

// Lookup failures returned by FindSpan.
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrNotDict     = errors.New("value is not a dict")
)

// Malformed bencode input
type DecodeError struct {
	Offset int64
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bencode: decode error at offset %d: %s", e.Offset, e.Err)
	}
	return fmt.Sprintf("bencode: decode error at offset %d: %s: %s", e.Offset, e.Err, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type EncodeError struct {
	Err    error
	Detail string
}

func (e *EncodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bencode: encode error: %s", e.Err)
	}
	return fmt.Sprintf("bencode: encode error: %s: %s", e.Err, e.Detail)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// float32/float64 has no bencode representation
type MarshalTypeError struct {
	Type reflect.Type
}

func (e *MarshalTypeError) Error() string {
	return fmt.Sprintf("bencode: unsupported type: %s", e.Type.String())
}

// Argument must be a non-nil value of some pointer type
type UnmarshalInvalidArgError struct {
	Type reflect.Type
}

func (e *UnmarshalInvalidArgError) Error() string {
	if e.Type == nil {
		return "bencode: Unmarshal(nil)"
	}

	if e.Type.Kind() != reflect.Ptr {
		return fmt.Sprintf("bencode: Unmarshal(non-pointer %s)", e.Type.String())
	}

	return fmt.Sprintf("bencode: Unmarshal(nil %s)", e.Type.String())
}

// A value that was not a appropriate Go value
type UnmarshalTypeError struct {
	BencodeTypeName     string
	UnmarshalTargetType reflect.Type
}

func (e *UnmarshalTypeError) Error() string {
	return fmt.Sprintf(
		"bencode: cannot unmarshal a bencode %v into a %v",
		e.BencodeTypeName,
		e.UnmarshalTargetType,
	)
}
