package bencode

import (
	"fmt"
	"io"
	"strconv"
)

type Encoder struct {
	// MaxStrLen caps the length of any string or key written. Zero means
	// DefaultDecodeMaxStrLen, so the output always decodes with default limits.
	MaxStrLen int64

	w       io.Writer
	scratch [24]byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the canonical encoding of v. Dict keys are written in
// ascending byte order whatever order they were inserted in.
func (e *Encoder) Encode(v Value) error {
	switch v := v.(type) {
	case Integer:
		return e.writeInt(int64(v))
	case String:
		return e.writeBytes(v)
	case List:
		if err := e.writeByte('l'); err != nil {
			return err
		}
		for _, item := range v {
			if err := e.Encode(item); err != nil {
				return err
			}
		}
		return e.writeByte('e')
	case Dict:
		if err := e.writeByte('d'); err != nil {
			return err
		}
		for _, key := range v.SortedKeys() {
			if err := e.writeString(key); err != nil {
				return err
			}
			if err := e.Encode(v[key]); err != nil {
				return err
			}
		}
		return e.writeByte('e')
	case nil:
		return &EncodeError{Err: ErrInvalidValue, Detail: "nil value"}
	default:
		return &EncodeError{Err: ErrInvalidValue, Detail: fmt.Sprintf("unknown value type %T", v)}
	}
}

func (e *Encoder) writeInt(n int64) error {
	b := append(e.scratch[:0], 'i')
	b = strconv.AppendInt(b, n, 10)
	b = append(b, 'e')
	return e.write(b)
}

func (e *Encoder) writeStringPrefix(l int) error {
	if int64(l) > e.getMaxStrLen() {
		return &EncodeError{
			Err:    ErrLengthOverflow,
			Detail: fmt.Sprintf("length %d exceeds limit [%d]", l, e.getMaxStrLen()),
		}
	}

	b := strconv.AppendInt(e.scratch[:0], int64(l), 10)
	b = append(b, ':')
	return e.write(b)
}

func (e *Encoder) writeBytes(s []byte) error {
	if err := e.writeStringPrefix(len(s)); err != nil {
		return err
	}

	return e.write(s)
}

func (e *Encoder) writeString(s string) error {
	if err := e.writeStringPrefix(len(s)); err != nil {
		return err
	}

	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) writeByte(c byte) error {
	e.scratch[0] = c
	return e.write(e.scratch[:1])
}

func (e *Encoder) write(s []byte) error {
	_, err := e.w.Write(s)
	return err
}

func (e *Encoder) getMaxStrLen() int64 {
	if e.MaxStrLen == 0 {
		return DefaultDecodeMaxStrLen
	}
	return e.MaxStrLen
}
