package bencode

import (
	"fmt"
	"strconv"
	"unsafe"
)

const (
	DefaultDecodeMaxStrLen = 1<<27 - 1 // ~128MiB
	DefaultMaxDepth        = 512
)

// Decoder reads bencode values from a fully buffered input. Values returned
// by Decode own their bytes; ReadBytes returns views into the input.
type Decoder struct {
	// MaxStrLen caps declared string lengths. Zero means DefaultDecodeMaxStrLen.
	MaxStrLen int64
	// MaxDepth caps list/dict nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// AllowUnsortedKeys accepts dict keys in any order. Duplicates are still
	// rejected.
	AllowUnsortedKeys bool
	// Offset is the position of the next byte to read.
	Offset int64

	data  []byte
	depth int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of unread bytes. It is zero when Offset is
// outside the input.
func (d *Decoder) Remaining() int {
	if !d.offsetValid() {
		return 0
	}

	return len(d.data) - int(d.Offset)
}

// Decode reads the next value.
func (d *Decoder) Decode() (Value, error) {
	v, _, err := d.DecodeSpan()
	return v, err
}

// DecodeSpan reads the next value and reports the bytes it was decoded from.
func (d *Decoder) DecodeSpan() (Value, Span, error) {
	start := d.Offset

	v, err := d.parseValue()
	if err != nil {
		return nil, Span{}, err
	}

	return v, Span{Start: start, End: d.Offset}, nil
}

// Skip validates the next value without building it.
func (d *Decoder) Skip() (Span, error) {
	start := d.Offset

	if err := d.skipValue(); err != nil {
		return Span{}, err
	}

	return Span{Start: start, End: d.Offset}, nil
}

// Peek returns the next byte without consuming it.
func (d *Decoder) Peek() (byte, error) {
	if err := d.checkOffset(); err != nil {
		return 0, err
	}

	if d.Offset >= int64(len(d.data)) {
		return 0, d.makeDecodeError(d.Offset, ErrUnexpectedEnd, "")
	}

	return d.data[d.Offset], nil
}

// ReadInt reads an i<n>e integer.
func (d *Decoder) ReadInt() (int64, error) {
	if err := d.expect('i'); err != nil {
		return 0, err
	}

	return d.readNumber('e', true)
}

// ReadBytes reads a <len>:<bytes> string. The result aliases the input.
func (d *Decoder) ReadBytes() (ByteStr, error) {
	start := d.Offset

	n, err := d.readNumber(':', false)
	if err != nil {
		return nil, err
	}

	if n > d.getMaxStrLen() {
		return nil, d.makeDecodeError(start, ErrStringTooLong,
			fmt.Sprintf("parsed string length %d exceeds limit [%d]", n, d.getMaxStrLen()))
	}

	if rem := int64(d.Remaining()); n > rem {
		return nil, d.makeDecodeError(int64(len(d.data)), ErrUnexpectedEnd,
			fmt.Sprintf("string declares %d bytes, %d available", n, rem))
	}

	end := d.Offset + n
	b := d.data[d.Offset:end:end]
	d.Offset = end

	return ByteStr(b), nil
}

// ReadEOF fails with ErrTrailingBytes if any input is left.
func (d *Decoder) ReadEOF() error {
	if err := d.checkOffset(); err != nil {
		return err
	}

	if rem := d.Remaining(); rem > 0 {
		return d.makeDecodeError(d.Offset, ErrTrailingBytes,
			fmt.Sprintf("%d unused trailing bytes", rem))
	}

	return nil
}

func (d *Decoder) parseValue() (Value, error) {
	b, err := d.Peek()
	if err != nil {
		return nil, err
	}

	switch {
	case b == 'i':
		n, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		return Integer(n), nil
	case b == 'l':
		return d.parseList()
	case b == 'd':
		return d.parseDict()
	case isDigit(b):
		s, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}
		return s.Own(), nil
	default:
		return nil, d.unknownValueType(b, d.Offset)
	}
}

func (d *Decoder) parseList() (List, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	list := List{}

	for {
		b, err := d.Peek()
		if err != nil {
			return nil, err
		}

		if b == 'e' {
			d.Offset++
			return list, nil
		}

		v, err := d.parseValue()
		if err != nil {
			return nil, err
		}

		list = append(list, v)
	}
}

func (d *Decoder) parseDict() (Dict, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	dict := Dict{}
	var keys keyChecker

	for {
		b, err := d.Peek()
		if err != nil {
			return nil, err
		}

		if b == 'e' {
			d.Offset++
			return dict, nil
		}

		keyStart := d.Offset
		key, err := d.ReadBytes()
		if err != nil {
			return nil, err
		}

		if err := d.checkKey(&keys, key, keyStart); err != nil {
			return nil, err
		}

		v, err := d.parseValue()
		if err != nil {
			return nil, err
		}

		dict[string(key)] = v
	}
}

func (d *Decoder) skipValue() error {
	b, err := d.Peek()
	if err != nil {
		return err
	}

	switch {
	case b == 'i':
		_, err := d.ReadInt()
		return err
	case isDigit(b):
		_, err := d.ReadBytes()
		return err
	case b == 'l':
		if err := d.enter(); err != nil {
			return err
		}
		defer d.leave()

		for {
			b, err := d.Peek()
			if err != nil {
				return err
			}
			if b == 'e' {
				d.Offset++
				return nil
			}
			if err := d.skipValue(); err != nil {
				return err
			}
		}
	case b == 'd':
		if err := d.enter(); err != nil {
			return err
		}
		defer d.leave()

		var keys keyChecker
		for {
			b, err := d.Peek()
			if err != nil {
				return err
			}
			if b == 'e' {
				d.Offset++
				return nil
			}

			keyStart := d.Offset
			key, err := d.ReadBytes()
			if err != nil {
				return err
			}
			if err := d.checkKey(&keys, key, keyStart); err != nil {
				return err
			}
			if err := d.skipValue(); err != nil {
				return err
			}
		}
	default:
		return d.unknownValueType(b, d.Offset)
	}
}

// readNumber reads a decimal number up to and including term. Only integers
// may carry a sign.
func (d *Decoder) readNumber(term byte, signed bool) (int64, error) {
	if err := d.checkOffset(); err != nil {
		return 0, err
	}

	start := int(d.Offset)
	i := start

	neg := false
	if signed && i < len(d.data) && d.data[i] == '-' {
		neg = true
		i++
	}

	digitsStart := i
	for i < len(d.data) && isDigit(d.data[i]) {
		i++
	}

	if i >= len(d.data) {
		return 0, d.makeDecodeError(int64(i), ErrUnexpectedEnd, "")
	}

	if i == digitsStart {
		return 0, d.makeDecodeError(int64(i), ErrInvalidDigit,
			fmt.Sprintf("expected digit, found %+q", d.data[i]))
	}

	if d.data[i] != term {
		return 0, d.makeDecodeError(int64(i), ErrMissingDelimiter,
			fmt.Sprintf("expected %q, found %+q", term, d.data[i]))
	}

	digits := d.data[digitsStart:i]
	if digits[0] == '0' && (neg || len(digits) > 1) {
		return 0, d.makeDecodeError(int64(start), ErrNonCanonicalInteger,
			fmt.Sprintf("%q", d.data[start:i]))
	}

	n, err := strconv.ParseInt(bytesAsString(d.data[start:i]), 10, 64)
	if err != nil {
		return 0, d.makeDecodeError(int64(start), ErrIntegerOverflow,
			fmt.Sprintf("%q", d.data[start:i]))
	}

	d.Offset = int64(i) + 1
	return n, nil
}

func (d *Decoder) expect(c byte) error {
	start := d.Offset

	b, err := d.Peek()
	if err != nil {
		return err
	}

	if b != c {
		return d.makeDecodeError(start, ErrMissingDelimiter,
			fmt.Sprintf("expected %q, found %+q", c, b))
	}

	d.Offset++
	return nil
}

// enter consumes the opening 'l' or 'd'.
func (d *Decoder) enter() error {
	if d.depth >= d.getMaxDepth() {
		return d.makeDecodeError(d.Offset, ErrExcessiveNesting,
			fmt.Sprintf("limit %d", d.getMaxDepth()))
	}

	d.depth++
	d.Offset++
	return nil
}

func (d *Decoder) leave() {
	d.depth--
}

type keyChecker struct {
	last ByteStr
	n    int
	seen map[string]struct{}
}

func (d *Decoder) checkKey(kc *keyChecker, key ByteStr, offset int64) error {
	if kc.n > 0 {
		c := CompareKeys(key, kc.last)
		if c == 0 {
			return d.makeDecodeError(offset, ErrDuplicateKey, fmt.Sprintf("%q", key))
		}
		if c < 0 && !d.AllowUnsortedKeys {
			return d.makeDecodeError(offset, ErrNonCanonicalKeyOrder,
				fmt.Sprintf("%q <= %q", key, kc.last))
		}
	}

	if d.AllowUnsortedKeys {
		if kc.seen == nil {
			kc.seen = make(map[string]struct{})
		}
		if _, ok := kc.seen[string(key)]; ok {
			return d.makeDecodeError(offset, ErrDuplicateKey, fmt.Sprintf("%q", key))
		}
		kc.seen[string(key)] = struct{}{}
	}

	kc.last = key
	kc.n++
	return nil
}

func (d *Decoder) offsetValid() bool {
	return d.Offset >= 0 && d.Offset <= int64(len(d.data))
}

// checkOffset rejects an Offset set by the caller to a position outside the
// input.
func (d *Decoder) checkOffset() error {
	if !d.offsetValid() {
		return d.makeDecodeError(d.Offset, ErrUnexpectedEnd,
			fmt.Sprintf("offset outside input of %d bytes", len(d.data)))
	}

	return nil
}

func (d *Decoder) getMaxStrLen() int64 {
	if d.MaxStrLen == 0 {
		return DefaultDecodeMaxStrLen
	}
	return d.MaxStrLen
}

func (d *Decoder) getMaxDepth() int {
	if d.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return d.MaxDepth
}

func (d *Decoder) makeDecodeError(offset int64, err error, detail string) *DecodeError {
	return &DecodeError{
		Offset: offset,
		Err:    err,
		Detail: detail,
	}
}

// A value starts with 'i', 'l', 'd' or the first digit of a string length.
func (d *Decoder) unknownValueType(b byte, offset int64) *DecodeError {
	return d.makeDecodeError(offset, ErrInvalidDigit, fmt.Sprintf("unknown value type %+q", b))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func bytesAsString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}
