package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		input          Value
		expectedOutput string
	}{
		{
			input:          Integer(42),
			expectedOutput: "i42e",
		},
		{
			input:          Integer(0),
			expectedOutput: "i0e",
		},
		{
			input:          Integer(-42),
			expectedOutput: "i-42e",
		},
		{
			input:          Integer(-9223372036854775808),
			expectedOutput: "i-9223372036854775808e",
		},
		{
			input:          String("spam"),
			expectedOutput: "4:spam",
		},
		{
			input:          String(nil),
			expectedOutput: "0:",
		},
		{
			input:          String("\x00\xff"),
			expectedOutput: "2:\x00\xff",
		},
		{
			input:          List{String("spam"), String("eggs")},
			expectedOutput: "l4:spam4:eggse",
		},
		{
			input:          List(nil),
			expectedOutput: "le",
		},
		{
			input:          Dict{"spam": String("eggs"), "cow": String("moo")},
			expectedOutput: "d3:cow3:moo4:spam4:eggse",
		},
		{
			input:          Dict(nil),
			expectedOutput: "de",
		},
		{
			input: Dict{
				"b":  Integer(2),
				"aa": Integer(3),
				"a":  Integer(1),
				"":   Integer(0),
			},
			expectedOutput: "d0:i0e1:ai1e2:aai3e1:bi2ee",
		},
		{
			input: Dict{
				"list":   List{Integer(1), Integer(2), Integer(3)},
				"nested": Dict{"y": Integer(20), "x": Integer(10)},
			},
			expectedOutput: "d4:listli1ei2ei3ee6:nestedd1:xi10e1:yi20eee",
		},
		{
			input:          Dict{"\xff": Integer(1), "z": Integer(2)},
			expectedOutput: "d1:zi2e1:\xffi1ee",
		},
	}

	for i, tc := range testCases {
		testName := fmt.Sprintf("TestCase-%d", i)
		t.Run(testName, func(t *testing.T) {
			buffer := new(bytes.Buffer)
			encoder := NewEncoder(buffer)
			err := encoder.Encode(tc.input)

			require.NoError(t, err)
			assert.Equal(t, tc.expectedOutput, buffer.String())

			out, err := Encode(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedOutput, string(out))
		})
	}
}

func TestEncodeInvalidValue(t *testing.T) {
	_, err := Encode(nil)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Encode(List{Integer(1), nil})
	assert.ErrorIs(t, err, ErrInvalidValue)

	var ee *EncodeError
	assert.ErrorAs(t, err, &ee)
}

func TestEncodeLengthLimit(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.MaxStrLen = 3

	err := e.Encode(String("spam"))
	assert.ErrorIs(t, err, ErrLengthOverflow)

	err = e.Encode(Dict{"long": Integer(1)})
	assert.ErrorIs(t, err, ErrLengthOverflow)

	buf.Reset()
	require.NoError(t, e.Encode(String("egg")))
	assert.Equal(t, "3:egg", buf.String())
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}

func TestEncodeWriterError(t *testing.T) {
	err := NewEncoder(failingWriter{}).Encode(List{Integer(1)})
	assert.ErrorIs(t, err, errWrite)
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		Integer(0),
		Integer(-1),
		String(""),
		String(strings.Repeat("x", 1000)),
		List{},
		Dict{},
		List{List{List{}}, Dict{"k": List{Integer(7)}}},
		Dict{
			"announce": String("udp://tracker"),
			"info": Dict{
				"name":         String("file"),
				"piece length": Integer(16384),
				"pieces":       String(bytes.Repeat([]byte{0xab}, 40)),
			},
		},
	}

	for i, v := range values {
		t.Run(fmt.Sprintf("Value-%d", i), func(t *testing.T) {
			data, err := Encode(v)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.True(t, Equal(v, decoded), "expected %#v, got %#v", v, decoded)

			again, err := Encode(decoded)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestCanonicalInputRoundTrip(t *testing.T) {
	inputs := []string{
		"i42e",
		"4:spam",
		"l4:spam4:eggse",
		"d3:cow3:moo4:spam4:eggse",
		"d4:infod6:lengthi3e4:name3:fooe4:listli-7eee",
	}

	for _, in := range inputs {
		v, err := Decode([]byte(in))
		require.NoError(t, err)

		out, err := Encode(v)
		require.NoError(t, err)
		assert.Equal(t, in, string(out))
	}
}
