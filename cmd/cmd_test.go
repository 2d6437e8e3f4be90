package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/al002/zbencode/internal/config"
	"github.com/al002/zbencode/internal/transcode"
	"github.com/al002/zbencode/pkg/bencode"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultDecodeConfig() *config.DecodeConfig {
	return &config.DecodeConfig{
		MaxDepth:        bencode.DefaultMaxDepth,
		MaxStringLength: bencode.DefaultDecodeMaxStrLen,
	}
}

func TestDecodeTo(t *testing.T) {
	out, err := decodeTo(defaultDecodeConfig(), []byte("d3:cow3:moo4:spaml1:ai7eee"), transcode.JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cow": "moo", "spam": ["a", 7]}`, string(out))

	_, err = decodeTo(defaultDecodeConfig(), []byte("i1ei2e"), transcode.JSON)
	assert.ErrorIs(t, err, bencode.ErrTrailingBytes)

	_, err = decodeTo(defaultDecodeConfig(), []byte("d1:bi1e1:ai2ee"), transcode.JSON)
	assert.ErrorIs(t, err, bencode.ErrNonCanonicalKeyOrder)

	lenient := defaultDecodeConfig()
	lenient.AllowUnsortedKeys = true
	out, err = decodeTo(lenient, []byte("d1:bi1e1:ai2ee"), transcode.JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2, "b": 1}`, string(out))
}

func TestEncodeFromFormat(t *testing.T) {
	c := &config.EncodeConfig{MaxStringLength: bencode.DefaultDecodeMaxStrLen}

	out, err := encodeFromFormat(c, []byte(`{"spam": ["a", 7], "cow": "moo"}`), transcode.JSON)
	require.NoError(t, err)
	assert.Equal(t, "d3:cow3:moo4:spaml1:ai7eee", string(out))

	c.MaxStringLength = 2
	_, err = encodeFromFormat(c, []byte(`"long"`), transcode.JSON)
	assert.ErrorIs(t, err, bencode.ErrLengthOverflow)
}

func TestDecodeEncodeThroughCBOR(t *testing.T) {
	input := []byte("d4:infod6:lengthi3e4:name3:fooe4:listli-7eee")

	cborData, err := decodeTo(defaultDecodeConfig(), input, transcode.CBOR)
	require.NoError(t, err)

	out, err := encodeFromFormat(&config.EncodeConfig{MaxStringLength: 100}, cborData, transcode.CBOR)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestHashPath(t *testing.T) {
	input := []byte("d8:announce3:url4:infod6:lengthi3e4:name3:fooee")

	h, err := hashPath(defaultDecodeConfig(), input, nil)
	require.NoError(t, err)
	assert.Equal(t, bencode.HashOf(input), h)

	h, err = hashPath(defaultDecodeConfig(), input, []string{"info"})
	require.NoError(t, err)
	assert.Equal(t, bencode.HashOf([]byte("d6:lengthi3e4:name3:fooe")), h)

	_, err = hashPath(defaultDecodeConfig(), input, []string{"nope"})
	assert.ErrorIs(t, err, bencode.ErrKeyNotFound)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		output  string
		wantErr error
	}{
		{"canonical", "d3:foo3:bare", "valid: dict, canonical\n", nil},
		{"integer", "i-3e", "valid: int, canonical\n", nil},
		{"leading zero", "i03e", "invalid: non-canonical integer at offset 1\n", bencode.ErrNonCanonicalInteger},
		{"unsorted", "d1:bi1e1:ai2ee", "invalid: dict keys out of order at offset 7\n", bencode.ErrNonCanonicalKeyOrder},
		{"truncated", "l4:spa", "invalid: unexpected end of input at offset 6\n", bencode.ErrUnexpectedEnd},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := validate(&buf, defaultDecodeConfig(), []byte(tc.input))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, errNotValid)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.output, buf.String())
		})
	}
}

func TestReadWriteFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bencode")
	require.NoError(t, os.WriteFile(in, []byte("i42e"), 0644))

	c := &cobra.Command{}
	data, err := readInput(c, in)
	require.NoError(t, err)
	assert.Equal(t, "i42e", string(data))

	c.SetIn(bytes.NewReader([]byte("le")))
	data, err = readInput(c, "-")
	require.NoError(t, err)
	assert.Equal(t, "le", string(data))

	_, err = readInput(c, filepath.Join(dir, "missing"))
	assert.Error(t, err)

	var stdout bytes.Buffer
	c.SetOut(&stdout)
	require.NoError(t, writeOutput(c, "", []byte("x")))
	assert.Equal(t, "x", stdout.String())

	out := filepath.Join(dir, "out")
	require.NoError(t, writeOutput(c, out, []byte("y")))
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "y", string(got))
}

func TestValidateUsesDecodeLimits(t *testing.T) {
	c := defaultDecodeConfig()
	c.MaxDepth = 1
	c.MaxStringLength = 3
	c.AllowUnsortedKeys = true

	var buf bytes.Buffer
	err := validate(&buf, c, []byte("llee"))
	assert.ErrorIs(t, err, bencode.ErrExcessiveNesting)
	assert.Equal(t, "invalid: nesting too deep at offset 1\n", buf.String())

	buf.Reset()
	err = validate(&buf, c, []byte("4:spam"))
	assert.ErrorIs(t, err, bencode.ErrStringTooLong)

	buf.Reset()
	err = validate(&buf, c, []byte("d1:bi1e1:ai2ee"))
	assert.ErrorIs(t, err, bencode.ErrNonCanonicalKeyOrder)
	assert.True(t, c.AllowUnsortedKeys)

	buf.Reset()
	require.NoError(t, validate(&buf, c, []byte("l3:abce")))
	assert.Equal(t, "valid: list, canonical\n", buf.String())
}

func TestDecodeEncodeBinaryThroughJSON(t *testing.T) {
	input := []byte("d6:pieces3:\x00\xff\xfee")

	jsonData, err := decodeTo(defaultDecodeConfig(), input, transcode.JSON)
	require.NoError(t, err)

	out, err := encodeFromFormat(&config.EncodeConfig{MaxStringLength: 100}, jsonData, transcode.JSON)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}
