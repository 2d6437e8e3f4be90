package infohash

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

const Size = sha1.Size

// 20-byte SHA1 digest of an encoded value.
type T [Size]byte

func HashBytes(b []byte) T {
	return T(sha1.Sum(b))
}

func (t T) String() string {
	return t.HexString()
}

func (t T) HexString() string {
	return hex.EncodeToString(t[:])
}

func (t T) IsZero() bool {
	return t == T{}
}

func (t *T) FromHexString(s string) error {
	if len(s) != 2*Size {
		return fmt.Errorf("hash hex string has bad length: %d", len(s))
	}

	var h T
	n, err := hex.Decode(h[:], []byte(s))
	if err != nil {
		return err
	}

	if n != Size {
		return fmt.Errorf("hex.Decode decoded %d bytes, expected %d", n, Size)
	}

	*t = h
	return nil
}

func (t T) MarshalText() ([]byte, error) {
	return []byte(t.HexString()), nil
}

func (t *T) UnmarshalText(b []byte) error {
	return t.FromHexString(string(b))
}

func FromHexString(s string) (h T, err error) {
	err = h.FromHexString(s)
	if err != nil {
		return T{}, err
	}

	return h, nil
}
