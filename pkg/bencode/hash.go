package bencode

import (
	"fmt"

	"github.com/al002/zbencode/pkg/infohash"
)

const HashSize = infohash.Size

type Hash = infohash.T

// HashOf digests b exactly as given.
func HashOf(b []byte) Hash {
	return infohash.HashBytes(b)
}

// HashSpan digests the bytes s covers in data. The digest is taken over the
// original encoding, not a re-encoding, so non-canonical input keeps its
// identity.
func HashSpan(data []byte, s Span) (Hash, error) {
	if s.Start < 0 || s.End < s.Start || s.End > int64(len(data)) {
		return Hash{}, fmt.Errorf("bencode: span [%d, %d) out of range for %d bytes", s.Start, s.End, len(data))
	}

	return HashOf(data[s.Start:s.End]), nil
}

// DecodeHash skips the next value and digests the bytes it occupied.
func (d *Decoder) DecodeHash() (Hash, error) {
	s, err := d.Skip()
	if err != nil {
		return Hash{}, err
	}

	return HashOf(d.data[s.Start:s.End]), nil
}
