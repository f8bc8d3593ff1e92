package hthash

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Digest is the output of a [Hasher].
// Two digests are equal iff their byte contents are equal.
//
// The text form of a Digest is lowercase hex,
// so a Digest is rendered as a hex string in JSON.
type Digest []byte

// ParseDigest decodes a hex string into a Digest.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode digest %q: %w", s, err)
	}
	return Digest(b), nil
}

// Equal reports whether d and o have identical contents.
func (d Digest) Equal(o Digest) bool {
	return bytes.Equal(d, o)
}

// Clone returns a copy of d that shares no memory with d.
func (d Digest) Clone() Digest {
	if d == nil {
		return nil
	}
	return bytes.Clone(d)
}

func (d Digest) String() string {
	return hex.EncodeToString(d)
}

func (d Digest) MarshalText() ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(d)))
	hex.Encode(out, d)
	return out, nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	out := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(out, text); err != nil {
		return fmt.Errorf("failed to decode digest text: %w", err)
	}
	*d = out
	return nil
}
