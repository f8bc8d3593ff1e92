package htsha256

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gordian-engine/hashtree/hthash"
)

const HashSize = sha256.Size

// HexHashSize is the size of a [HexHasher] digest,
// which is the hex text of a SHA-256 sum.
const HexHashSize = 2 * sha256.Size

var (
	_ hthash.Hasher = Hasher{}
	_ hthash.Hasher = HexHasher{}
)

// Hasher is an [hthash.Hasher] backed by SHA256 hashes.
// Leaves are the SHA256 of the leaf data,
// and nodes are the SHA256 of the left digest followed by the right digest.
type Hasher struct{}

func (Hasher) Leaf(in, dst []byte) []byte {
	h := sha256.New()
	_, _ = h.Write(in)
	return h.Sum(dst)
}

func (Hasher) Node(left, right, dst []byte) []byte {
	h := sha256.New()
	_, _ = h.Write(left)
	_, _ = h.Write(right)
	return h.Sum(dst)
}

// HexHasher is an [hthash.Hasher] whose digests are
// the lowercase hex text of SHA256 sums.
// Nodes hash the concatenated hex text of their children.
//
// This matches trees produced by tools that carry digests as hex strings,
// so roots computed with HexHasher can be compared with theirs directly.
//
// A [hthash.Digest] always marshals as the hex of its bytes,
// so HexHasher digests appear hex-encoded twice in JSON.
// Convert with string(d) to get the text those tools print.
type HexHasher struct{}

func (HexHasher) Leaf(in, dst []byte) []byte {
	sum := sha256.Sum256(in)
	return hex.AppendEncode(dst, sum[:])
}

func (HexHasher) Node(left, right, dst []byte) []byte {
	h := sha256.New()
	_, _ = h.Write(left)
	_, _ = h.Write(right)

	var sum [sha256.Size]byte
	return hex.AppendEncode(dst, h.Sum(sum[:0]))
}

// Sum returns the raw SHA256 digest of data.
func Sum(data []byte) hthash.Digest {
	sum := sha256.Sum256(data)
	return sum[:]
}
