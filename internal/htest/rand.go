package htest

import (
	"crypto/sha256"
	"math/rand/v2"
	"testing"
)

// RandomDataForTest returns sz bytes of pseudorandom data.
// The generator is seeded from the test's name,
// so every run of a given test sees the same data.
func RandomDataForTest(t testing.TB, sz int) []byte {
	out := make([]byte, sz)
	if _, err := chachaForTest(t).Read(out); err != nil {
		t.Fatalf("failed to read random data: %v", err)
	}
	return out
}

// RandomBlocksForTest returns n blocks of blockSize pseudorandom bytes each,
// sharing one backing allocation.
func RandomBlocksForTest(t testing.TB, n, blockSize int) [][]byte {
	data := RandomDataForTest(t, n*blockSize)

	out := make([][]byte, n)
	for i := range out {
		out[i] = data[i*blockSize : (i+1)*blockSize : (i+1)*blockSize]
	}
	return out
}

func chachaForTest(t testing.TB) *rand.ChaCha8 {
	// A SHA-256 sum is exactly a ChaCha8 seed.
	return rand.NewChaCha8(sha256.Sum256([]byte(t.Name())))
}
