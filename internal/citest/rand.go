package citest

import (
	"crypto/sha256"
	"math/rand/v2"
	"testing"
)

// RandomDataForTest returns sz bytes of pseudorandom data derived from the
// test name, so each test gets stable input without sharing it with others.
func RandomDataForTest(tb testing.TB, sz int) []byte {
	// Sha256 happens to be the right size for the chacha8 seed, and keys
	// the stream off the full test name rather than a truncation of it.
	seed := sha256.Sum256([]byte(tb.Name()))
	chacha := rand.NewChaCha8(seed)

	out := make([]byte, sz)
	if _, err := chacha.Read(out); err != nil {
		panic(err)
	}
	return out
}

// SevenBitDataForTest returns sz bytes of pseudorandom data with bit 7
// cleared on every byte, suitable for SysEx payloads and other fields that
// must survive 7-bit transport.
func SevenBitDataForTest(tb testing.TB, sz int) []byte {
	out := RandomDataForTest(tb, sz)
	for i := range out {
		out[i] &= 0x7F
	}
	return out
}
