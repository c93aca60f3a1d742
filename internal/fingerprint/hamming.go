package fingerprint

import (
	"math/bits"
	"strings"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// bitsToHex renders a bit vector as a lowercase hex string, four bits per
// character, MSB first. Trailing bits of a partial nibble are zero-padded.
func bitsToHex(bitvec []bool) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	for i := 0; i < len(bitvec); i += 4 {
		var v byte
		for j := 0; j < 4; j++ {
			v <<= 1
			if i+j < len(bitvec) && bitvec[i+j] {
				v |= 1
			}
		}
		sb.WriteByte(digits[v])
	}
	return sb.String()
}

// hexNibble decodes a single hex character.
func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// HammingDistance counts the differing bits between two hex-encoded hashes.
// Hashes must share the same bit length; a mismatch is a usage error.
func HammingDistance(hashA, hashB string) (int, error) {
	if len(hashA) == 0 || len(hashB) == 0 {
		return 0, errcode.New(errcode.HashError, "empty hash string")
	}
	if len(hashA) != len(hashB) {
		return 0, errcode.New(errcode.HashError,
			"hash length mismatch: %d vs %d hex digits", len(hashA), len(hashB))
	}

	distance := 0
	for i := 0; i < len(hashA); i++ {
		a, okA := hexNibble(hashA[i])
		b, okB := hexNibble(hashB[i])
		if !okA || !okB {
			return 0, errcode.New(errcode.HashError, "invalid hex hash string")
		}
		distance += bits.OnesCount8(a ^ b)
	}
	return distance, nil
}

// Similarity maps the Hamming distance between two hashes to [0,1], where 1
// means identical fingerprints.
func Similarity(hashA, hashB string) (float64, error) {
	distance, err := HammingDistance(hashA, hashB)
	if err != nil {
		return 0, err
	}

	totalBits := len(hashA) * 4
	similarity := 1 - float64(distance)/float64(totalBits)
	return min(1, max(0, similarity)), nil
}
