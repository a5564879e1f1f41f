// Package hasher selects and applies the 64-bit hash family used to turn
// k-mer byte strings into sketch-ready hash values.
package hasher

import (
	"fmt"
	"math/bits"

	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Algorithm is the closed tag recorded in a Sketch header identifying
// which hash family produced its hashes. Comparisons across differing
// Algorithm values are a hard error (see src/compare).
type Algorithm uint8

const (
	// Default picks ahash for k-mers shorter than shortKeyCrossover bytes
	// and xxh3 otherwise. The crossover is fixed at build time so that a
	// sketch built under Default is reproducible regardless of runtime
	// conditions.
	Default Algorithm = iota
	// Xxhash always uses the xxh3 64-bit hash, regardless of key length.
	Xxhash
	// Ahash always uses the short-key fallback hash, even for k-mers that
	// would be better served by xxh3. Included for callers that want a
	// fast, deterministic hash and don't care about xxh3's better mixing
	// on large keys.
	Ahash
	// Murmur3 takes the low 64 bits of the 128-bit MurmurHash3 variant,
	// seed fixed at 42. Exists purely for interop with the sourmash
	// signature format (see src/codec).
	Murmur3
)

// shortKeyCrossover is the byte length below which Default dispatches to
// the short-key hash rather than xxh3. This is the one place the
// crossover is decided; changing it changes every Default-algorithm
// sketch's hash values, so it must never vary at runtime.
const shortKeyCrossover = 32

// murmur3Seed is fixed so that sketches sketched in Murmur3 mode are
// comparable to sourmash signatures generated with the same seed.
const murmur3Seed = 42

// ahash key/rotation constants, chosen (as in the reference
// implementation) by reading digits of pi; they only need to be good
// enough to decorrelate adjacent k-mers, not cryptographically sound.
const (
	ahashKey1 uint64 = 0xe12119c4114f22a7
	ahashKey2 uint32 = 0x60e5
)

func (a Algorithm) String() string {
	switch a {
	case Default:
		return "default"
	case Xxhash:
		return "xxhash"
	case Ahash:
		return "ahash"
	case Murmur3:
		return "murmur3"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// ParseAlgorithm converts a CLI/config string to an Algorithm tag.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "default":
		return Default, nil
	case "xxhash":
		return Xxhash, nil
	case "ahash":
		return Ahash, nil
	case "murmur3":
		return Murmur3, nil
	}
	return 0, fmt.Errorf("unrecognised hash algorithm: %q", s)
}

// Hasher hashes byte-slice k-mers to uint64 for one chosen Algorithm. A
// Hasher is stateless beyond its Algorithm tag and is safe for concurrent
// use by multiple sketching workers.
type Hasher struct {
	algo Algorithm
}

// New constructs a Hasher for the given algorithm.
func New(algo Algorithm) *Hasher {
	return &Hasher{algo: algo}
}

// Algorithm returns the Hasher's configured variant.
func (h *Hasher) Algorithm() Algorithm {
	return h.algo
}

// Hash hashes kmer under the Hasher's configured algorithm. It is the
// single call site the rest of the sketching pipeline uses; dispatch on
// Algorithm happens here and nowhere else.
func (h *Hasher) Hash(kmer []byte) uint64 {
	switch h.algo {
	case Xxhash:
		return xxh3.Hash(kmer)
	case Ahash:
		return ahash(kmer)
	case Murmur3:
		lo, _ := murmur3.Sum128WithSeed(kmer, murmur3Seed)
		return lo
	default: // Default
		if len(kmer) < shortKeyCrossover {
			return ahash(kmer)
		}
		return xxh3.Hash(kmer)
	}
}

// ahash is a simplified ahash-fallback hash: it only behaves well on
// keys that fit in a uint64, so k-mers are first packed big-endian
// (truncating/zero-extending to 8 bytes) before the multiply-rotate
// mixing step. This mirrors the reference implementation's approach of
// treating short keys as plain integers rather than hashing them
// byte-by-byte.
func ahash(kmer []byte) uint64 {
	var packed uint64
	for _, b := range kmer {
		packed = packed<<8 | uint64(b)
	}
	hi, lo := bits.Mul64(packed^ahashKey1, 6364136223846793005)
	folded := lo ^ hi
	return rotl64(folded, ahashKey2)
}

func rotl64(x uint64, k uint32) uint64 {
	k &= 63
	return x<<k | x>>(64-k)
}
