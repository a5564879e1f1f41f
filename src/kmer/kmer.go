// Package kmer extracts canonical k-mer hashes from a nucleotide
// sequence. It knows nothing about sketch policy or storage; it is
// purely "sequence bytes in, canonical hashes out".
package kmer

import "github.com/will-rowe/jam/src/hasher"

// complement is a lookup table used during reverse complementation; it
// is only ever indexed with bytes already normalized by normalizeBase.
var complement = []byte{
	'A': 'T',
	'C': 'G',
	'G': 'C',
	'T': 'A',
}

// normalizeBase upper-cases a base and maps U to T (RNA read as DNA).
// ok is false for anything outside {A,C,G,T} post-normalization, which
// poisons the current window per spec.
func normalizeBase(b byte) (base byte, ok bool) {
	if b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	if b == 'U' {
		b = 'T'
	}
	switch b {
	case 'A', 'C', 'G', 'T':
		return b, true
	default:
		return 0, false
	}
}

// Iterator yields canonical k-mer hashes from a sequence, one window at
// a time, in the manner of bufio.Scanner: call Next until it returns
// false, then read Hash. Iterator is single-pass and not safe for
// concurrent use; callers processing many records run one Iterator per
// record.
type Iterator struct {
	seq    []byte
	k      int
	hasher *hasher.Hasher

	pos int // index into seq of the next base to consume

	window     []byte // normalized bases currently held, length k once filled
	filled     int    // number of valid consecutive bases currently buffered (caps at k)
	fwd        []byte // scratch buffer, reused across windows
	rc         []byte // scratch buffer, reused across windows

	numKmers uint64 // count of valid windows seen so far
	curHash  uint64
}

// NewIterator constructs an Iterator over seq with the given window size
// k, hashing each canonical k-mer with h.
func NewIterator(seq []byte, k int, h *hasher.Hasher) *Iterator {
	return &Iterator{
		seq:    seq,
		k:      k,
		hasher: h,
		window: make([]byte, k),
		fwd:    make([]byte, k),
		rc:     make([]byte, k),
	}
}

// Next advances the iterator to the next valid window, if any. It
// returns false once the sequence is exhausted.
func (it *Iterator) Next() bool {
	for it.pos < len(it.seq) {
		b, ok := normalizeBase(it.seq[it.pos])
		it.pos++
		if !ok {
			// the window is poisoned; nothing currently buffered survives
			it.filled = 0
			continue
		}
		it.pushBase(b)
		if it.filled < it.k {
			continue
		}
		it.numKmers++
		it.curHash = it.canonicalHash()
		return true
	}
	return false
}

// pushBase slides a normalized base into the window, discarding the
// oldest one once the window is full.
func (it *Iterator) pushBase(b byte) {
	if it.filled < it.k {
		it.window[it.filled] = b
		it.filled++
		return
	}
	copy(it.window, it.window[1:])
	it.window[it.k-1] = b
}

// canonicalHash hashes both strands of the current window and returns
// the smaller of the two hash values.
func (it *Iterator) canonicalHash() uint64 {
	copy(it.fwd, it.window)
	for i, j := 0, it.k-1; i < it.k; i, j = i+1, j-1 {
		it.rc[i] = complement[it.window[j]]
	}
	fwdHash := it.hasher.Hash(it.fwd)
	rcHash := it.hasher.Hash(it.rc)
	if fwdHash < rcHash {
		return fwdHash
	}
	return rcHash
}

// Hash returns the canonical hash of the window most recently yielded by
// Next.
func (it *Iterator) Hash() uint64 {
	return it.curHash
}

// NumKmers returns the number of valid (non-poisoned) windows observed
// so far, including the one most recently yielded.
func (it *Iterator) NumKmers() uint64 {
	return it.numKmers
}
