// Package filter composes the downsampling policies (fscale, kscale,
// nmin, nmax) that decide which k-mer hashes survive into a sketch.
// fscale and kscale act as hash-space admission gates applied while
// streaming; nmin and nmax are enforced once, at finalize time, against
// the set of admitted hashes and a bounded heap of near-miss rejects.
package filter

import (
	"container/heap"
	"fmt"
	"math"
	"math/big"
	"sort"
)

// Policy bundles the four scaling parameters a sketch is built with. A
// zero value of a field means "unset" (u64 0 in the native header).
type Policy struct {
	Fscale uint64
	Kscale uint64
	Nmin   uint64
	Nmax   uint64

	// explicitHMax overrides the fscale-derived ceiling when set. It
	// exists for formats like sourmash that carry max_hash directly
	// rather than an integer scale factor: decoding one doesn't always
	// recover an fscale whose hMax() reproduces the same ceiling exactly,
	// so the ceiling is stored as-is instead of reverse-engineering a
	// scale for it.
	explicitHMax *uint64
}

// WithExplicitHMax returns a copy of p whose HMax() always reports
// ceiling, bypassing the fscale-derived formula.
func (p Policy) WithExplicitHMax(ceiling uint64) Policy {
	p.explicitHMax = &ceiling
	return p
}

// Validate checks for policy combinations spec §7 calls out as
// ConfigError: this is a fatal, pre-flight check, never raised mid-stream.
func (p Policy) Validate() error {
	if p.Nmin != 0 && p.Nmax != 0 && p.Nmin > p.Nmax {
		return fmt.Errorf("nmin (%d) exceeds nmax (%d)", p.Nmin, p.Nmax)
	}
	return nil
}

// HMax returns the fscale-derived admission ceiling: floor(2^64/fscale)-1,
// or the full hash space when fscale is unset. This is the bound spec §8
// property 4 checks every retained hash against.
func (p Policy) HMax() uint64 {
	if p.explicitHMax != nil {
		return *p.explicitHMax
	}
	return hMax(p.Fscale)
}

// kMax returns the kscale-derived admission ceiling, computed the same
// way as HMax but from kscale. kscale is documented as "an admission
// threshold identical in effect to fscale" (spec §4.3): the two ceilings
// are simply intersected by Admit.
func (p Policy) kMax() uint64 {
	return hMax(p.Kscale)
}

// hMax computes floor(2^64/scale)-1 exactly, using math/big because
// 2^64 itself does not fit in a uint64. scale == 0 means "unset" and
// yields the full hash space.
func hMax(scale uint64) uint64 {
	if scale == 0 {
		return math.MaxUint64
	}
	if scale == 1 {
		return math.MaxUint64
	}
	numerator := new(big.Int).Lsh(big.NewInt(1), 64)
	q := new(big.Int).Quo(numerator, new(big.Int).SetUint64(scale))
	q.Sub(q, big.NewInt(1))
	if q.Sign() < 0 {
		return 0
	}
	return q.Uint64()
}

// Admit applies the fscale → kscale gate chain to a single hash. It does
// not know about nmin/nmax; those are applied once at finalize by the
// RecordBuilder, since they depend on the whole record's outcome.
func (p Policy) Admit(h uint64) bool {
	return h <= p.HMax() && h <= p.kMax()
}

// rejectionCandidate is one hash that failed the Admit gate but might
// still be needed to satisfy nmin.
type rejectionCandidate struct {
	hash  uint64
	order uint64
}

// rejHeap implements container/heap.Interface as a max-heap over "worse"
// candidates, so the worst retained rejection sits at index 0 and can be
// evicted in O(log n). Adapted directly from the teacher's IntHeap
// (src/minhash/heap.go), which uses the same "bounded max-heap retains
// the smallest k values seen" trick for its KMV MinHash sketch.
type rejHeap []rejectionCandidate

// worse reports whether a is a worse retention candidate than b: a
// larger hash is worse, and among equal hashes the more recently
// rejected one is worse (so the earliest rejection position is kept,
// per spec §4.3's tie rule).
func worse(a, b rejectionCandidate) bool {
	if a.hash != b.hash {
		return a.hash > b.hash
	}
	return a.order > b.order
}

func (h rejHeap) Len() int            { return len(h) }
func (h rejHeap) Less(i, j int) bool  { return worse(h[i], h[j]) }
func (h rejHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rejHeap) Push(x interface{}) { *h = append(*h, x.(rejectionCandidate)) }
func (h *rejHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// RejectionHeap is a bounded heap of rejected hashes, capped at some
// capacity. It lets nmin be satisfied without a second pass over the
// input: whenever the heap is full, a newly rejected hash only
// displaces the current worst entry if it is smaller.
type RejectionHeap struct {
	cap  int
	heap rejHeap
}

// NewRejectionHeap builds a heap capped at capacity entries. A capacity
// of 0 means the heap retains nothing (nmin unset).
func NewRejectionHeap(capacity int) *RejectionHeap {
	r := &RejectionHeap{cap: capacity}
	heap.Init(&r.heap)
	return r
}

// Add offers a rejected hash (with its rejection sequence number) to the
// heap. It is a no-op when the hash is already held (the earliest
// rejection of it is kept), or once the heap is full and the candidate
// is not an improvement over the current worst kept entry.
func (r *RejectionHeap) Add(hash, order uint64) {
	if r.cap <= 0 {
		return
	}
	for _, c := range r.heap {
		if c.hash == hash {
			return
		}
	}
	cand := rejectionCandidate{hash: hash, order: order}
	if r.heap.Len() < r.cap {
		heap.Push(&r.heap, cand)
		return
	}
	if worse(r.heap[0], cand) {
		r.heap[0] = cand
		heap.Fix(&r.heap, 0)
	}
}

// Drain returns the heap's contents sorted ascending by (hash, order) —
// the order RecordBuilder.Finalize re-admits candidates in to satisfy
// nmin. The heap is left empty.
func (r *RejectionHeap) Drain() []uint64 {
	sorted := append(rejHeap(nil), r.heap...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].hash != sorted[j].hash {
			return sorted[i].hash < sorted[j].hash
		}
		return sorted[i].order < sorted[j].order
	})
	r.heap = r.heap[:0]
	out := make([]uint64, len(sorted))
	for i, c := range sorted {
		out[i] = c.hash
	}
	return out
}

// Len reports how many candidates are currently retained.
func (r *RejectionHeap) Len() int {
	return r.heap.Len()
}
