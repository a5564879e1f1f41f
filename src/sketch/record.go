// Package sketch implements RecordSketch construction and the
// file-level Sketch/Database containers spec §4.4-§4.5 describe.
package sketch

import (
	"sort"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/kmer"
)

// RecordSketch is a frozen, per-record set of retained hashes plus the
// bookkeeping needed to compute containment against it. Once returned
// from RecordBuilder.Finalize it is never mutated again.
type RecordSketch struct {
	Name     string
	Hashes   map[uint64]struct{}
	NumKmers uint64
	Stats    *Stats

	// insertOrder records the order hashes were added to Hashes: first
	// the streaming admissions (in admission order), then any nmin
	// rejection-heap extensions (in drain order). It's what the native
	// codec writes hashes out in — spec §4.6 requires "unsorted, as
	// inserted" — and what Thread-insensitivity testing (spec §8
	// property 3) compares against the T=1 baseline.
	insertOrder []uint64
}

// InsertOrder returns the hashes in the order they were inserted during
// construction, used by the native codec writer.
func (r *RecordSketch) InsertOrder() []uint64 {
	return r.insertOrder
}

// NewRecordSketchFromOrderedHashes rebuilds a RecordSketch from a
// sequence of hashes in on-disk order, used by the native codec reader.
// The Codec, not RecordBuilder, owns deserialization, so this
// constructor is the only way outside this package to produce a
// RecordSketch directly.
func NewRecordSketchFromOrderedHashes(name string, orderedHashes []uint64, numKmers uint64, stats *Stats) *RecordSketch {
	hashes := make(map[uint64]struct{}, len(orderedHashes))
	for _, h := range orderedHashes {
		hashes[h] = struct{}{}
	}
	return &RecordSketch{
		Name:        name,
		Hashes:      hashes,
		NumKmers:    numKmers,
		Stats:       stats,
		insertOrder: orderedHashes,
	}
}

// SortedHashes returns the record's hashes sorted ascending, used by the
// interoperable (sourmash) codec path which requires sorted mins.
func (r *RecordSketch) SortedHashes() []uint64 {
	out := make([]uint64, 0, len(r.Hashes))
	for h := range r.Hashes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RecordBuilder is the online construction side of a RecordSketch: feed
// it sequence bytes via AddSequence, then call Finalize once, exactly as
// spec §4.4 describes. A RecordBuilder is used by a single worker and is
// not safe for concurrent use.
type RecordBuilder struct {
	name   string
	k      int
	policy filter.Policy
	hasher *hasher.Hasher

	hashes    map[uint64]struct{}
	admitSeq  map[uint64]uint64 // hash -> admission order, for nmax tie-breaks
	nextOrder uint64

	rejectHeap *filter.RejectionHeap
	rejectSeq  uint64

	numKmers uint64

	collectStats bool
	statsAcc     statsAccumulator
}

// NewRecordBuilder constructs a builder for one record (or, in
// non-singleton mode, one file's worth of concatenated records), hashing
// k-mers of size k under policy and h, optionally tallying base-
// composition stats as it goes.
func NewRecordBuilder(name string, k int, policy filter.Policy, h *hasher.Hasher, collectStats bool) *RecordBuilder {
	heapCap := 0
	if policy.Nmin > 0 {
		heapCap = int(policy.Nmin)
	}
	return &RecordBuilder{
		name:         name,
		k:            k,
		policy:       policy,
		hasher:       h,
		hashes:       make(map[uint64]struct{}),
		admitSeq:     make(map[uint64]uint64),
		rejectHeap:   filter.NewRejectionHeap(heapCap),
		collectStats: collectStats,
	}
}

// AddSequence feeds one sequence's bases through the canonical k-mer
// iterator and the admission policy, in a single pass, tallying stats in
// that same pass if requested. Call it once per decoded record; in
// non-singleton mode, call it once per record of the same file, against
// the same builder.
func (b *RecordBuilder) AddSequence(seq []byte) {
	if b.collectStats {
		b.statsAcc.observe(seq)
	}
	it := kmer.NewIterator(seq, b.k, b.hasher)
	for it.Next() {
		b.admit(it.Hash())
	}
	b.numKmers += it.NumKmers()
}

// admit applies the fscale/kscale gate to a single hash and either adds
// it to the retained set (deduplicated, recording admission order for
// later nmax tie-breaking) or offers it to the rejection heap.
func (b *RecordBuilder) admit(h uint64) {
	if b.policy.Admit(h) {
		if _, ok := b.hashes[h]; !ok {
			b.hashes[h] = struct{}{}
			b.admitSeq[h] = b.nextOrder
			b.nextOrder++
		}
		return
	}
	b.rejectHeap.Add(h, b.rejectSeq)
	b.rejectSeq++
}

// Finalize applies the nmax/nmin rules (spec §4.3) and freezes the
// result. It must be called exactly once.
func (b *RecordBuilder) Finalize() *RecordSketch {
	hashes := b.hashes

	// build the insertion-order slice from admission order, restricted
	// to whatever survives truncation below
	admitted := make([]uint64, 0, len(b.admitSeq))
	for h := range b.admitSeq {
		admitted = append(admitted, h)
	}
	sort.Slice(admitted, func(i, j int) bool { return b.admitSeq[admitted[i]] < b.admitSeq[admitted[j]] })

	if nmax := b.policy.Nmax; nmax > 0 && uint64(len(hashes)) > nmax {
		hashes = truncateToSmallest(hashes, b.admitSeq, nmax)
		kept := admitted[:0:0]
		for _, h := range admitted {
			if _, ok := hashes[h]; ok {
				kept = append(kept, h)
			}
		}
		admitted = kept
	}

	order := admitted
	if nmin := b.policy.Nmin; nmin > 0 && uint64(len(hashes)) < nmin {
		target := nmin
		if b.numKmers < target {
			target = b.numKmers
		}
		for _, h := range b.rejectHeap.Drain() {
			if uint64(len(hashes)) >= target {
				break
			}
			if _, already := hashes[h]; already {
				continue
			}
			hashes[h] = struct{}{}
			order = append(order, h)
		}
	}

	rs := &RecordSketch{
		Name:        b.name,
		Hashes:      hashes,
		NumKmers:    b.numKmers,
		insertOrder: order,
	}
	if b.collectStats {
		rs.Stats = b.statsAcc.finalize()
	}
	return rs
}

// truncateToSmallest keeps the nmax smallest hashes, ties on the
// boundary hash broken by earliest admission order, per spec §4.3.
func truncateToSmallest(hashes map[uint64]struct{}, admitSeq map[uint64]uint64, nmax uint64) map[uint64]struct{} {
	type entry struct {
		hash  uint64
		order uint64
	}
	entries := make([]entry, 0, len(hashes))
	for h := range hashes {
		entries = append(entries, entry{hash: h, order: admitSeq[h]})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].hash != entries[j].hash {
			return entries[i].hash < entries[j].hash
		}
		return entries[i].order < entries[j].order
	})
	if uint64(len(entries)) > nmax {
		entries = entries[:nmax]
	}
	kept := make(map[uint64]struct{}, len(entries))
	for _, e := range entries {
		kept[e.hash] = struct{}{}
	}
	return kept
}
