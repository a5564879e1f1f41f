package sketch

import (
	"testing"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
)

func TestFinalizeBoundsUnrestricted(t *testing.T) {
	b := NewRecordBuilder("r", 4, filter.Policy{}, hasher.New(hasher.Xxhash), false)
	b.AddSequence([]byte("ACGTACGTAC")) // spec scenario S1: 7 valid windows
	rs := b.Finalize()
	if rs.NumKmers != 7 {
		t.Fatalf("expected num_kmers=7, got %d", rs.NumKmers)
	}
	if len(rs.Hashes) > 7 {
		t.Fatalf("|hashes| should never exceed num_kmers, got %d", len(rs.Hashes))
	}
}

// spec scenario S4: nmin=10, nmax=20 on a record with 100 valid k-mers
// under an fscale that admits ~0: finalize should re-admit the 10
// smallest rejected hashes.
func TestNminExtensionFromRejectionHeap(t *testing.T) {
	policy := filter.Policy{Fscale: 1000, Nmin: 10, Nmax: 20}
	b := NewRecordBuilder("r", 4, policy, hasher.New(hasher.Xxhash), false)

	// a long, varied sequence to get >= 100 valid 4-mer windows
	seq := make([]byte, 120)
	bases := []byte("ACGT")
	x := uint32(1)
	for i := range seq {
		x = x*1664525 + 1013904223
		seq[i] = bases[x>>30]
	}
	b.AddSequence(seq)
	rs := b.Finalize()

	if rs.NumKmers < 100 {
		t.Fatalf("expected at least 100 valid windows, got %d", rs.NumKmers)
	}
	if uint64(len(rs.Hashes)) != 10 {
		t.Fatalf("expected nmin to be satisfied exactly at 10, got %d", len(rs.Hashes))
	}
}

func TestNmaxTruncation(t *testing.T) {
	policy := filter.Policy{Nmax: 3}
	b := NewRecordBuilder("r", 2, policy, hasher.New(hasher.Xxhash), false)
	seq := []byte("ACGTACGTACGTACGTACGT")
	b.AddSequence(seq)
	rs := b.Finalize()
	if uint64(len(rs.Hashes)) > 3 {
		t.Fatalf("expected at most 3 hashes after nmax truncation, got %d", len(rs.Hashes))
	}
}

func TestStatsAccumulation(t *testing.T) {
	b := NewRecordBuilder("r", 4, filter.Policy{}, hasher.New(hasher.Xxhash), true)
	b.AddSequence([]byte("ATGC"))
	rs := b.Finalize()
	if rs.Stats == nil {
		t.Fatal("expected stats to be populated")
	}
	if rs.Stats.Length != 4 {
		t.Fatalf("expected length 4, got %d", rs.Stats.Length)
	}
	if rs.Stats.GCPercent != 50 {
		t.Fatalf("expected 50%% GC for ATGC, got %d", rs.Stats.GCPercent)
	}
}

func TestSortedHashesAscending(t *testing.T) {
	b := NewRecordBuilder("r", 3, filter.Policy{}, hasher.New(hasher.Xxhash), false)
	b.AddSequence([]byte("ACGTACGTACGT"))
	rs := b.Finalize()
	sorted := rs.SortedHashes()
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1] > sorted[i] {
			t.Fatalf("SortedHashes not ascending at index %d", i)
		}
	}
}

func TestDatabaseHeaderMismatch(t *testing.T) {
	a := &Sketch{KmerSize: 21, Algorithm: hasher.Xxhash}
	b := &Sketch{KmerSize: 15, Algorithm: hasher.Xxhash}
	if _, err := NewDatabase([]*Sketch{a, b}); err == nil {
		t.Fatal("mismatched kmer_size should be a hard error")
	}
}

func TestDatabaseAppendOK(t *testing.T) {
	db := &Database{}
	if err := db.Append(&Sketch{KmerSize: 21, Algorithm: hasher.Xxhash}); err != nil {
		t.Fatalf("unexpected error on first append: %v", err)
	}
	if err := db.Append(&Sketch{KmerSize: 21, Algorithm: hasher.Xxhash}); err != nil {
		t.Fatalf("unexpected error on matching append: %v", err)
	}
	if err := db.Append(&Sketch{KmerSize: 17, Algorithm: hasher.Xxhash}); err == nil {
		t.Fatal("mismatched kmer_size append should fail")
	}
}
