package codec

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/sketch"
)

func TestSourmashRoundTripHashes(t *testing.T) {
	b := sketch.NewRecordBuilder("genomeA", 21, filter.Policy{}, hasher.New(hasher.Murmur3), false)
	b.AddSequence([]byte("ACGTACGTACGTACGTACGTACGTACGTACGT"))
	rs := b.Finalize()
	s := &sketch.Sketch{
		KmerSize:  21,
		Algorithm: hasher.Murmur3,
		Source:    "genomeA.fasta",
		Records:   []*sketch.RecordSketch{rs},
	}

	var buf bytes.Buffer
	if err := EncodeSourmash(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeSourmash(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Records) != 1 {
		t.Fatalf("expected 1 signature, got %d", len(got.Records))
	}
	if got.Records[0].Name != "genomeA" {
		t.Fatalf("name lost in round trip: %q", got.Records[0].Name)
	}
	if len(got.Records[0].Hashes) != len(rs.Hashes) {
		t.Fatalf("hash count mismatch: got %d want %d", len(got.Records[0].Hashes), len(rs.Hashes))
	}
	for h := range rs.Hashes {
		if _, ok := got.Records[0].Hashes[h]; !ok {
			t.Fatalf("hash %d lost in sourmash round trip", h)
		}
	}
}

func TestSourmashRoundTripPreservesMaxHash(t *testing.T) {
	policy := filter.Policy{Fscale: 2}
	b := sketch.NewRecordBuilder("genomeA", 21, policy, hasher.New(hasher.Murmur3), false)
	b.AddSequence([]byte("ACGTACGTACGTACGTACGTACGTACGTACGT"))
	rs := b.Finalize()
	s := &sketch.Sketch{
		KmerSize:  21,
		Algorithm: hasher.Murmur3,
		Policy:    policy,
		Source:    "genomeA.fasta",
		Records:   []*sketch.RecordSketch{rs},
	}

	var buf bytes.Buffer
	if err := EncodeSourmash(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	wantMaxHash := policy.HMax()

	got, err := DecodeSourmash(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Policy.HMax() != wantMaxHash {
		t.Fatalf("max_hash lost on decode: got %d want %d", got.Policy.HMax(), wantMaxHash)
	}

	var buf2 bytes.Buffer
	if err := EncodeSourmash(&buf2, got); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	var doc []sourmashSignature
	if err := json.Unmarshal(buf2.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc[0].Signatures[0].MaxHash != wantMaxHash {
		t.Fatalf("max_hash lost on re-encode: got %d want %d", doc[0].Signatures[0].MaxHash, wantMaxHash)
	}
}

func TestSourmashDecodeEmptyDocument(t *testing.T) {
	if _, err := DecodeSourmash(bytes.NewBufferString("[]")); err == nil {
		t.Fatal("expected an error for an empty signature document")
	}
}

func TestSourmashHashesSortedAscending(t *testing.T) {
	b := sketch.NewRecordBuilder("genomeA", 21, filter.Policy{}, hasher.New(hasher.Murmur3), false)
	b.AddSequence([]byte("ACGTACGTACGTACGTACGTACGTACGTACGT"))
	rs := b.Finalize()
	s := &sketch.Sketch{KmerSize: 21, Algorithm: hasher.Murmur3, Records: []*sketch.RecordSketch{rs}}

	var buf bytes.Buffer
	if err := EncodeSourmash(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var doc []sourmashSignature
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	mins := doc[0].Signatures[0].Mins
	for i := 1; i < len(mins); i++ {
		if mins[i-1] > mins[i] {
			t.Fatalf("sourmash mins not sorted ascending at index %d", i)
		}
	}
}
