package codec

import (
	"bytes"
	"testing"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/sketch"
)

func buildTestSketch(t *testing.T) *sketch.Sketch {
	t.Helper()
	b := sketch.NewRecordBuilder("chr1", 4, filter.Policy{}, hasher.New(hasher.Xxhash), true)
	b.AddSequence([]byte("ACGTACGTACGTACGT"))
	rs := b.Finalize()
	return &sketch.Sketch{
		KmerSize:  4,
		Algorithm: hasher.Xxhash,
		Policy:    filter.Policy{},
		Singleton: false,
		Source:    "chr1.fasta",
		Records:   []*sketch.RecordSketch{rs},
	}
}

func TestNativeRoundTrip(t *testing.T) {
	s := buildTestSketch(t)

	var buf bytes.Buffer
	if err := EncodeNative(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeNative(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.KmerSize != s.KmerSize || got.Algorithm != s.Algorithm || got.Source != s.Source {
		t.Fatalf("header mismatch after round trip: %+v", got)
	}
	if len(got.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got.Records))
	}
	wantRec, gotRec := s.Records[0], got.Records[0]
	if gotRec.Name != wantRec.Name || gotRec.NumKmers != wantRec.NumKmers {
		t.Fatalf("record header mismatch: got %+v", gotRec)
	}
	if len(gotRec.Hashes) != len(wantRec.Hashes) {
		t.Fatalf("hash set size mismatch: got %d want %d", len(gotRec.Hashes), len(wantRec.Hashes))
	}
	for h := range wantRec.Hashes {
		if _, ok := gotRec.Hashes[h]; !ok {
			t.Fatalf("hash %d lost in round trip", h)
		}
	}
	if gotRec.Stats == nil || gotRec.Stats.Length != wantRec.Stats.Length {
		t.Fatalf("stats lost in round trip: %+v", gotRec.Stats)
	}
}

func TestNativeInsertOrderPreserved(t *testing.T) {
	s := buildTestSketch(t)
	var buf bytes.Buffer
	if err := EncodeNative(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeNative(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := s.Records[0].InsertOrder()
	gotOrder := got.Records[0].InsertOrder()
	if len(want) != len(gotOrder) {
		t.Fatalf("insert order length mismatch: got %d want %d", len(gotOrder), len(want))
	}
	for i := range want {
		if want[i] != gotOrder[i] {
			t.Fatalf("insert order diverged at index %d: got %d want %d", i, gotOrder[i], want[i])
		}
	}
}

func TestDecodeNativeEnforcesInvariants(t *testing.T) {
	b1 := sketch.NewRecordBuilder("chr1", 4, filter.Policy{}, hasher.New(hasher.Xxhash), false)
	b1.AddSequence([]byte("ACGTACGTACGTACGT"))
	b2 := sketch.NewRecordBuilder("chr2", 4, filter.Policy{}, hasher.New(hasher.Xxhash), false)
	b2.AddSequence([]byte("TTTTGGGGCCCCAAAA"))
	s := &sketch.Sketch{
		KmerSize:  4,
		Algorithm: hasher.Xxhash,
		Singleton: false,
		Source:    "bad.fasta",
		Records:   []*sketch.RecordSketch{b1.Finalize(), b2.Finalize()},
	}

	var buf bytes.Buffer
	if err := EncodeNative(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeNative(&buf); err == nil {
		t.Fatal("expected DecodeNative to reject a non-singleton sketch with more than one record")
	}
}

func TestBadMagicRejected(t *testing.T) {
	buf := bytes.NewBufferString("NOPE")
	if _, err := DecodeNative(buf); err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestUnsupportedVersionRejected(t *testing.T) {
	var buf bytes.Buffer
	s := buildTestSketch(t)
	if err := EncodeNative(&buf, s); err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw := buf.Bytes()
	// version is the two bytes immediately after the 4-byte magic
	raw[4] = 0xff
	raw[5] = 0xff
	if _, err := DecodeNative(bytes.NewReader(raw)); err == nil {
		t.Fatal("expected an error for unsupported version")
	}
}
