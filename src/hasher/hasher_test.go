package hasher

import "testing"

func TestParseAlgorithm(t *testing.T) {
	for in, want := range map[string]Algorithm{
		"default": Default,
		"xxhash":  Xxhash,
		"ahash":   Ahash,
		"murmur3": Murmur3,
	} {
		got, err := ParseAlgorithm(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseAlgorithm(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAlgorithm("bogus"); err == nil {
		t.Fatal("should fault on unrecognised algorithm")
	}
}

func TestHashDeterministic(t *testing.T) {
	kmer := []byte("ACGTACGTACGTACGTACGTACGTACGTACGT")
	for _, algo := range []Algorithm{Default, Xxhash, Ahash, Murmur3} {
		h := New(algo)
		a := h.Hash(kmer)
		b := h.Hash(append([]byte(nil), kmer...))
		if a != b {
			t.Fatalf("algorithm %v: hash not deterministic across calls: %d vs %d", algo, a, b)
		}
	}
}

func TestDefaultCrossover(t *testing.T) {
	short := []byte("ACGTACGTACGTACGTACGTACGTACGTA") // 29 bytes, < 32
	long := []byte("ACGTACGTACGTACGTACGTACGTACGTACGT") // 32 bytes, >= 32

	def := New(Default)
	ah := New(Ahash)
	xx := New(Xxhash)

	if def.Hash(short) != ah.Hash(short) {
		t.Fatal("Default should dispatch to ahash below the crossover")
	}
	if def.Hash(long) != xx.Hash(long) {
		t.Fatal("Default should dispatch to xxh3 at/above the crossover")
	}
}

func TestAlgorithmString(t *testing.T) {
	if Default.String() != "default" || Murmur3.String() != "murmur3" {
		t.Fatal("String() did not round-trip the expected labels")
	}
}
