package filter

import (
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := (Policy{Nmin: 20, Nmax: 10}).Validate(); err == nil {
		t.Fatal("nmin > nmax should be a ConfigError")
	}
	if err := (Policy{Nmin: 10, Nmax: 20}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHMaxUnset(t *testing.T) {
	p := Policy{}
	if p.HMax() != math.MaxUint64 {
		t.Fatalf("unset fscale should admit the full hash space, got %d", p.HMax())
	}
}

func TestHMaxFscale2(t *testing.T) {
	p := Policy{Fscale: 2}
	// floor(2^64/2)-1 == 2^63-1
	want := uint64(1)<<63 - 1
	if p.HMax() != want {
		t.Fatalf("HMax for fscale=2: got %d, want %d", p.HMax(), want)
	}
	if !p.Admit(want) {
		t.Fatalf("boundary hash should be admitted")
	}
	if p.Admit(want + 1) {
		t.Fatalf("hash just above the boundary should be rejected")
	}
}

func TestWithExplicitHMaxOverridesFscale(t *testing.T) {
	p := Policy{Fscale: 2}.WithExplicitHMax(12345)
	if p.HMax() != 12345 {
		t.Fatalf("explicit ceiling should override fscale-derived HMax: got %d", p.HMax())
	}
	if !p.Admit(12345) || p.Admit(12346) {
		t.Fatalf("Admit should gate on the explicit ceiling, not fscale")
	}
}

func TestAdmitIntersectsFscaleAndKscale(t *testing.T) {
	p := Policy{Fscale: 2, Kscale: 4}
	// kscale=4 is a tighter gate than fscale=2; effective bound is kMax.
	if p.Admit(p.kMax() + 1) {
		t.Fatal("kscale should further restrict admission below fscale's bound")
	}
	if !p.Admit(p.kMax()) {
		t.Fatal("boundary hash under the tighter gate should be admitted")
	}
}

func TestRejectionHeapRetainsSmallest(t *testing.T) {
	h := NewRejectionHeap(3)
	for i, v := range []uint64{50, 10, 40, 5, 30, 20} {
		h.Add(v, uint64(i))
	}
	got := h.Drain()
	want := []uint64{5, 10, 20}
	if len(got) != len(want) {
		t.Fatalf("expected %d retained, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("retained[%d] = %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRejectionHeapZeroCapacity(t *testing.T) {
	h := NewRejectionHeap(0)
	h.Add(1, 0)
	h.Add(2, 1)
	if h.Len() != 0 {
		t.Fatalf("zero-capacity heap should retain nothing, got %d", h.Len())
	}
}

func TestRejectionHeapTieBreaksByOrder(t *testing.T) {
	h := NewRejectionHeap(1)
	h.Add(10, 0)
	h.Add(10, 1) // same hash, later order: should not displace the earlier entry
	got := h.Drain()
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("unexpected drain result: %v", got)
	}
}
