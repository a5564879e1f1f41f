package sketch

// Stats holds the optional per-record base-composition summary a
// RecordSketch can carry alongside its hashes.
type Stats struct {
	GCPercent uint8
	Length    uint64
	ACount    uint64
	CCount    uint64
	GCount    uint64
	TCount    uint64
}

// InRange reports whether s's GC percentage falls within [lower, upper],
// used by the Comparator's optional stats gate.
func (s *Stats) InRange(lower, upper uint8) bool {
	return s.GCPercent >= lower && s.GCPercent <= upper
}

// statsAccumulator tallies base composition across one or more
// AddSequence calls, so that a non-singleton RecordSketch (built from
// many records concatenated into one) still ends up with a single,
// correctly summed Stats block.
type statsAccumulator struct {
	length, a, c, g, t uint64
}

// observe folds the bases of seq into the running tallies. It expects
// bases already normalized the way kmer.Iterator would see them (upper
// case, U mapped to T); non-ACGT bases still count toward length but not
// toward any base tally.
func (acc *statsAccumulator) observe(seq []byte) {
	for _, b := range seq {
		switch upper(b) {
		case 'A':
			acc.a++
		case 'C':
			acc.c++
		case 'G':
			acc.g++
		case 'T', 'U':
			acc.t++
		}
	}
	acc.length += uint64(len(seq))
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func (acc *statsAccumulator) finalize() *Stats {
	var gcPercent uint8
	if acc.length > 0 {
		gcPercent = uint8((acc.g + acc.c) * 100 / acc.length)
	}
	return &Stats{
		GCPercent: gcPercent,
		Length:    acc.length,
		ACount:    acc.a,
		CCount:    acc.c,
		GCount:    acc.g,
		TCount:    acc.t,
	}
}
