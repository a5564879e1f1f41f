package sketch

import (
	"fmt"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
)

// Sketch is the file-level aggregation of RecordSketches spec §4.5
// describes: one logical dataset, with a single kmer size, hash
// algorithm and scaling policy shared by every record it holds.
type Sketch struct {
	KmerSize  int
	Algorithm hasher.Algorithm
	Policy    filter.Policy
	Singleton bool
	Records   []*RecordSketch
	Source    string
}

// Validate checks the Sketch-level invariants from spec §3: a
// non-singleton sketch holds exactly one record, no record holds more
// hashes than num_kmers, and every record's hashes respect the sketch's
// own fscale ceiling. A record of at most nmin hashes is exempt from the
// ceiling check, since nmin extension re-admits rejected hashes.
func (s *Sketch) Validate() error {
	if !s.Singleton && len(s.Records) != 1 {
		return fmt.Errorf("non-singleton sketch must hold exactly one record, got %d", len(s.Records))
	}
	hMax := s.Policy.HMax()
	for _, r := range s.Records {
		if r.NumKmers < uint64(len(r.Hashes)) {
			return fmt.Errorf("record %q: |hashes| (%d) exceeds num_kmers (%d)", r.Name, len(r.Hashes), r.NumKmers)
		}
		if s.Policy.Nmin > 0 && uint64(len(r.Hashes)) <= s.Policy.Nmin {
			continue
		}
		for h := range r.Hashes {
			if h > hMax {
				return fmt.Errorf("record %q: hash %d exceeds the sketch's fscale ceiling %d", r.Name, h, hMax)
			}
		}
	}
	return nil
}

// TotalHashes sums |hashes| across every record, a cheap size estimate
// used for logging.
func (s *Sketch) TotalHashes() int {
	total := 0
	for _, r := range s.Records {
		total += len(r.Hashes)
	}
	return total
}

// Database is an ordered sequence of Sketches sharing a kmer size, as
// described in spec §3. It is the unit both `dist` and the Comparator
// operate over.
type Database struct {
	KmerSize  int
	Algorithm hasher.Algorithm
	Sketches  []*Sketch
}

// NewDatabase groups sketches into a Database, enforcing the
// HeaderMismatch invariant: every sketch must share the same kmer size
// and hash algorithm. This is a hard error at load time, per spec §3
// and §7.
func NewDatabase(sketches []*Sketch) (*Database, error) {
	db := &Database{Sketches: sketches}
	if len(sketches) == 0 {
		return db, nil
	}
	db.KmerSize = sketches[0].KmerSize
	db.Algorithm = sketches[0].Algorithm
	for _, s := range sketches[1:] {
		if s.KmerSize != db.KmerSize {
			return nil, fmt.Errorf("HeaderMismatch: kmer_size %d does not match database kmer_size %d (source: %s)", s.KmerSize, db.KmerSize, s.Source)
		}
		if s.Algorithm != db.Algorithm {
			return nil, fmt.Errorf("HeaderMismatch: hash_algorithm %v does not match database hash_algorithm %v (source: %s)", s.Algorithm, db.Algorithm, s.Source)
		}
	}
	return db, nil
}

// Append adds a sketch to the database after checking it against the
// existing header fields; used by `merge` and by `dist`'s progressive
// database load.
func (db *Database) Append(s *Sketch) error {
	if len(db.Sketches) == 0 {
		db.KmerSize = s.KmerSize
		db.Algorithm = s.Algorithm
		db.Sketches = append(db.Sketches, s)
		return nil
	}
	if s.KmerSize != db.KmerSize {
		return fmt.Errorf("HeaderMismatch: kmer_size %d does not match database kmer_size %d (source: %s)", s.KmerSize, db.KmerSize, s.Source)
	}
	if s.Algorithm != db.Algorithm {
		return fmt.Errorf("HeaderMismatch: hash_algorithm %v does not match database hash_algorithm %v (source: %s)", s.Algorithm, db.Algorithm, s.Source)
	}
	db.Sketches = append(db.Sketches, s)
	return nil
}
