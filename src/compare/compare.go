// Package compare estimates containment between every query record and
// every database record: for a query Q and a database record R, it
// reports |Q ∩ R| and containment(Q in R) = |Q ∩ R| / |Q.hashes|.
package compare

import (
	"fmt"
	"sync"

	"github.com/will-rowe/jam/src/sketch"
)

// Result is one query/database record comparison.
type Result struct {
	QueryID      string
	DBFile       string
	DBRecord     string
	Intersection int
	Containment  float64
}

// String renders a Result as the whitespace-separated row dist writes:
// query_id db_file db_record intersection containment.
func (r Result) String() string {
	return fmt.Sprintf("%s\t%s\t%s\t%d\t%.6f", r.QueryID, r.DBFile, r.DBRecord, r.Intersection, r.Containment)
}

// Config carries dist's comparison-wide settings.
type Config struct {
	Cutoff     float64 // containment fraction in [0,1]; results below are dropped
	GCLower    uint8
	GCUpper    uint8
	UseGCGate  bool
	NumWorkers int
}

type job struct {
	index    int
	query    *sketch.RecordSketch
	dbFile   string
	dbRecord *sketch.RecordSketch
}

// Compare runs every (query record, database record) pair through the
// containment estimator. Output preserves query order, then the
// database's file order, then record order within file, as §4.7
// requires.
func Compare(query, db *sketch.Database, cfg Config) ([]Result, error) {
	if query.KmerSize != db.KmerSize {
		return nil, fmt.Errorf("HeaderMismatch: query kmer_size %d does not match database kmer_size %d", query.KmerSize, db.KmerSize)
	}
	if query.Algorithm != db.Algorithm {
		return nil, fmt.Errorf("HeaderMismatch: query hash_algorithm %v does not match database hash_algorithm %v", query.Algorithm, db.Algorithm)
	}

	var jobs []job
	for _, qs := range query.Sketches {
		for _, qr := range qs.Records {
			for _, ds := range db.Sketches {
				for _, dr := range ds.Records {
					if cfg.UseGCGate && dr.Stats != nil && !dr.Stats.InRange(cfg.GCLower, cfg.GCUpper) {
						continue
					}
					jobs = append(jobs, job{query: qr, dbFile: ds.Source, dbRecord: dr})
				}
			}
		}
	}
	for i := range jobs {
		jobs[i].index = i
	}

	if len(jobs) == 0 {
		return nil, nil
	}

	numWorkers := cfg.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	ch := make(chan job, len(jobs))
	out := make([]*Result, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				r := compareOne(j.query, j.dbFile, j.dbRecord)
				out[j.index] = &r
			}
		}()
	}
	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	wg.Wait()

	results := make([]Result, 0, len(out))
	for _, r := range out {
		if r.Containment >= cfg.Cutoff {
			results = append(results, *r)
		}
	}
	return results, nil
}

// compareOne probes the smaller of the two hash sets against the
// larger, a cheap optimization that doesn't change which record plays
// the role of Q: containment is always intersection over |Q.hashes|.
func compareOne(q *sketch.RecordSketch, dbFile string, r *sketch.RecordSketch) Result {
	probe, lookup := q.Hashes, r.Hashes
	if len(r.Hashes) < len(q.Hashes) {
		probe, lookup = r.Hashes, q.Hashes
	}

	intersection := 0
	for h := range probe {
		if _, ok := lookup[h]; ok {
			intersection++
		}
	}

	var containment float64
	if len(q.Hashes) > 0 {
		containment = float64(intersection) / float64(len(q.Hashes))
	}

	return Result{
		QueryID:      q.Name,
		DBFile:       dbFile,
		DBRecord:     r.Name,
		Intersection: intersection,
		Containment:  containment,
	}
}
