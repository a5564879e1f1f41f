// Package sketchbuilder drives the sketch command's pipeline: it reads
// a list of sequence files in parallel, worker-pool style, and returns
// one Sketch per file in input order.
package sketchbuilder

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/will-rowe/jam/src/decode"
	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/sketch"
)

// Config carries the parameters shared by every file in one `sketch`
// invocation.
type Config struct {
	KmerSize     int
	Algorithm    hasher.Algorithm
	Policy       filter.Policy
	Singleton    bool
	CollectStats bool
	NumWorkers   int
}

type fileJob struct {
	index int
	path  string
}

type fileResult struct {
	index  int
	sketch *sketch.Sketch
	err    error
}

// Build sketches every path in paths, using up to cfg.NumWorkers
// goroutines, and returns the resulting Sketches in the same order as
// paths. A file that fails to sketch is logged and left out; Build
// returns an error only when no file could be sketched.
func Build(paths []string, cfg Config) ([]*sketch.Sketch, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	numWorkers := cfg.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}
	if numWorkers == 0 {
		return nil, nil
	}

	h := hasher.New(cfg.Algorithm)

	jobs := make(chan fileJob, len(paths))
	results := make(chan fileResult, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s, err := buildOne(job.path, cfg, h)
				results <- fileResult{index: job.index, sketch: s, err: err}
			}
		}()
	}

	for i, p := range paths {
		jobs <- fileJob{index: i, path: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]*sketch.Sketch, len(paths))
	var firstErr error
	done := 0
	for r := range results {
		done++
		if r.err != nil {
			log.Printf("\tskipping %s: %v", paths[r.index], r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("sketching %s: %w", paths[r.index], r.err)
			}
			continue
		}
		out[r.index] = r.sketch
		log.Printf("\tsketched %s: %d record(s), %d total hashes", paths[r.index], len(r.sketch.Records), r.sketch.TotalHashes())
	}

	kept := out[:0]
	for _, s := range out {
		if s != nil {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil, firstErr
	}
	return kept, nil
}

// buildOne sketches a single file. In singleton mode every decoded
// record becomes its own RecordSketch; otherwise every record in the
// file is folded into one RecordSketch named after the file.
func buildOne(path string, cfg Config, h *hasher.Hasher) (*sketch.Sketch, error) {
	d, err := decode.Open(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	s := &sketch.Sketch{
		KmerSize:  cfg.KmerSize,
		Algorithm: cfg.Algorithm,
		Policy:    cfg.Policy,
		Singleton: cfg.Singleton,
		Source:    path,
	}

	if cfg.Singleton {
		for d.Next() {
			b := sketch.NewRecordBuilder(d.ID(), cfg.KmerSize, cfg.Policy, h, cfg.CollectStats)
			b.AddSequence(d.Seq())
			s.Records = append(s.Records, b.Finalize())
		}
	} else {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		b := sketch.NewRecordBuilder(stem, cfg.KmerSize, cfg.Policy, h, cfg.CollectStats)
		for d.Next() {
			b.AddSequence(d.Seq())
		}
		s.Records = append(s.Records, b.Finalize())
	}

	if err := d.Err(); err != nil {
		return nil, err
	}
	if len(s.Records) == 0 {
		return nil, fmt.Errorf("no records decoded from %s", path)
	}

	return s, s.Validate()
}
