// Package decode turns a FASTA or FASTQ file, gzipped or not, into a
// stream of (record ID, sequence) pairs for the sketch builder to
// consume. It is a thin adapter over biogo's sequence readers, chosen
// transparently by file extension.
package decode

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
)

// Decoder streams records out of a single sequence file. Call Next
// until it returns false, reading ID/Seq between calls, then check Err.
type Decoder struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *seqio.Scanner

	id  string
	seq []byte
	err error
}

// Open opens path and returns a Decoder for it. The format (FASTA or
// FASTQ) and the presence of gzip compression are both inferred from
// the filename, per the extensions discover.Collect already filtered
// the path list down to.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	d := &Decoder{file: f}

	var r io.Reader = f
	name := path
	if strings.HasSuffix(name, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening %s as gzip: %w", path, err)
		}
		d.gz = gz
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	var seqReader seqio.Reader
	switch {
	case strings.HasSuffix(name, ".fastq"), strings.HasSuffix(name, ".fq"):
		template := linear.NewQSeq("", nil, alphabet.DNA, alphabet.Sanger)
		seqReader = fastq.NewReader(r, template)
	case strings.HasSuffix(name, ".fasta"), strings.HasSuffix(name, ".fa"), strings.HasSuffix(name, ".fna"):
		template := linear.NewSeq("", nil, alphabet.DNA)
		seqReader = fasta.NewReader(r, template)
	default:
		f.Close()
		return nil, fmt.Errorf("%s: unrecognised sequence format (expected .fasta/.fa/.fna or .fastq/.fq, optionally .gz)", path)
	}

	d.scanner = seqio.NewScanner(seqReader)
	return d, nil
}

// Next advances to the next record, returning false once the file is
// exhausted or a read error occurs. Check Err after a false return.
func (d *Decoder) Next() bool {
	if !d.scanner.Next() {
		d.err = d.scanner.Error()
		return false
	}
	s := d.scanner.Seq()
	d.id = s.Name()
	d.seq = letters(s)
	return true
}

// ID returns the header/name of the current record.
func (d *Decoder) ID() string { return d.id }

// Seq returns the current record's bases, unnormalized exactly as read
// from the file; kmer.Iterator is responsible for case-folding and
// rejecting non-ACGTU bases.
func (d *Decoder) Seq() []byte { return d.seq }

// Err returns the first error encountered, if any, once Next has
// returned false.
func (d *Decoder) Err() error { return d.err }

// Close releases the underlying file (and gzip reader, if any).
func (d *Decoder) Close() error {
	if d.gz != nil {
		d.gz.Close()
	}
	return d.file.Close()
}

// letters extracts raw bases from whichever concrete sequence type the
// scanner handed back: a plain linear.Seq for FASTA, or a quality-
// carrying linear.QSeq for FASTQ.
func letters(s interface{ Len() int }) []byte {
	switch rec := s.(type) {
	case *linear.Seq:
		out := make([]byte, len(rec.Seq))
		for i, l := range rec.Seq {
			out[i] = byte(l)
		}
		return out
	case *linear.QSeq:
		out := make([]byte, len(rec.Seq))
		for i, ql := range rec.Seq {
			out[i] = byte(ql.L)
		}
		return out
	default:
		return nil
	}
}
