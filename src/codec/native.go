// Package codec reads and writes Sketch/Database values in the two
// on-disk formats spec §4.6 describes: a native length-prefixed binary
// format ("JAMS") and a lossy, sourmash-compatible JSON format.
package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/sketch"
)

const (
	nativeMagic   = "JAMS"
	nativeVersion = uint16(1)
)

const (
	flagSingleton uint8 = 1 << 0
	flagHasStats  uint8 = 1 << 1
)

// EncodeNative writes s to w in the native binary format: magic,
// version, a header carrying the scaling policy, then each record's
// name, num_kmers, and hashes written unsorted, in insertion order, as
// spec §4.6 requires.
func EncodeNative(w io.Writer, s *sketch.Sketch) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(nativeMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, nativeVersion); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.LittleEndian, uint8(s.KmerSize)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint8(s.Algorithm)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Policy.Fscale); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Policy.Kscale); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Policy.Nmin); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, s.Policy.Nmax); err != nil {
		return err
	}

	hasStats := recordsCarryStats(s.Records)
	var flags uint8
	if s.Singleton {
		flags |= flagSingleton
	}
	if hasStats {
		flags |= flagHasStats
	}
	if err := binary.Write(bw, binary.LittleEndian, flags); err != nil {
		return err
	}

	if err := writeString(bw, s.Source); err != nil {
		return err
	}

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(s.Records))); err != nil {
		return err
	}

	for _, r := range s.Records {
		if err := writeString(bw, r.Name); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, r.NumKmers); err != nil {
			return err
		}
		order := r.InsertOrder()
		if err := binary.Write(bw, binary.LittleEndian, uint64(len(order))); err != nil {
			return err
		}
		for _, h := range order {
			if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
				return err
			}
		}
		if hasStats {
			st := r.Stats
			if st == nil {
				return fmt.Errorf("record %q carries no stats but the sketch has_stats flag is set", r.Name)
			}
			if err := writeStats(bw, st); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func recordsCarryStats(records []*sketch.RecordSketch) bool {
	for _, r := range records {
		if r.Stats != nil {
			return true
		}
	}
	return false
}

func writeString(w io.Writer, s string) error {
	b := []byte(s)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeStats(w io.Writer, st *sketch.Stats) error {
	fields := []interface{}{st.GCPercent, st.Length, st.ACount, st.CCount, st.GCount, st.TCount}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodeNative reads a Sketch previously written by EncodeNative. It
// returns an error for a bad magic, an unsupported version, or any
// truncated read.
func DecodeNative(r io.Reader) (*sketch.Sketch, error) {
	br := bufio.NewReader(r)

	magic := make([]byte, len(nativeMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != nativeMagic {
		return nil, fmt.Errorf("not a jam sketch file: bad magic %q", magic)
	}

	var version uint16
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading format version: %w", err)
	}
	if version != nativeVersion {
		return nil, fmt.Errorf("unsupported format version %d (this build supports %d)", version, nativeVersion)
	}

	var kmerSize, algo uint8
	if err := binary.Read(br, binary.LittleEndian, &kmerSize); err != nil {
		return nil, fmt.Errorf("reading kmer_size: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &algo); err != nil {
		return nil, fmt.Errorf("reading hash_algorithm: %w", err)
	}

	var policy filter.Policy
	for _, dst := range []*uint64{&policy.Fscale, &policy.Kscale, &policy.Nmin, &policy.Nmax} {
		if err := binary.Read(br, binary.LittleEndian, dst); err != nil {
			return nil, fmt.Errorf("reading policy field: %w", err)
		}
	}

	var flags uint8
	if err := binary.Read(br, binary.LittleEndian, &flags); err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}
	hasStats := flags&flagHasStats != 0

	source, err := readString(br)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	var recordCount uint64
	if err := binary.Read(br, binary.LittleEndian, &recordCount); err != nil {
		return nil, fmt.Errorf("reading record_count: %w", err)
	}

	s := &sketch.Sketch{
		KmerSize:  int(kmerSize),
		Algorithm: hasher.Algorithm(algo),
		Policy:    policy,
		Singleton: flags&flagSingleton != 0,
		Source:    source,
		Records:   make([]*sketch.RecordSketch, 0, recordCount),
	}

	for i := uint64(0); i < recordCount; i++ {
		name, err := readString(br)
		if err != nil {
			return nil, fmt.Errorf("record %d: reading name: %w", i, err)
		}
		var numKmers, hashCount uint64
		if err := binary.Read(br, binary.LittleEndian, &numKmers); err != nil {
			return nil, fmt.Errorf("record %d: reading num_kmers: %w", i, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &hashCount); err != nil {
			return nil, fmt.Errorf("record %d: reading hash_count: %w", i, err)
		}
		hashes := make([]uint64, hashCount)
		for j := range hashes {
			if err := binary.Read(br, binary.LittleEndian, &hashes[j]); err != nil {
				return nil, fmt.Errorf("record %d: reading hash %d: %w", i, j, err)
			}
		}
		var stats *sketch.Stats
		if hasStats {
			stats, err = readStats(br)
			if err != nil {
				return nil, fmt.Errorf("record %d: reading stats: %w", i, err)
			}
		}
		s.Records = append(s.Records, sketch.NewRecordSketchFromOrderedHashes(name, hashes, numKmers, stats))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readStats(r io.Reader) (*sketch.Stats, error) {
	st := &sketch.Stats{}
	fields := []interface{}{&st.GCPercent, &st.Length, &st.ACount, &st.CCount, &st.GCount, &st.TCount}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return st, nil
}
