package codec

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/will-rowe/jam/src/filter"
	"github.com/will-rowe/jam/src/hasher"
	"github.com/will-rowe/jam/src/sketch"
)

// sourmashSignature mirrors the subset of sourmash's JSON signature
// schema this tool can produce and consume. Fields outside this subset
// (abundances, multiple signatures per ksize, dayhoff/protein moltypes)
// are neither written nor preserved: round-tripping through this format
// loses stats and kscale, per spec §4.6.
type sourmashSignature struct {
	Class        string            `json:"class"`
	Email        string            `json:"email"`
	Filename     string            `json:"filename"`
	Name         string            `json:"name"`
	HashFunction string            `json:"hash_function"`
	Signatures   []sourmashMinHash `json:"signatures"`
	Version      float64           `json:"version"`
}

type sourmashMinHash struct {
	Num     int      `json:"num"`
	Ksize   int      `json:"ksize"`
	Seed    int      `json:"seed"`
	MaxHash uint64   `json:"max_hash"`
	Mins    []uint64 `json:"mins"`
	MD5Sum  string   `json:"md5sum"`
}

const sourmashSeed = 42

func hashFunctionName(a hasher.Algorithm) string {
	if a == hasher.Murmur3 {
		return "murmur64"
	}
	return "murmur64" // sourmash has no other hash_function value; interop is only well-defined for Murmur3 sketches
}

// EncodeSourmash writes s as a sourmash-compatible signature document.
// It is lossy: base-composition stats and any kscale restriction are
// dropped, and num is set to 0 (scaled signature) with max_hash carrying
// the fscale ceiling, matching sourmash's own scaled-signature encoding.
func EncodeSourmash(w io.Writer, s *sketch.Sketch) error {
	doc := make([]sourmashSignature, 0, len(s.Records))
	for _, r := range s.Records {
		mins := r.SortedHashes()
		mh := sourmashMinHash{
			Num:     0,
			Ksize:   s.KmerSize,
			Seed:    sourmashSeed,
			MaxHash: s.Policy.HMax(),
			Mins:    mins,
			MD5Sum:  minsMD5(mins),
		}
		doc = append(doc, sourmashSignature{
			Class:        "sourmash_signature",
			Filename:     s.Source,
			Name:         r.Name,
			HashFunction: hashFunctionName(s.Algorithm),
			Signatures:   []sourmashMinHash{mh},
			Version:      0.4,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DecodeSourmash reads a sourmash signature document back into a
// Sketch. Every signature in the document must share the same ksize;
// a mix of ksizes is a HeaderMismatch, same as the native format.
func DecodeSourmash(r io.Reader) (*sketch.Sketch, error) {
	var doc []sourmashSignature
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding sourmash signature document: %w", err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("sourmash signature document has no signatures")
	}

	s := &sketch.Sketch{Singleton: len(doc) > 1}

	for i, sig := range doc {
		if len(sig.Signatures) == 0 {
			return nil, fmt.Errorf("signature %d (%s) has no minhash entries", i, sig.Name)
		}
		mh := sig.Signatures[0]
		if i == 0 {
			s.KmerSize = mh.Ksize
			s.Algorithm = hasher.Murmur3
			s.Policy = filter.Policy{}.WithExplicitHMax(mh.MaxHash)
			s.Source = sig.Filename
		} else if mh.Ksize != s.KmerSize {
			return nil, fmt.Errorf("HeaderMismatch: signature %d ksize %d does not match %d", i, mh.Ksize, s.KmerSize)
		}
		order := append([]uint64(nil), mh.Mins...)
		s.Records = append(s.Records, sketch.NewRecordSketchFromOrderedHashes(sig.Name, order, uint64(len(order)), nil))
	}

	return s, nil
}

func minsMD5(mins []uint64) string {
	h := md5.New()
	buf := make([]byte, 8)
	for _, m := range mins {
		for i := 0; i < 8; i++ {
			buf[i] = byte(m >> (8 * i))
		}
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
