package codec

import (
	"bufio"
	"fmt"
	"io"

	"github.com/will-rowe/jam/src/sketch"
)

// DecodeAllNative reads every concatenated native-format Sketch from r,
// in file order, until EOF. sketch output files hold one Sketch per
// input, one after another, since EncodeNative always writes a single
// self-delimiting record; merge output holds a single Sketch.
func DecodeAllNative(r io.Reader) ([]*sketch.Sketch, error) {
	// one shared buffered reader, so that read-ahead past the end of one
	// sketch is still there for the next DecodeNative call
	br := bufio.NewReader(r)
	var out []*sketch.Sketch
	for {
		// a clean EOF with zero bytes left is the expected
		// end-of-stream signal; anything else is a real failure
		if _, err := br.Peek(1); err == io.EOF {
			break
		}
		s, err := DecodeNative(br)
		if err != nil {
			return nil, fmt.Errorf("decoding sketch %d: %w", len(out), err)
		}
		out = append(out, s)
	}
	return out, nil
}
