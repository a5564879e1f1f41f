package jamutil

import (
	"fmt"
	"os"

	"gopkg.in/vmihailenco/msgpack.v2"
)

// Manifest records which sketches went into a merge, in order, so a
// combined database can always be traced back to its inputs.
type Manifest struct {
	KmerSize     int
	Algorithm    string
	SourceFiles  []string
	RecordCounts []int
}

// Dump msgpack-encodes the manifest to path.
func (m *Manifest) Dump(path string) error {
	b, err := msgpack.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Load msgpack-decodes a manifest previously written by Dump.
func (m *Manifest) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return fmt.Errorf("manifest file %s is empty", path)
	}
	return msgpack.Unmarshal(b, m)
}
