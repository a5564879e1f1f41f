package jamutil

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// RunInfo records the parameters a `sketch` invocation ran with. sketch
// writes one alongside its output (<output>.runinfo) so later readers
// can recover exactly how the inputs were sketched.
type RunInfo struct {
	Version      string
	KmerSize     int
	Algorithm    string
	Fscale       uint64
	Kscale       uint64
	Nmin         uint64
	Nmax         uint64
	Singleton    bool
	InputSources []string
	NumProc      int
}

// Dump gob-encodes info to path.
func (info *RunInfo) Dump(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return gob.NewEncoder(fh).Encode(info)
}

// Load gob-decodes a RunInfo previously written by Dump.
func (info *RunInfo) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return info.LoadFromBytes(data)
}

// LoadFromBytes decodes a RunInfo from an in-memory gob blob.
func (info *RunInfo) LoadFromBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("run-info sidecar is empty")
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(info)
}
