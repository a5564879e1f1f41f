// Package report holds optional presentation-layer add-ons for `dist`:
// GFA reference-panel annotation and a containment histogram. Neither
// is part of the core containment estimate; both are opt-in flags.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/will-rowe/gfa"
)

// Panel maps a reference panel's GFA segment names to themselves, so
// dist can report which panel segment a database record corresponds
// to. Lookup is by record name; a miss just means the record has no
// matching segment in the panel.
type Panel struct {
	segments map[string]struct{}
}

// LoadPanel reads a GFA file and indexes its segment names.
func LoadPanel(path string) (*Panel, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening panel %s: %w", path, err)
	}
	defer fh.Close()

	reader, err := gfa.NewReader(fh)
	if err != nil {
		return nil, fmt.Errorf("reading panel %s: %w", path, err)
	}
	instance := reader.CollectGFA()
	for {
		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line from panel %s: %w", path, err)
		}
		if err := line.Add(instance); err != nil {
			return nil, fmt.Errorf("adding line from panel %s: %w", path, err)
		}
	}

	segments, err := instance.GetSegments()
	if err != nil {
		return nil, fmt.Errorf("panel %s has no segments: %w", path, err)
	}

	p := &Panel{segments: make(map[string]struct{}, len(segments))}
	for _, seg := range segments {
		p.segments[string(seg.Name)] = struct{}{}
	}
	return p, nil
}

// Annotate returns the panel segment name matching recordName, and
// whether one was found.
func (p *Panel) Annotate(recordName string) (string, bool) {
	if p == nil {
		return "", false
	}
	if _, ok := p.segments[recordName]; ok {
		return recordName, true
	}
	return "", false
}
