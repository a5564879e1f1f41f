// Package discover expands a list of command-line input arguments
// (files, directories, .list files, and archives) into a concrete,
// order-preserving list of sequence file paths.
package discover

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mholt/archiver"
)

var sequenceExtensions = map[string]bool{
	"fasta": true,
	"fa":    true,
	"fna":   true,
	"fastq": true,
	"fq":    true,
	"gz":    true,
}

// hasSequenceExtension reports whether path's extension (after
// stripping a trailing .gz) names a format decode.Open understands.
func hasSequenceExtension(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	if !sequenceExtensions[ext] {
		return false
	}
	if ext == "gz" {
		inner := strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))), "."))
		return sequenceExtensions[inner]
	}
	return true
}

var archiveExtensions = []string{".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz"}

func isArchive(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Collect expands args into a concrete, deduplicated list of sequence
// file paths: directories are walked one level deep, .list files are
// read as one path per line, and recognised archives are extracted to
// a scratch directory and walked too. A bare file with an
// unrecognised extension is a hard error, matching the original's
// strict `test_and_collect_files` behaviour.
func Collect(args []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	var listFile string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}

		switch {
		case info.IsDir():
			entries, err := collectDir(arg)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				add(e)
			}

		case isArchive(arg):
			entries, err := collectArchive(arg)
			if err != nil {
				return nil, fmt.Errorf("extracting %s: %w", arg, err)
			}
			for _, e := range entries {
				add(e)
			}

		case strings.HasSuffix(arg, ".list"):
			if listFile != "" {
				return nil, fmt.Errorf("found multiple .list files in input (%s and %s)", listFile, arg)
			}
			listFile = arg

		case hasSequenceExtension(arg):
			add(arg)

		default:
			return nil, fmt.Errorf("%s: unrecognised extension (expected .fasta/.fa/.fna/.fastq/.fq, optionally .gz, a directory, an archive, or a .list file)", arg)
		}
	}

	if listFile != "" {
		entries, err := readListFile(listFile)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			add(e)
		}
	}

	return out, nil
}

func collectDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if hasSequenceExtension(path) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out, nil
}

func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading list file %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, err := os.Stat(line); err != nil {
			return nil, fmt.Errorf("list file %s references missing path %s: %w", path, line, err)
		}
		if !hasSequenceExtension(line) {
			return nil, fmt.Errorf("list file %s references %s with an unrecognised extension", path, line)
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading list file %s: %w", path, err)
	}
	return out, nil
}

// collectArchive extracts a .zip/.tar(.gz|.bz2|.xz) archive to a
// scratch directory beside it and returns the sequence files it
// contained. Extraction is delegated to mholt/archiver, which the
// pipeline already depends on for its own bundled test data.
func collectArchive(path string) ([]string, error) {
	dest := path + ".jam-extracted"
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}
	if err := archiver.Unarchive(path, dest); err != nil {
		return nil, err
	}
	var out []string
	err := filepath.Walk(dest, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && hasSequenceExtension(p) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
