package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(">x\nACGT\n"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestCollectPlainFiles(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.fasta")
	b := touch(t, dir, "b.fastq")
	got, err := Collect([]string{a, b})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %v", got)
	}
}

func TestCollectDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.fasta")
	touch(t, dir, "b.fa.gz")
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o644)

	got, err := Collect([]string{dir})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sequence files from directory, got %v", got)
	}
}

func TestCollectListFile(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.fasta")
	b := touch(t, dir, "b.fasta")
	listPath := filepath.Join(dir, "inputs.list")
	if err := os.WriteFile(listPath, []byte(a+"\n"+b+"\n"), 0o644); err != nil {
		t.Fatalf("writing list file: %v", err)
	}

	got, err := Collect([]string{listPath})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 files from list expansion, got %v", got)
	}
}

func TestCollectRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	bad := touch(t, dir, "notes.txt")
	if _, err := Collect([]string{bad}); err == nil {
		t.Fatal("expected an error for an unrecognised extension")
	}
}

func TestCollectRejectsMultipleListFiles(t *testing.T) {
	dir := t.TempDir()
	l1 := filepath.Join(dir, "a.list")
	l2 := filepath.Join(dir, "b.list")
	os.WriteFile(l1, []byte(""), 0o644)
	os.WriteFile(l2, []byte(""), 0o644)
	if _, err := Collect([]string{l1, l2}); err == nil {
		t.Fatal("expected an error for multiple list files")
	}
}

func TestCollectDeduplicates(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.fasta")
	got, err := Collect([]string{a, a})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected duplicate input to collapse to 1 entry, got %v", got)
	}
}
