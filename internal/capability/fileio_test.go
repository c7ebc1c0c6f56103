package capability

import (
	"path/filepath"
	"testing"
)

func TestOSFileIOWriteAndReadGlob(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	io := OSFileIO{}
	if err := io.WriteFile(path, []byte("hello"), false); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := io.WriteFile(path, []byte(" world"), true); err != nil {
		t.Fatalf("WriteFile append: %v", err)
	}

	entries, err := io.ReadGlob(filepath.Join(dir, "*.txt"))
	if err != nil {
		t.Fatalf("ReadGlob: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if string(entries[0].Data) != "hello world" {
		t.Errorf("Data = %q, want %q", entries[0].Data, "hello world")
	}
}

func TestOSFileIOReadGlobNoMatches(t *testing.T) {
	entries, err := (OSFileIO{}).ReadGlob(filepath.Join(t.TempDir(), "*.missing"))
	if err != nil {
		t.Fatalf("ReadGlob: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
