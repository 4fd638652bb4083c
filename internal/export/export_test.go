package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveTranscript_DefaultFilename(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveTranscript("hello", dir, "")
	if err != nil {
		t.Fatalf("SaveTranscript error: %v", err)
	}
	if filepath.Base(path) != DefaultFilename {
		t.Errorf("filename = %s, want %s", filepath.Base(path), DefaultFilename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}
}

func TestSaveTranscript_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()

	first, err := SaveTranscript("one", dir, "out.txt")
	if err != nil {
		t.Fatalf("first save error: %v", err)
	}

	second, err := SaveTranscript("two", dir, "out.txt")
	if err != nil {
		t.Fatalf("second save error: %v", err)
	}
	if second == first {
		t.Fatal("second save must pick a fresh name")
	}
	if filepath.Base(second) != "out (1).txt" {
		t.Errorf("second filename = %s, want out (1).txt", filepath.Base(second))
	}

	data, _ := os.ReadFile(first)
	if string(data) != "one" {
		t.Errorf("first file was overwritten: %q", data)
	}

	third, err := SaveTranscript("three", dir, "out.txt")
	if err != nil {
		t.Fatalf("third save error: %v", err)
	}
	if filepath.Base(third) != "out (2).txt" {
		t.Errorf("third filename = %s, want out (2).txt", filepath.Base(third))
	}
}
