package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vidmend/vidmend/internal/errors"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
		t.Fatalf("writeFile(%s) error = %v", name, err)
	}
}

func TestFindVideoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.mp4")
	writeFile(t, dir, "A.mkv")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, ".hidden.mp4")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := FindVideoFiles(dir)
	if err != nil {
		t.Fatalf("FindVideoFiles() error = %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2: %v", len(files), files)
	}

	// Case-insensitive alphabetical order by basename.
	if filepath.Base(files[0]) != "A.mkv" || filepath.Base(files[1]) != "b.mp4" {
		t.Errorf("files out of order: %v", files)
	}
}

func TestFindVideoFilesEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md")

	_, err := FindVideoFiles(dir)
	if !errors.IsNoFilesFound(err) {
		t.Errorf("FindVideoFiles() error = %v, want no-files-found", err)
	}
}

func TestFindVideoFilesMissingDirectory(t *testing.T) {
	_, err := FindVideoFiles(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Error("FindVideoFiles() expected error for missing directory, got nil")
	}
}

func TestFindVideoFilesNotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "file.mp4")

	_, err := FindVideoFiles(filepath.Join(dir, "file.mp4"))
	if err == nil {
		t.Error("FindVideoFiles() expected error for non-directory, got nil")
	}
}

func TestFindVideoFilesWithLoggingCountsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mp4")
	writeFile(t, dir, "cover.jpg")
	writeFile(t, dir, "subs.srt")

	result, err := FindVideoFilesWithLogging(dir, nil)
	if err != nil {
		t.Fatalf("FindVideoFilesWithLogging() error = %v", err)
	}
	if len(result.Files) != 1 {
		t.Errorf("len(Files) = %d, want 1", len(result.Files))
	}
	if result.SkippedCount != 2 {
		t.Errorf("SkippedCount = %d, want 2", result.SkippedCount)
	}
}
