package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TempDir is a working directory for repair candidates that can be
// removed wholesale once a candidate has been promoted or discarded.
type TempDir struct {
	Path string
}

// CreateTempDir creates a uniquely named working directory under baseDir.
func CreateTempDir(baseDir, prefix string) (*TempDir, error) {
	if err := EnsureDirectoryWritable(baseDir); err != nil {
		return nil, err
	}
	path, err := os.MkdirTemp(baseDir, prefix+"_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory in %s: %w", baseDir, err)
	}
	return &TempDir{Path: path}, nil
}

// Cleanup removes the temp directory and everything in it.
func (d *TempDir) Cleanup() error {
	if d == nil || d.Path == "" {
		return nil
	}
	return os.RemoveAll(d.Path)
}

// ScopedPath returns a path inside the temp directory whose name is scoped
// to the given file stem and label, so concurrent repairs of different
// inputs can never collide.
func (d *TempDir) ScopedPath(stem, label, ext string) string {
	return filepath.Join(d.Path, fmt.Sprintf("%s_%s%s", stem, label, ext))
}

// EnsureDirectoryWritable verifies that path is an existing, writable directory.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("directory %s does not exist: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	probe := filepath.Join(path, ".vidmend_write_test")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", path, err)
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return nil
}

// PromoteFile moves a verified temp candidate to its final path. A rename is
// tried first; cross-device moves fall back to a streaming copy-and-delete,
// since candidates can be many gigabytes. The final path is only ever
// written from an already verified candidate.
func PromoteFile(tempPath, finalPath string) error {
	if err := os.Rename(tempPath, finalPath); err == nil {
		return nil
	}

	if err := copyFile(tempPath, finalPath); err != nil {
		return err
	}
	return os.Remove(tempPath)
}

// copyFile streams src into dst. A partial dst is removed on failure.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read candidate %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
