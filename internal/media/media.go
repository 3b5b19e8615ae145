// Package media provides read-only access to a media file under analysis.
package media

import (
	"fmt"
	"io"
	"os"
	"time"
)

// File is a media file opened for corruption analysis. The underlying file
// is only ever opened read-only; repair output always goes to new files.
type File struct {
	Path    string
	Size    uint64
	ModTime time.Time

	f *os.File
}

// Open opens path read-only and captures its metadata. An empty file is
// rejected up front since nothing can be recovered from zero bytes.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%s is empty", path)
	}

	return &File{
		Path:    path,
		Size:    uint64(info.Size()),
		ModTime: info.ModTime(),
		f:       f,
	}, nil
}

// Close releases the underlying file handle.
func (m *File) Close() error {
	if m == nil || m.f == nil {
		return nil
	}
	return m.f.Close()
}

// ReadAt reads len(p) bytes starting at offset off.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	return m.f.ReadAt(p, off)
}

// ReadPrefix reads up to n bytes from the start of the file. The returned
// slice may be shorter than n for small files.
func (m *File) ReadPrefix(n uint64) ([]byte, error) {
	if n > m.Size {
		n = m.Size
	}
	buf := make([]byte, n)
	read, err := m.f.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("cannot read prefix of %s: %w", m.Path, err)
	}
	return buf[:read], nil
}

// Reader returns an io.Reader positioned at the start of the file.
func (m *File) Reader() (io.Reader, error) {
	if _, err := m.f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return m.f, nil
}
