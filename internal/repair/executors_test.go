package repair

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/util"
)

func TestWriteUnitsSkipsUnreadable(t *testing.T) {
	f := openSynthetic(t, noise(100))

	units := []nal.Unit{
		{Offset: 0, Size: 40},
		{Offset: 40, Size: 30},
		{Offset: 70, Size: 60}, // extends past EOF, must be skipped
		{Offset: 90, Size: 0},  // zero size, must be skipped
	}

	var out bytes.Buffer
	written, err := writeUnits(&out, f, units)
	require.NoError(t, err)

	assert.Equal(t, 2, written)
	assert.Equal(t, 70, out.Len())
	assert.Equal(t, noise(100)[:70], out.Bytes())
}

func TestCopyRange(t *testing.T) {
	f := openSynthetic(t, noise(1000))

	var out bytes.Buffer
	require.NoError(t, copyRange(&out, f, 100, 350))
	assert.Equal(t, noise(1000)[100:350], out.Bytes())
}

func TestWriteRange(t *testing.T) {
	f := openSynthetic(t, noise(500))
	path := filepath.Join(t.TempDir(), "slice.bin")

	require.NoError(t, writeRange(path, f, 0, 500))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, noise(500), got)
}

func TestJobCandidatePathsAreScoped(t *testing.T) {
	// Two strategies for the same input must never collide on disk.
	tmpRoot, err := util.CreateTempDir(t.TempDir(), "vidmend")
	require.NoError(t, err)
	defer func() { _ = tmpRoot.Cleanup() }()

	a := tmpRoot.ScopedPath("clip", "quick-remux", ".mp4")
	b := tmpRoot.ScopedPath("clip", "deep-recovery", ".mp4")
	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Dir(a), filepath.Dir(b))
}
