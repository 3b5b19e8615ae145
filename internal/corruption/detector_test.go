package corruption

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmend/vidmend/internal/media"
)

func openBytes(t *testing.T, data []byte) *media.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	f, err := media.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// noise fills a buffer with non-zero bytes that can't form zero runs or
// tiny size-field values.
func noise(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i%200 + 32)
	}
	return out
}

func TestDetectZeroRunMidFile(t *testing.T) {
	// 4 KiB of zeros at offset 10000 in a 1,000,000-byte file.
	data := noise(1000000)
	copy(data[10000:14096], make([]byte, 4096))

	report, err := Detect(openBytes(t, data), false)
	require.NoError(t, err)
	require.Len(t, report.Regions, 1)

	r := report.Regions[0]
	assert.Equal(t, uint64(10000), r.Start)
	assert.Equal(t, uint64(14096), r.End)
	assert.Equal(t, KindZeroRun, r.Kind)
	assert.Equal(t, uint64(4096), report.CorruptedBytes)
	assert.InDelta(t, 0.004096, report.Ratio(uint64(len(data))), 1e-9)
}

func TestDetectIgnoresShortZeroRuns(t *testing.T) {
	data := noise(100000)
	copy(data[5000:6000], make([]byte, 1000)) // below the 1024 threshold

	report, err := Detect(openBytes(t, data), false)
	require.NoError(t, err)
	assert.Empty(t, report.Regions)
	assert.Zero(t, report.CorruptedBytes)
}

func TestDetectZeroRunAtEOF(t *testing.T) {
	data := noise(50000)
	copy(data[48000:], make([]byte, 2000)) // truncation-style trailing zeros

	report, err := Detect(openBytes(t, data), false)
	require.NoError(t, err)
	require.Len(t, report.Regions, 1)
	assert.Equal(t, uint64(48000), report.Regions[0].Start)
	assert.Equal(t, uint64(50000), report.Regions[0].End)
}

func TestDetectZeroRunAcrossChunkBoundary(t *testing.T) {
	// A run straddling the 1 MiB detector chunk boundary must be one region.
	size := 2 << 20
	data := noise(size)
	runStart := (1 << 20) - 2048
	copy(data[runStart:runStart+8192], make([]byte, 8192))

	report, err := Detect(openBytes(t, data), false)
	require.NoError(t, err)
	require.Len(t, report.Regions, 1)
	assert.Equal(t, uint64(runStart), report.Regions[0].Start)
	assert.Equal(t, uint64(runStart+8192), report.Regions[0].End)
}

func TestDetectInvalidSizeFieldMP4Only(t *testing.T) {
	data := noise(8192)
	// Plant a nonsensical box length (value 3) at a 4-byte-aligned offset.
	binary.BigEndian.PutUint32(data[1024:1028], 3)

	report, err := Detect(openBytes(t, data), true)
	require.NoError(t, err)
	require.Len(t, report.Regions, 1)
	assert.Equal(t, Region{Start: 1024, End: 1032, Kind: KindInvalidSize}, report.Regions[0])

	// The same bytes scanned as a non-MP4 file raise nothing.
	report, err = Detect(openBytes(t, data), false)
	require.NoError(t, err)
	assert.Empty(t, report.Regions)
}

func TestDetectMergesAdjacentFindings(t *testing.T) {
	data := noise(16384)
	copy(data[4096:5200], make([]byte, 1104)) // zero run
	binary.BigEndian.PutUint32(data[5200:5204], 7)

	report, err := Detect(openBytes(t, data), true)
	require.NoError(t, err)
	require.Len(t, report.Regions, 1)
	assert.Equal(t, KindMixed, report.Regions[0].Kind)
	assert.Equal(t, uint64(4096), report.Regions[0].Start)
	assert.Equal(t, uint64(5208), report.Regions[0].End)
}

func TestDetectCapsPathologicalInputs(t *testing.T) {
	// Thousands of isolated invalid size fields exceed the region cap.
	data := noise(1 << 20)
	for i := 0; i < 8000; i++ {
		off := i * 128
		binary.BigEndian.PutUint32(data[off:off+4], 5)
	}

	report, err := Detect(openBytes(t, data), true)
	require.NoError(t, err)
	assert.True(t, report.Capped)
	assert.Empty(t, report.Regions)
}

func TestDetectAllZeroFile(t *testing.T) {
	report, err := Detect(openBytes(t, bytes.Repeat([]byte{0x00}, 100000)), false)
	require.NoError(t, err)
	require.Len(t, report.Regions, 1)
	assert.Equal(t, uint64(0), report.Regions[0].Start)
	assert.Equal(t, uint64(100000), report.Regions[0].End)
	assert.Equal(t, uint64(100000), report.CorruptedBytes)
}
