package signature

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmend/vidmend/internal/media"
)

// writeTempFile writes data to a temp file and opens it for analysis.
func writeTempFile(t *testing.T, data []byte) *media.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	f, err := media.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// buildBox returns an MP4 box with the given tag and payload.
func buildBox(tag string, payload []byte) []byte {
	box := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(box[0:4], uint32(8+len(payload)))
	copy(box[4:8], tag)
	copy(box[8:], payload)
	return box
}

func TestScanDeclaresMP4FromThreeBoxes(t *testing.T) {
	var data []byte
	data = append(data, buildBox("ftyp", []byte("isomiso2avc1"))...)
	data = append(data, buildBox("moov", make([]byte, 64))...)
	data = append(data, buildBox("mdat", make([]byte, 128))...)

	result, err := Scan(writeTempFile(t, data))
	require.NoError(t, err)

	assert.Equal(t, KindMP4, result.Container)
	assert.True(t, result.HasContainerSub("ftyp"))
	assert.True(t, result.HasContainerSub("moov"))
	assert.True(t, result.HasContainerSub("mdat"))
}

func TestScanMP4BeatsLoneEBMLMagic(t *testing.T) {
	// A stray EBML magic inside the payload must not outvote ftyp+mdat.
	payload := []byte{0x1A, 0x45, 0xDF, 0xA3}
	var data []byte
	data = append(data, buildBox("ftyp", []byte("isom"))...)
	data = append(data, buildBox("mdat", payload)...)

	result, err := Scan(writeTempFile(t, data))
	require.NoError(t, err)
	assert.Equal(t, KindMP4, result.Container)
}

func TestScanDetectsH264AndAAC(t *testing.T) {
	data := make([]byte, 0, 256)
	data = append(data, buildBox("ftyp", []byte("isom"))...)
	data = append(data, 0x00, 0x00, 0x00, 0x01, 0x67, 0x64, 0x00, 0x1F) // SPS
	data = append(data, 0x00, 0x00, 0x00, 0x01, 0x68, 0xEB, 0xE3, 0xCB) // PPS
	data = append(data, 0xFF, 0xF1, 0x50, 0x80)                         // ADTS header
	result, err := Scan(writeTempFile(t, data))
	require.NoError(t, err)

	assert.Equal(t, KindH264, result.VideoCodec)
	assert.Equal(t, KindAAC, result.AudioCodec)
}

func TestScanUndeterminedOnGarbage(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i%251 + 2) // avoid zero runs and sync bytes
	}
	// Scrub accidental 0xFF pairs that could look like audio sync words.
	for i := 0; i < len(data)-1; i++ {
		if data[i] == 0xFF {
			data[i] = 0x7F
		}
	}

	result, err := Scan(writeTempFile(t, data))
	require.NoError(t, err)

	assert.Equal(t, KindUnknown, result.Container)
	assert.Equal(t, KindUnknown, result.VideoCodec)
	assert.Equal(t, KindUnknown, result.AudioCodec)
}

func TestFindAllCapsMatches(t *testing.T) {
	data := make([]byte, 0, 1024)
	for i := 0; i < 20; i++ {
		data = append(data, []byte("ftyp....")...)
	}

	result, err := Scan(writeTempFile(t, data))
	require.NoError(t, err)

	count := 0
	for _, m := range result.Matches {
		if m.Name == "ftyp" {
			count++
		}
	}
	assert.Equal(t, 5, count, "matches per pattern should be capped")
}
