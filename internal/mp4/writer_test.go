package mp4

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkChildren tiles a box body into (tag, size) pairs, failing on overrun.
func walkChildren(t *testing.T, body []byte) []string {
	t.Helper()
	var tags []string
	for i := 0; i < len(body); {
		require.LessOrEqual(t, i+8, len(body), "truncated child header")
		size := int(binary.BigEndian.Uint32(body[i : i+4]))
		require.GreaterOrEqual(t, size, 8)
		require.LessOrEqual(t, i+size, len(body), "child overruns parent")
		tags = append(tags, string(body[i+4:i+8]))
		i += size
	}
	return tags
}

func TestBuilderPatchesSizes(t *testing.T) {
	b := &Builder{}
	outer := b.Begin("moov")
	inner := b.Begin("mvhd")
	b.PutUint32(42)
	b.End(inner)
	b.End(outer)

	data := b.Bytes()
	require.Len(t, data, 8+8+4)

	assert.Equal(t, uint32(20), binary.BigEndian.Uint32(data[0:4]))
	assert.Equal(t, "moov", string(data[4:8]))
	assert.Equal(t, uint32(12), binary.BigEndian.Uint32(data[8:12]))
	assert.Equal(t, "mvhd", string(data[12:16]))
}

func TestSynthesizeFtyp(t *testing.T) {
	data := SynthesizeFtyp()
	assert.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[0:4]))
	assert.Equal(t, "ftyp", string(data[4:8]))
	assert.Equal(t, "isom", string(data[8:12]))
}

func TestSynthesizeMoovVideoOnly(t *testing.T) {
	data := SynthesizeMoov(MoovParams{Width: 1280, Height: 720, DurationSecs: 30})

	// Declared length equals its own byte count.
	assert.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[0:4]))
	assert.Equal(t, "moov", string(data[4:8]))

	tags := walkChildren(t, data[8:])
	assert.Equal(t, []string{"mvhd", "trak"}, tags)
}

func TestSynthesizeMoovWithAudio(t *testing.T) {
	data := SynthesizeMoov(MoovParams{IncludeAudio: true})
	tags := walkChildren(t, data[8:])
	assert.Equal(t, []string{"mvhd", "trak", "trak"}, tags)
}

func TestSynthesizeMoovDefaults(t *testing.T) {
	data := SynthesizeMoov(MoovParams{})
	// Defaults must produce a structurally coherent box regardless of input.
	require.Equal(t, uint32(len(data)), binary.BigEndian.Uint32(data[0:4]))
	walkChildren(t, data[8:])
}

func TestFileSizeFieldPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	field, err := BeginFileBox(f, "mdat")
	require.NoError(t, err)

	payload := bytes.Repeat([]byte{0xAB}, 1000)
	_, err = f.Write(payload)
	require.NoError(t, err)
	require.NoError(t, field.Patch(f))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 1008)
	assert.Equal(t, uint32(1008), binary.BigEndian.Uint32(data[0:4]))
	assert.Equal(t, "mdat", string(data[4:8]))
	assert.Equal(t, payload, data[8:])
}
