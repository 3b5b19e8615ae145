// Package mp4 provides flat ISO-BMFF box walking and box construction for
// container repair. Only the top-level box sequence matters here; repair
// never needs to descend into sub-boxes.
package mp4

import (
	"encoding/binary"
	"io"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/media"
)

// Required top-level boxes for a playable MP4.
var RequiredBoxes = []string{"ftyp", "moov", "mdat"}

// Block is one top-level box: 4-byte tag, offset, declared size and a
// validity flag. An invalid block has a size below the minimum header size
// or beyond the remaining file length.
type Block struct {
	Type   string
	Offset uint64
	Size   uint64
	Valid  bool
}

// End returns the offset one past the block's declared extent.
func (b Block) End() uint64 {
	return b.Offset + b.Size
}

// WalkResult is the ordered top-level block sequence of a file.
type WalkResult struct {
	Blocks       []Block
	ValidCount   int
	InvalidCount int
}

// Find returns the first valid block with the given tag, or nil.
func (w *WalkResult) Find(tag string) *Block {
	for i := range w.Blocks {
		if w.Blocks[i].Type == tag && w.Blocks[i].Valid {
			return &w.Blocks[i]
		}
	}
	return nil
}

// MissingRequired lists required boxes with no valid occurrence.
func (w *WalkResult) MissingRequired() []string {
	var missing []string
	for _, tag := range RequiredBoxes {
		if w.Find(tag) == nil {
			missing = append(missing, tag)
		}
	}
	return missing
}

// Walk reads the top-level box sequence. Invalid size fields advance by the
// minimum block size so the walk always makes forward progress; for a file
// of N bytes it terminates within N/8 + 1 steps and never emits a
// zero-size block.
func Walk(f *media.File) (*WalkResult, error) {
	result := &WalkResult{}
	var header [config.MinBlockSize]byte
	offset := uint64(0)

	for offset+config.MinBlockSize <= f.Size {
		if _, err := f.ReadAt(header[:], int64(offset)); err != nil && err != io.EOF {
			return nil, err
		}

		size := uint64(binary.BigEndian.Uint32(header[0:4]))
		tag := printableTag(header[4:8])

		block := Block{Type: tag, Offset: offset, Size: size}
		if size < config.MinBlockSize || size > f.Size-offset {
			block.Valid = false
			block.Size = config.MinBlockSize
			result.InvalidCount++
			offset += config.MinBlockSize
		} else {
			block.Valid = true
			result.ValidCount++
			offset += size
		}
		result.Blocks = append(result.Blocks, block)
	}

	return result, nil
}

// printableTag renders a 4-byte tag, substituting '?' for non-printable
// bytes so corrupted tags stay loggable.
func printableTag(b []byte) string {
	tag := make([]byte, 4)
	for i := 0; i < 4; i++ {
		if b[i] >= 0x20 && b[i] < 0x7F {
			tag[i] = b[i]
		} else {
			tag[i] = '?'
		}
	}
	return string(tag)
}

// CheckMoovStructure walks the child boxes of a moov block and reports
// whether its internal structure is coherent enough to reuse: every child
// size must tile the box exactly and an mvhd plus at least one trak must be
// present. Only child headers are read, so a corrupted size field declaring
// a file-sized moov costs nothing.
func CheckMoovStructure(f *media.File, moov Block) bool {
	if !moov.Valid || moov.Size <= config.MinBlockSize {
		return false
	}

	hasMvhd := false
	hasTrak := false
	var header [config.MinBlockSize]byte
	end := moov.End()
	for off := moov.Offset + config.MinBlockSize; off+config.MinBlockSize <= end; {
		if _, err := f.ReadAt(header[:], int64(off)); err != nil && err != io.EOF {
			return false
		}
		size := uint64(binary.BigEndian.Uint32(header[0:4]))
		if size < config.MinBlockSize || size > end-off {
			return false
		}
		switch string(header[4:8]) {
		case "mvhd":
			hasMvhd = true
		case "trak":
			hasTrak = true
		}
		off += size
	}
	return hasMvhd && hasTrak
}
