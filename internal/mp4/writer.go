package mp4

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Builder assembles MP4 boxes in memory. Box sizes are handled as explicit
// reserve-then-patch operations: Begin writes a placeholder size field and
// records its position, End rewrites it once the content length is known.
type Builder struct {
	buf []byte
}

// SizePos marks a reserved size field awaiting its final value.
type SizePos int

// Begin opens a box: reserves the 4-byte size field, writes the tag, and
// returns the position to patch in End.
func (b *Builder) Begin(tag string) SizePos {
	pos := SizePos(len(b.buf))
	b.buf = append(b.buf, 0, 0, 0, 0)
	b.buf = append(b.buf, tag[:4]...)
	return pos
}

// End patches the size field reserved at pos to cover everything written
// since Begin.
func (b *Builder) End(pos SizePos) {
	size := uint32(len(b.buf) - int(pos))
	binary.BigEndian.PutUint32(b.buf[pos:pos+4], size)
}

// PutUint32 appends a big-endian uint32.
func (b *Builder) PutUint32(v uint32) {
	b.buf = binary.BigEndian.AppendUint32(b.buf, v)
}

// PutUint16 appends a big-endian uint16.
func (b *Builder) PutUint16(v uint16) {
	b.buf = binary.BigEndian.AppendUint16(b.buf, v)
}

// PutBytes appends raw bytes.
func (b *Builder) PutBytes(p []byte) {
	b.buf = append(b.buf, p...)
}

// PutZeros appends n zero bytes.
func (b *Builder) PutZeros(n int) {
	b.buf = append(b.buf, make([]byte, n)...)
}

// Len returns the current content length.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Bytes returns the assembled content.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// MoovParams carries what little metadata could be recovered for the
// synthesized index. Zero values fall back to plausible defaults.
type MoovParams struct {
	Width        uint32
	Height       uint32
	Timescale    uint32
	DurationSecs float64
	IncludeAudio bool
}

const (
	defaultWidth     = 1920
	defaultHeight    = 1080
	defaultTimescale = 1000
)

func (p *MoovParams) fill() {
	if p.Width == 0 {
		p.Width = defaultWidth
	}
	if p.Height == 0 {
		p.Height = defaultHeight
	}
	if p.Timescale == 0 {
		p.Timescale = defaultTimescale
	}
}

// SynthesizeFtyp returns a default ftyp box for repaired output.
func SynthesizeFtyp() []byte {
	b := &Builder{}
	pos := b.Begin("ftyp")
	b.PutBytes([]byte("isom")) // major brand
	b.PutUint32(0x200)         // minor version
	b.PutBytes([]byte("isomiso2avc1mp41"))
	b.End(pos)
	return b.Bytes()
}

// SynthesizeMoov builds a minimal movie index: mvhd plus a single video
// track (and an optional audio track) with empty sample tables. A decoder
// fed this index can at least open the file; the subsequent remux derives
// real timing from the bitstream.
func SynthesizeMoov(p MoovParams) []byte {
	p.fill()
	duration := uint32(p.DurationSecs * float64(p.Timescale))

	b := &Builder{}
	moov := b.Begin("moov")

	writeMvhd(b, p.Timescale, duration)
	writeTrak(b, 1, p, false)
	if p.IncludeAudio {
		writeTrak(b, 2, p, true)
	}

	b.End(moov)
	return b.Bytes()
}

func writeMvhd(b *Builder, timescale, duration uint32) {
	pos := b.Begin("mvhd")
	b.PutUint32(0)          // version + flags
	b.PutUint32(0)          // creation time
	b.PutUint32(0)          // modification time
	b.PutUint32(timescale)  // timescale
	b.PutUint32(duration)   // duration
	b.PutUint32(0x00010000) // rate 1.0
	b.PutUint16(0x0100)     // volume 1.0
	b.PutZeros(10)          // reserved
	writeIdentityMatrix(b)
	b.PutZeros(24) // pre-defined
	b.PutUint32(3) // next track ID
	b.End(pos)
}

func writeIdentityMatrix(b *Builder) {
	matrix := []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000}
	for _, v := range matrix {
		b.PutUint32(v)
	}
}

func writeTrak(b *Builder, trackID uint32, p MoovParams, audio bool) {
	trak := b.Begin("trak")

	tkhd := b.Begin("tkhd")
	b.PutUint32(0x00000007) // version 0, flags: enabled|in movie|in preview
	b.PutUint32(0)          // creation time
	b.PutUint32(0)          // modification time
	b.PutUint32(trackID)
	b.PutUint32(0) // reserved
	b.PutUint32(0) // duration (unknown)
	b.PutZeros(8)  // reserved
	b.PutUint16(0) // layer
	b.PutUint16(0) // alternate group
	if audio {
		b.PutUint16(0x0100) // volume 1.0
	} else {
		b.PutUint16(0)
	}
	b.PutUint16(0) // reserved
	writeIdentityMatrix(b)
	if audio {
		b.PutUint32(0)
		b.PutUint32(0)
	} else {
		b.PutUint32(p.Width << 16) // 16.16 fixed point
		b.PutUint32(p.Height << 16)
	}
	b.End(tkhd)

	mdia := b.Begin("mdia")

	mdhd := b.Begin("mdhd")
	b.PutUint32(0)           // version + flags
	b.PutUint32(0)           // creation time
	b.PutUint32(0)           // modification time
	b.PutUint32(p.Timescale) // timescale
	b.PutUint32(0)           // duration (unknown)
	b.PutUint16(0x55C4)      // language: und
	b.PutUint16(0)           // pre-defined
	b.End(mdhd)

	hdlr := b.Begin("hdlr")
	b.PutUint32(0) // version + flags
	b.PutUint32(0) // pre-defined
	if audio {
		b.PutBytes([]byte("soun"))
	} else {
		b.PutBytes([]byte("vide"))
	}
	b.PutZeros(12)                // reserved
	b.PutBytes([]byte("vidmend")) // handler name
	b.PutZeros(1)                 // NUL terminator
	b.End(hdlr)

	minf := b.Begin("minf")
	if audio {
		smhd := b.Begin("smhd")
		b.PutUint32(0) // version + flags
		b.PutUint32(0) // balance + reserved
		b.End(smhd)
	} else {
		vmhd := b.Begin("vmhd")
		b.PutUint32(0x00000001) // version 0, flags 1
		b.PutZeros(8)           // graphics mode + opcolor
		b.End(vmhd)
	}

	dinf := b.Begin("dinf")
	dref := b.Begin("dref")
	b.PutUint32(0) // version + flags
	b.PutUint32(1) // entry count
	url := b.Begin("url ")
	b.PutUint32(0x00000001) // flag: media in same file
	b.End(url)
	b.End(dref)
	b.End(dinf)

	writeStbl(b, p, audio)

	b.End(minf)
	b.End(mdia)
	b.End(trak)
}

// writeStbl emits a sample table with empty sample lists. The stsd entry
// carries the declared dimensions so probing tools report something sane.
func writeStbl(b *Builder, p MoovParams, audio bool) {
	stbl := b.Begin("stbl")

	stsd := b.Begin("stsd")
	b.PutUint32(0) // version + flags
	b.PutUint32(1) // entry count
	if audio {
		entry := b.Begin("mp4a")
		b.PutZeros(6)            // reserved
		b.PutUint16(1)           // data reference index
		b.PutZeros(8)            // version, revision, vendor
		b.PutUint16(2)           // channel count
		b.PutUint16(16)          // sample size
		b.PutUint32(0)           // pre-defined + reserved
		b.PutUint32(44100 << 16) // sample rate 16.16
		b.End(entry)
	} else {
		entry := b.Begin("avc1")
		b.PutZeros(6)  // reserved
		b.PutUint16(1) // data reference index
		b.PutZeros(16) // pre-defined + reserved
		b.PutUint16(uint16(p.Width))
		b.PutUint16(uint16(p.Height))
		b.PutUint32(0x00480000) // horizontal dpi
		b.PutUint32(0x00480000) // vertical dpi
		b.PutUint32(0)          // reserved
		b.PutUint16(1)          // frame count
		b.PutZeros(32)          // compressor name
		b.PutUint16(0x0018)     // depth
		b.PutUint16(0xFFFF)     // pre-defined
		b.End(entry)
	}
	b.End(stsd)

	for _, tag := range []string{"stts", "stsc", "stco"} {
		pos := b.Begin(tag)
		b.PutUint32(0) // version + flags
		b.PutUint32(0) // entry count
		b.End(pos)
	}
	stsz := b.Begin("stsz")
	b.PutUint32(0) // version + flags
	b.PutUint32(0) // uniform sample size
	b.PutUint32(0) // sample count
	b.End(stsz)

	b.End(stbl)
}

// FileSizeField is a reserved box size field in a file being written, for
// boxes too large to assemble in memory (mdat payloads).
type FileSizeField struct {
	pos int64
}

// BeginFileBox writes a placeholder header for tag at the writer's current
// position and returns the field to patch later.
func BeginFileBox(w io.WriteSeeker, tag string) (*FileSizeField, error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	header := make([]byte, 8)
	copy(header[4:8], tag)
	if _, err := w.Write(header); err != nil {
		return nil, err
	}
	return &FileSizeField{pos: pos}, nil
}

// Patch rewrites the reserved size field to cover all bytes written between
// BeginFileBox and the writer's current position, then restores the write
// position to the end.
func (f *FileSizeField) Patch(w io.WriteSeeker) error {
	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	size := end - f.pos
	if size < 8 || size > 0xFFFFFFFF {
		return fmt.Errorf("box size %d out of range", size)
	}

	var field [4]byte
	binary.BigEndian.PutUint32(field[:], uint32(size))
	if _, err := w.Seek(f.pos, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.Write(field[:]); err != nil {
		return err
	}
	_, err = w.Seek(end, io.SeekStart)
	return err
}
