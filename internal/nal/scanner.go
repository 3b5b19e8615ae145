// Package nal locates and classifies start-code-delimited stream units in
// H.264/H.265 elementary streams.
package nal

import (
	"fmt"
	"io"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/media"
)

// Codec selects the unit-type interpretation of the NAL header byte.
type Codec int

const (
	CodecH264 Codec = iota
	CodecH265
)

func (c Codec) String() string {
	if c == CodecH265 {
		return "h265"
	}
	return "h264"
}

// H.264 NAL unit types.
const (
	h264TypeNonIDR = 1
	h264TypeIDR    = 5
	h264TypeSEI    = 6
	h264TypeSPS    = 7
	h264TypePPS    = 8
)

// H.265 NAL unit types.
const (
	h265TypeIDRWithRADL = 19
	h265TypeIDRNoLP     = 20
	h265TypeCRA         = 21
	h265TypeVPS         = 32
	h265TypeSPS         = 33
	h265TypePPS         = 34
)

// Unit is one start-code-delimited stream unit. Size spans from this unit's
// start code to the next unit's start code (or EOF for the last unit), so
// it always includes the start code itself.
type Unit struct {
	Offset       uint64
	StartCodeLen int
	Type         uint8
	Size         uint64
}

// IsKeyframe reports whether the unit anchors a decodable group.
func (u Unit) IsKeyframe(codec Codec) bool {
	if codec == CodecH265 {
		return u.Type == h265TypeIDRWithRADL || u.Type == h265TypeIDRNoLP || u.Type == h265TypeCRA
	}
	return u.Type == h264TypeIDR
}

// IsParameterSet reports whether the unit is an SPS/PPS/VPS.
func (u Unit) IsParameterSet(codec Codec) bool {
	if codec == CodecH265 {
		return u.Type == h265TypeVPS || u.Type == h265TypeSPS || u.Type == h265TypePPS
	}
	return u.Type == h264TypeSPS || u.Type == h264TypePPS
}

// IsSPS reports whether the unit is a sequence parameter set.
func (u Unit) IsSPS(codec Codec) bool {
	if codec == CodecH265 {
		return u.Type == h265TypeSPS
	}
	return u.Type == h264TypeSPS
}

// IsPPS reports whether the unit is a picture parameter set.
func (u Unit) IsPPS(codec Codec) bool {
	if codec == CodecH265 {
		return u.Type == h265TypePPS
	}
	return u.Type == h264TypePPS
}

func (u Unit) TypeName(codec Codec) string {
	if codec == CodecH265 {
		switch u.Type {
		case h265TypeVPS:
			return "VPS"
		case h265TypeSPS:
			return "SPS"
		case h265TypePPS:
			return "PPS"
		case h265TypeIDRWithRADL, h265TypeIDRNoLP:
			return "IDR"
		case h265TypeCRA:
			return "CRA"
		}
		return fmt.Sprintf("type-%d", u.Type)
	}
	switch u.Type {
	case h264TypeNonIDR:
		return "slice"
	case h264TypeIDR:
		return "IDR"
	case h264TypeSEI:
		return "SEI"
	case h264TypeSPS:
		return "SPS"
	case h264TypePPS:
		return "PPS"
	}
	return fmt.Sprintf("type-%d", u.Type)
}

// startCodeOverlap is how many trailing bytes carry over between reads so a
// start code straddling a buffer boundary is still found: the longest
// pattern (4 bytes) plus the header byte, minus one.
const startCodeOverlap = 4

// Scan locates every Annex-B start code in the file and classifies the unit
// that follows it. Offsets are strictly increasing; each unit's size is the
// delta to the next unit, with the last unit extending to end of file.
func Scan(f *media.File, codec Codec) ([]Unit, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}

	var units []Unit
	buf := make([]byte, config.UnitScanBufferSize+startCodeOverlap)
	carry := 0
	base := uint64(0) // file offset of buf[0]

	for {
		n, err := io.ReadFull(r, buf[carry:])
		filled := carry + n
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("stream scan of %s failed: %w", f.Path, err)
		}
		if filled == 0 {
			break
		}

		units = appendUnits(units, buf[:filled], base, codec)

		if err != nil { // EOF reached
			break
		}

		// Carry the tail so a split start code is seen again in full.
		copy(buf, buf[filled-startCodeOverlap:filled])
		base += uint64(filled - startCodeOverlap)
		carry = startCodeOverlap
	}

	finalizeSizes(units, f.Size)
	return units, nil
}

// KeyframeCount counts IDR-class units in the scan result.
func KeyframeCount(units []Unit, codec Codec) int {
	count := 0
	for _, u := range units {
		if u.IsKeyframe(codec) {
			count++
		}
	}
	return count
}

// appendUnits scans window for start codes and appends newly found units.
// Units already recorded from the overlap region are skipped by offset.
func appendUnits(units []Unit, window []byte, base uint64, codec Codec) []Unit {
	for i := 0; i+3 < len(window); i++ {
		if window[i] != 0x00 || window[i+1] != 0x00 {
			continue
		}

		start := i
		scLen := 0
		if window[i+2] == 0x01 {
			scLen = 3
		} else if window[i+2] == 0x00 && window[i+3] == 0x01 {
			scLen = 4
		} else {
			continue
		}

		headerIdx := start + scLen
		if headerIdx >= len(window) {
			break // header byte lands in the next read's overlap
		}

		offset := base + uint64(start)
		if len(units) > 0 && offset <= units[len(units)-1].Offset {
			i += scLen - 1
			continue
		}

		units = append(units, Unit{
			Offset:       offset,
			StartCodeLen: scLen,
			Type:         unitType(window[headerIdx], codec),
		})
		i += scLen // skip past the start code, not the header
	}
	return units
}

// unitType extracts the unit-type field from the NAL header byte: the low 5
// bits for H.264, bits 1..6 for H.265.
func unitType(header byte, codec Codec) uint8 {
	if codec == CodecH265 {
		return (header >> 1) & 0x3F
	}
	return header & 0x1F
}

// finalizeSizes computes unit sizes from consecutive offsets. The last unit
// extends to the end of the file.
func finalizeSizes(units []Unit, fileSize uint64) {
	for i := range units {
		if i+1 < len(units) {
			units[i].Size = units[i+1].Offset - units[i].Offset
		} else {
			units[i].Size = fileSize - units[i].Offset
		}
	}
}

