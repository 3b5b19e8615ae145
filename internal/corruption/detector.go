package corruption

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/media"
)

// Report is the outcome of a corruption scan.
type Report struct {
	// Regions is the merged, sorted, disjoint corrupted region set.
	Regions []Region
	// CorruptedBytes is the total size of all merged regions.
	CorruptedBytes uint64
	// Capped is set when the raw finding count hit MaxTrackedRegions; the
	// scan was abandoned and the file should be treated as critical.
	Capped bool
}

// Ratio returns corrupted bytes as a fraction of the file size.
func (r *Report) Ratio(fileSize uint64) float64 {
	if fileSize == 0 {
		return 0
	}
	return float64(r.CorruptedBytes) / float64(fileSize)
}

// ValidRanges returns the complement of the corrupted regions, filtered to
// the minimum usable size.
func (r *Report) ValidRanges(fileSize uint64) []Range {
	return Complement(r.Regions, fileSize, config.MinValidRegionSize)
}

// zeroRunTracker carries zero-run state across chunk boundaries.
type zeroRunTracker struct {
	runStart uint64 // offset of the first zero in the current run
	runLen   uint64
}

// feed advances the tracker over one byte and returns a closed region when
// a run at or above the threshold ends.
func (z *zeroRunTracker) feed(offset uint64, b byte) (Region, bool) {
	if b == 0 {
		if z.runLen == 0 {
			z.runStart = offset
		}
		z.runLen++
		return Region{}, false
	}

	if z.runLen >= config.ZeroRunThreshold {
		region := Region{Start: z.runStart, End: offset, Kind: KindZeroRun}
		z.runLen = 0
		return region, true
	}
	z.runLen = 0
	return Region{}, false
}

// flush closes a run still open at end of file.
func (z *zeroRunTracker) flush(fileSize uint64) (Region, bool) {
	if z.runLen >= config.ZeroRunThreshold {
		return Region{Start: z.runStart, End: fileSize, Kind: KindZeroRun}, true
	}
	return Region{}, false
}

// Detect makes a single sequential pass over the file, tracking long zero
// runs and, for MP4 containers, implausible box size fields. Raw findings
// are merged into a disjoint sorted region set.
//
// The raw finding count is capped; a pathological input that exceeds the cap
// yields an empty region set with Capped set, which the planner maps
// straight to critical severity.
func Detect(f *media.File, isMP4 bool) (*Report, error) {
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}

	var raw []Region
	var zeros zeroRunTracker
	buf := make([]byte, config.DetectorChunkSize)
	base := uint64(0)
	capped := false

scan:
	for {
		n, err := io.ReadFull(r, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("corruption scan of %s failed: %w", f.Path, err)
		}
		if n == 0 {
			break
		}
		chunk := buf[:n]

		for i, b := range chunk {
			if region, ok := zeros.feed(base+uint64(i), b); ok {
				raw = append(raw, region)
			}
		}

		if isMP4 {
			raw = appendSizeFieldFindings(raw, chunk, base)
		}

		if len(raw) > config.MaxTrackedRegions {
			capped = true
			break scan
		}

		base += uint64(n)
		if err != nil { // EOF reached
			break
		}
	}

	if region, ok := zeros.flush(f.Size); ok && !capped {
		raw = append(raw, region)
	}

	if capped {
		return &Report{Capped: true}, nil
	}

	merged := Merge(raw)
	return &Report{
		Regions:        merged,
		CorruptedBytes: TotalSize(merged),
	}, nil
}

// appendSizeFieldFindings flags every 4-byte-aligned big-endian window whose
// value is a non-zero length smaller than any legal box header. Chunks are
// 4-byte aligned in the file, so chunk-relative alignment matches file
// alignment.
func appendSizeFieldFindings(raw []Region, chunk []byte, base uint64) []Region {
	for i := 0; i+4 <= len(chunk); i += 4 {
		v := binary.BigEndian.Uint32(chunk[i : i+4])
		if v > 0 && v < config.MinBlockSize {
			offset := base + uint64(i)
			raw = append(raw, Region{Start: offset, End: offset + 8, Kind: KindInvalidSize})
		}
	}
	return raw
}
