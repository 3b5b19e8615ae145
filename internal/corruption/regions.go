// Package corruption scans files for damage signatures and tracks the
// resulting corrupted and valid byte ranges.
package corruption

import "sort"

// Kind classifies what flagged a corrupted region.
type Kind int

const (
	// KindZeroRun marks a long run of zero bytes.
	KindZeroRun Kind = iota
	// KindInvalidSize marks an implausible container size field.
	KindInvalidSize
	// KindMixed marks a region merged from findings of different kinds.
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindZeroRun:
		return "zero-run"
	case KindInvalidSize:
		return "invalid-size-field"
	case KindMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// Region is a corrupted byte range [Start, End).
type Region struct {
	Start uint64
	End   uint64
	Kind  Kind
}

// Size returns the region's byte length.
func (r Region) Size() uint64 {
	return r.End - r.Start
}

// Range is a plain byte range [Start, End), used for valid regions.
type Range struct {
	Start uint64
	End   uint64
}

// Size returns the range's byte length.
func (r Range) Size() uint64 {
	return r.End - r.Start
}

// Merge sorts raw findings by start and folds overlapping or adjacent
// regions together. A merged region covering findings of different kinds
// takes the mixed kind. The result is sorted and pairwise disjoint, and its
// union equals the union of the input.
func Merge(raw []Region) []Region {
	if len(raw) == 0 {
		return nil
	}

	sorted := make([]Region, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []Region{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			if r.Kind != last.Kind {
				last.Kind = KindMixed
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// TotalSize sums the byte length of the given regions.
func TotalSize(regions []Region) uint64 {
	var total uint64
	for _, r := range regions {
		total += r.Size()
	}
	return total
}

// Complement derives the valid ranges of a file as the gaps between merged
// corrupted regions within [0, fileSize). Resulting ranges smaller than
// minSize are dropped as fragment noise; pass 0 to keep everything.
func Complement(merged []Region, fileSize, minSize uint64) []Range {
	var valid []Range
	cursor := uint64(0)

	emit := func(start, end uint64) {
		if end > start && end-start >= minSize {
			valid = append(valid, Range{Start: start, End: end})
		}
	}

	for _, r := range merged {
		if r.Start > fileSize {
			break
		}
		emit(cursor, r.Start)
		if r.End > cursor {
			cursor = r.End
		}
	}
	if cursor < fileSize {
		emit(cursor, fileSize)
	}
	return valid
}
