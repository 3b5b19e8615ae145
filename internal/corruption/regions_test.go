package corruption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSortsAndFoldsOverlaps(t *testing.T) {
	raw := []Region{
		{Start: 500, End: 600, Kind: KindInvalidSize},
		{Start: 100, End: 200, Kind: KindZeroRun},
		{Start: 150, End: 300, Kind: KindZeroRun},
		{Start: 300, End: 350, Kind: KindInvalidSize}, // adjacent: start == prev end
	}

	merged := Merge(raw)
	require.Len(t, merged, 2)

	assert.Equal(t, Region{Start: 100, End: 350, Kind: KindMixed}, merged[0])
	assert.Equal(t, Region{Start: 500, End: 600, Kind: KindInvalidSize}, merged[1])
}

func TestMergeKeepsKindWhenUniform(t *testing.T) {
	raw := []Region{
		{Start: 0, End: 100, Kind: KindZeroRun},
		{Start: 50, End: 150, Kind: KindZeroRun},
	}
	merged := Merge(raw)
	require.Len(t, merged, 1)
	assert.Equal(t, KindZeroRun, merged[0].Kind)
}

func TestMergeInvariants(t *testing.T) {
	raw := []Region{
		{Start: 10, End: 20, Kind: KindZeroRun},
		{Start: 5, End: 12, Kind: KindInvalidSize},
		{Start: 40, End: 45, Kind: KindZeroRun},
		{Start: 44, End: 60, Kind: KindZeroRun},
		{Start: 100, End: 101, Kind: KindInvalidSize},
	}

	merged := Merge(raw)

	// Sorted and pairwise disjoint.
	for i := 1; i < len(merged); i++ {
		assert.Greater(t, merged[i].Start, merged[i-1].End)
	}

	// Union preserved: every raw byte is covered by exactly one merged region.
	covered := func(regions []Region, b uint64) bool {
		for _, r := range regions {
			if b >= r.Start && b < r.End {
				return true
			}
		}
		return false
	}
	for b := uint64(0); b < 110; b++ {
		assert.Equal(t, covered(raw, b), covered(merged, b), "byte %d", b)
	}
}

func TestMergeEmpty(t *testing.T) {
	assert.Nil(t, Merge(nil))
}

func TestComplementCoversFileExactly(t *testing.T) {
	merged := []Region{
		{Start: 100, End: 200, Kind: KindZeroRun},
		{Start: 500, End: 700, Kind: KindMixed},
	}
	fileSize := uint64(1000)

	valid := Complement(merged, fileSize, 0)
	require.Len(t, valid, 3)
	assert.Equal(t, Range{Start: 0, End: 100}, valid[0])
	assert.Equal(t, Range{Start: 200, End: 500}, valid[1])
	assert.Equal(t, Range{Start: 700, End: 1000}, valid[2])

	// Corrupted plus valid covers [0, fileSize) exactly once.
	var total uint64
	total += TotalSize(merged)
	for _, v := range valid {
		total += v.Size()
	}
	assert.Equal(t, fileSize, total)
}

func TestComplementFiltersFragments(t *testing.T) {
	merged := []Region{
		{Start: 100, End: 200, Kind: KindZeroRun},
		{Start: 300, End: 400, Kind: KindZeroRun},
	}
	// The 100-byte gap between regions is below the 1 KiB threshold.
	valid := Complement(merged, 10000, 1024)
	require.Len(t, valid, 1)
	assert.Equal(t, Range{Start: 400, End: 10000}, valid[0])
}

func TestComplementNoCorruption(t *testing.T) {
	valid := Complement(nil, 5000, 1024)
	require.Len(t, valid, 1)
	assert.Equal(t, Range{Start: 0, End: 5000}, valid[0])
}

func TestComplementFullyCorrupted(t *testing.T) {
	merged := []Region{{Start: 0, End: 5000, Kind: KindMixed}}
	assert.Empty(t, Complement(merged, 5000, 0))
}
