package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidmend/vidmend/internal/corruption"
	"github.com/vidmend/vidmend/internal/mp4"
	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/signature"
)

func mp4Signatures() *signature.Result {
	return &signature.Result{
		Container:  signature.KindMP4,
		VideoCodec: signature.KindH264,
		AudioCodec: signature.KindAAC,
	}
}

func fullWalk() *mp4.WalkResult {
	return &mp4.WalkResult{
		Blocks: []mp4.Block{
			{Type: "ftyp", Offset: 0, Size: 24, Valid: true},
			{Type: "moov", Offset: 24, Size: 500, Valid: true},
			{Type: "mdat", Offset: 524, Size: 10000, Valid: true},
		},
		ValidCount: 3,
	}
}

func someUnits() []nal.Unit {
	return []nal.Unit{
		{Offset: 532, StartCodeLen: 4, Type: 7, Size: 30},
		{Offset: 562, StartCodeLen: 4, Type: 8, Size: 10},
		{Offset: 572, StartCodeLen: 4, Type: 5, Size: 5000},
	}
}

func report(corrupted, _ uint64) *corruption.Report {
	if corrupted == 0 {
		return &corruption.Report{}
	}
	return &corruption.Report{
		Regions:        []corruption.Region{{Start: 0, End: corrupted, Kind: corruption.KindZeroRun}},
		CorruptedBytes: corrupted,
	}
}

// assertPriorityOrder checks monotonic priority over the organic candidates.
// The container rebuild is excluded: its priority is re-derived from the
// severity floor when it is appended to the plan.
func assertPriorityOrder(t *testing.T, a *Assessment) {
	t.Helper()
	prev := 0
	for _, s := range a.Strategies {
		if s == StrategyContainerRebuild {
			continue
		}
		assert.LessOrEqual(t, prev, s.Priority(), "strategies out of priority order: %v", a.Strategies)
		prev = s.Priority()
	}
}

func TestAssessCleanFile(t *testing.T) {
	a := Assess(Input{
		FileSize:   10524,
		Signatures: mp4Signatures(),
		Walk:       fullWalk(),
		Units:      someUnits(),
		Corruption: report(0, 10524),
	})

	assert.Equal(t, LevelNone, a.Level)
	assert.Empty(t, a.Tags)
	require.NotEmpty(t, a.Strategies)
	assert.Equal(t, StrategyQuickRemux, a.Strategies[0])
}

func TestAssessMissingMoov(t *testing.T) {
	walk := &mp4.WalkResult{
		Blocks: []mp4.Block{
			{Type: "ftyp", Offset: 0, Size: 24, Valid: true},
			{Type: "mdat", Offset: 24, Size: 10000, Valid: true},
		},
		ValidCount: 2,
	}

	a := Assess(Input{
		FileSize:   10024,
		Signatures: mp4Signatures(),
		Walk:       walk,
		Units:      someUnits(),
		Corruption: report(0, 10024),
	})

	assert.Equal(t, LevelStandard, a.Level)
	assert.True(t, a.HasTag(TagMissingAtoms))
	assert.Equal(t, StrategyContainerRebuild, a.Strategies[0])
}

func TestAssessNoStreamUnits(t *testing.T) {
	a := Assess(Input{
		FileSize:   10524,
		Signatures: mp4Signatures(),
		Walk:       fullWalk(),
		Units:      nil,
		Corruption: report(0, 10524),
	})

	assert.Equal(t, LevelHeavy, a.Level)
	assert.True(t, a.HasTag(TagNoStreamUnits))
	assert.Equal(t, StrategyStreamExtract, a.Strategies[0])
}

func TestAssessMissingAtomsBeforeStreamExtraction(t *testing.T) {
	// Both the missing-atoms and no-stream-units rows fire; the cheaper
	// container rebuild the table itself demanded keeps its own priority and
	// runs before stream extraction.
	walk := &mp4.WalkResult{
		Blocks: []mp4.Block{
			{Type: "ftyp", Offset: 0, Size: 24, Valid: true},
			{Type: "mdat", Offset: 24, Size: 10000, Valid: true},
		},
		ValidCount: 2,
	}

	a := Assess(Input{
		FileSize:   10024,
		Signatures: mp4Signatures(),
		Walk:       walk,
		Units:      nil,
		Corruption: report(0, 10024),
	})

	assert.Equal(t, LevelHeavy, a.Level)
	assert.True(t, a.HasTag(TagMissingAtoms))
	assert.True(t, a.HasTag(TagNoStreamUnits))
	assert.Equal(t, []Strategy{
		StrategyContainerRebuild,
		StrategyStreamExtract,
		StrategyFallbackChain,
	}, a.Strategies)
}

func TestAssessCorruptionRatios(t *testing.T) {
	tests := []struct {
		name      string
		corrupted uint64
		wantLevel Level
		wantTag   Tag
		wantFirst Strategy
	}{
		{"minor", 4096, LevelLight, TagMinorCorruption, StrategyQuickRemux},
		{"moderate", 300000, LevelStandard, TagModerateCorruption, StrategyGOPRebuild},
		{"severe", 600000, LevelCritical, TagSevereCorruption, StrategyDeepRecovery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(Input{
				FileSize:   1000000,
				Signatures: mp4Signatures(),
				Walk:       fullWalk(),
				Units:      someUnits(),
				Corruption: report(tt.corrupted, 1000000),
			})

			assert.Equal(t, tt.wantLevel, a.Level)
			assert.True(t, a.HasTag(tt.wantTag), "tags: %v", a.Tags)
			require.NotEmpty(t, a.Strategies)
			assert.Equal(t, tt.wantFirst, a.Strategies[0])
			assertPriorityOrder(t, a)
		})
	}
}

func TestAssessUnknownFormat(t *testing.T) {
	a := Assess(Input{
		FileSize:   5000,
		Signatures: &signature.Result{},
	})

	assert.Equal(t, LevelCritical, a.Level)
	assert.True(t, a.HasTag(TagUnknownFormat))
	assert.Equal(t, []Strategy{StrategyFallbackChain}, a.Strategies)
}

func TestAssessCappedDetectorForcesCritical(t *testing.T) {
	a := Assess(Input{
		FileSize:   1 << 20,
		Signatures: mp4Signatures(),
		Walk:       fullWalk(),
		Units:      someUnits(),
		Corruption: &corruption.Report{Capped: true},
	})

	assert.Equal(t, LevelCritical, a.Level)
	assert.True(t, a.HasTag(TagRegionOverflow))
}

func TestAssessAccumulatesTags(t *testing.T) {
	walk := &mp4.WalkResult{
		Blocks:     []mp4.Block{{Type: "ftyp", Offset: 0, Size: 24, Valid: true}},
		ValidCount: 1,
	}

	a := Assess(Input{
		FileSize:   1000000,
		Signatures: mp4Signatures(),
		Walk:       walk,
		Units:      nil,
		Corruption: report(300000, 1000000),
	})

	assert.True(t, a.HasTag(TagMissingAtoms))
	assert.True(t, a.HasTag(TagNoStreamUnits))
	assert.True(t, a.HasTag(TagModerateCorruption))
	assert.Equal(t, LevelHeavy, a.Level)
	assertPriorityOrder(t, a)
}

func TestPlanAlwaysEndsWithFallbackChain(t *testing.T) {
	a := Assess(Input{
		FileSize:   10524,
		Signatures: mp4Signatures(),
		Walk:       fullWalk(),
		Units:      someUnits(),
		Corruption: report(4096, 10524),
	})

	require.NotEmpty(t, a.Strategies)
	assert.Equal(t, StrategyFallbackChain, a.Strategies[len(a.Strategies)-1])
}
