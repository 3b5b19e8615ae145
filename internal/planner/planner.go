// Package planner maps analysis findings to a severity level and an ordered
// list of repair strategies.
package planner

import (
	"sort"

	"github.com/vidmend/vidmend/internal/corruption"
	"github.com/vidmend/vidmend/internal/mp4"
	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/signature"
)

// Level is the classified recovery difficulty.
type Level int

const (
	LevelNone Level = iota
	LevelLight
	LevelStandard
	LevelHeavy
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelLight:
		return "light"
	case LevelStandard:
		return "standard"
	case LevelHeavy:
		return "heavy"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Tag names a detected corruption type. Tags accumulate; they are not
// mutually exclusive.
type Tag string

const (
	TagMissingAtoms       Tag = "missing-atoms"
	TagNoStreamUnits      Tag = "no-stream-units"
	TagSevereCorruption   Tag = "severe-corruption"
	TagModerateCorruption Tag = "moderate-corruption"
	TagMinorCorruption    Tag = "minor-corruption"
	TagUnknownFormat      Tag = "unknown-format"
	TagRegionOverflow     Tag = "region-overflow"
)

// Strategy is a closed enum of repair strategy kinds, dispatched by a
// switch in the repair package rather than by name lookup.
type Strategy int

const (
	StrategyQuickRemux Strategy = iota
	StrategyContainerRebuild
	StrategyStreamExtract
	StrategyGOPRebuild
	StrategyDeepRecovery
	StrategyFallbackChain
)

func (s Strategy) String() string {
	switch s {
	case StrategyQuickRemux:
		return "quick-remux"
	case StrategyContainerRebuild:
		return "container-reconstruction"
	case StrategyStreamExtract:
		return "stream-extraction"
	case StrategyGOPRebuild:
		return "gop-reconstruction"
	case StrategyDeepRecovery:
		return "deep-recovery"
	case StrategyFallbackChain:
		return "fallback-chain"
	default:
		return "unknown"
	}
}

// Priority orders strategies cheapest and least destructive first.
func (s Strategy) Priority() int {
	switch s {
	case StrategyQuickRemux:
		return 1
	case StrategyContainerRebuild:
		return 2
	case StrategyStreamExtract:
		return 3
	case StrategyGOPRebuild:
		return 3
	case StrategyDeepRecovery:
		return 4
	case StrategyFallbackChain:
		return 5
	default:
		return 5
	}
}

// Corruption ratio boundaries for the decision table.
const (
	severeRatio   = 0.50
	moderateRatio = 0.20
)

// Input bundles the per-file analysis the planner decides from.
type Input struct {
	FileSize   uint64
	Signatures *signature.Result
	Walk       *mp4.WalkResult // nil when the container is not ISO-BMFF
	Units      []nal.Unit
	Corruption *corruption.Report
}

// Assessment is the planner's verdict: a severity level, the accumulated
// corruption tags, and the ordered strategies to attempt. Built once per
// file and never mutated; re-analysis produces a fresh Assessment.
type Assessment struct {
	Level      Level
	Tags       []Tag
	Strategies []Strategy
}

// HasTag reports whether the assessment carries the given tag.
func (a *Assessment) HasTag(tag Tag) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Assess evaluates the decision table over the analysis input. Every
// applicable row adds its tag and candidate strategy; the severity level is
// the highest priority floor reached.
func Assess(in Input) *Assessment {
	a := &Assessment{}
	floor := 0
	candidates := make(map[Strategy]struct{})

	addRow := func(tag Tag, s Strategy, rowFloor int) {
		a.Tags = append(a.Tags, tag)
		candidates[s] = struct{}{}
		if rowFloor > floor {
			floor = rowFloor
		}
	}

	containerKnown := in.Signatures != nil && in.Signatures.Container != signature.KindUnknown
	isMP4 := containerKnown && in.Signatures.Container == signature.KindMP4
	h26x := in.Signatures != nil &&
		(in.Signatures.VideoCodec == signature.KindH264 || in.Signatures.VideoCodec == signature.KindH265)

	if in.Signatures == nil || (!containerKnown && in.Signatures.VideoCodec == signature.KindUnknown) {
		// Format undetermined: only the most generic strategies apply.
		a.Tags = append(a.Tags, TagUnknownFormat)
		a.Level = LevelCritical
		a.Strategies = []Strategy{StrategyFallbackChain}
		return a
	}

	if in.Corruption != nil && in.Corruption.Capped {
		// Region accounting overflowed; assume the worst without a ratio.
		addRow(TagRegionOverflow, StrategyDeepRecovery, 4)
	}

	if isMP4 && in.Walk != nil && len(in.Walk.MissingRequired()) > 0 {
		addRow(TagMissingAtoms, StrategyContainerRebuild, 2)
	}

	if h26x && len(in.Units) == 0 {
		addRow(TagNoStreamUnits, StrategyStreamExtract, 3)
	}

	if in.Corruption != nil && !in.Corruption.Capped {
		switch ratio := in.Corruption.Ratio(in.FileSize); {
		case ratio > severeRatio:
			addRow(TagSevereCorruption, StrategyDeepRecovery, 4)
		case ratio > moderateRatio:
			addRow(TagModerateCorruption, StrategyGOPRebuild, 2)
		case ratio > 0:
			addRow(TagMinorCorruption, StrategyQuickRemux, 1)
		}
	}

	a.Level = Level(floor)
	a.Strategies = expand(candidates, floor, isMP4)
	return a
}

// expand turns the candidate set into the ordered attempt list: the base
// candidates, plus the container-specific structural rebuild at priority
// min(base+1, 5) when the container is known, sorted ascending by priority.
// A rebuild the decision table itself demanded keeps its organic priority;
// the floor-derived slot applies only to the purely appended one. A
// level-none file still gets the quick remux so its index is refreshed.
func expand(candidates map[Strategy]struct{}, floor int, isMP4 bool) []Strategy {
	if floor == 0 {
		candidates[StrategyQuickRemux] = struct{}{}
	}

	_, organicRebuild := candidates[StrategyContainerRebuild]
	if isMP4 {
		candidates[StrategyContainerRebuild] = struct{}{}
	}

	// The fallback chain backstops every plan.
	candidates[StrategyFallbackChain] = struct{}{}

	list := make([]Strategy, 0, len(candidates))
	for s := range candidates {
		list = append(list, s)
	}

	containerPriority := floor + 1
	if containerPriority > 5 {
		containerPriority = 5
	}

	// Priorities are scaled so the appended container rebuild sorts after
	// organic candidates of the same priority.
	priority := func(s Strategy) int {
		if s == StrategyContainerRebuild && isMP4 && !organicRebuild {
			return containerPriority*2 + 1
		}
		return s.Priority() * 2
	}

	sort.Slice(list, func(i, j int) bool {
		pi, pj := priority(list[i]), priority(list[j])
		if pi != pj {
			return pi < pj
		}
		return list[i] < list[j]
	})
	return list
}
