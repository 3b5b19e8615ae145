// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// FileSummary describes the current file before analysis.
type FileSummary struct {
	InputFile  string
	OutputFile string
	Size       uint64
}

// AnalysisSummary contains the findings of the analysis stage.
type AnalysisSummary struct {
	Container      string
	VideoCodec     string
	AudioCodec     string
	ValidBoxes     int
	InvalidBoxes   int
	MissingBoxes   []string
	StreamUnits    int
	Keyframes      int
	CorruptedBytes uint64
	CorruptedRatio float64
	Severity       string
	Findings       []string
}

// PlanSummary lists the ordered strategies the planner selected.
type PlanSummary struct {
	Strategies []string
}

// StrategyAttempt identifies one strategy about to run.
type StrategyAttempt struct {
	Name    string
	Attempt int
	Total   int
}

// StrategyOutcome contains the result of one strategy attempt.
type StrategyOutcome struct {
	Name    string
	Attempt int
	Total   int
	Success bool
	Reason  string
}

// VerificationSummary contains output verification results.
type VerificationSummary struct {
	Passed bool
	Steps  []VerificationStep
}

// VerificationStep represents a single verification check.
type VerificationStep struct {
	Name    string
	Passed  bool
	Details string
}

// RepairOutcome contains the final per-file result.
type RepairOutcome struct {
	InputFile    string
	OutputPath   string
	Strategy     string
	OriginalSize uint64
	RepairedSize uint64
	Duration     float64 // seconds of recovered media, 0 when unknown
	TotalTime    time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	OutputDir  string
}

// FileProgressContext contains current file index within a batch.
type FileProgressContext struct {
	CurrentFile int
	TotalFiles  int
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	RepairedCount int
	SkippedCount  int
	FailedCount   int
	TotalFiles    int
	TotalTime     time.Duration
	FileResults   []FileResult
}

// FileResult contains a per-file batch outcome.
type FileResult struct {
	Filename string
	Status   string // "repaired", "skipped", or "failed"
	Strategy string
}
