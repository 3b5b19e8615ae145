// Package vidmend provides a Go library for analyzing and repairing
// corrupted video files.
//
// vidmend classifies the damage in a file (truncation, missing index,
// zeroed regions, broken box structure), plans an ordered list of repair
// strategies, and hands each candidate to ffmpeg/ffprobe for verification.
// The first verified candidate is promoted to the output path.
//
// Basic usage:
//
//	r, err := vidmend.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := r.Repair(ctx, "damaged.mp4", "output/", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Repaired with %s: %s\n", result.Strategy, result.OutputFile)
package vidmend

import (
	"context"
	"fmt"
	"time"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/discovery"
	"github.com/vidmend/vidmend/internal/media"
	"github.com/vidmend/vidmend/internal/nal"
	"github.com/vidmend/vidmend/internal/processing"
	"github.com/vidmend/vidmend/internal/repair"
	"github.com/vidmend/vidmend/internal/reporter"
	"github.com/vidmend/vidmend/internal/util"
)

// Reporter re-exports the progress reporting interface so callers can feed
// repair events into their own UI.
type Reporter = reporter.Reporter

// Repairer is the main entry point for file repair.
type Repairer struct {
	config *config.Config
}

// Result contains the result of a single file repair.
type Result struct {
	OutputFile   string
	Status       string // "repaired", "skipped" or "failed"
	Strategy     string
	Severity     string
	OriginalSize uint64
	RepairedSize uint64
	DurationSecs float64
}

// BatchResult contains the result of a batch repair.
type BatchResult struct {
	Results       []Result
	RepairedCount int
	SkippedCount  int
	FailedCount   int
	TotalFiles    int
}

// AnalysisReport is the analysis-only view of a file, with no repair run.
type AnalysisReport struct {
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
	Plan           []string
}

// Option configures the repairer.
type Option func(*config.Config)

// New creates a new Repairer with the given options.
func New(opts ...Option) (*Repairer, error) {
	cfg := config.NewConfig(".", ".", ".")

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Repairer{config: cfg}, nil
}

// WithFFmpegPath overrides the ffmpeg binary location.
func WithFFmpegPath(path string) Option {
	return func(c *config.Config) {
		c.FFmpegPath = path
	}
}

// WithFFprobePath overrides the ffprobe binary location.
func WithFFprobePath(path string) Option {
	return func(c *config.Config) {
		c.FFprobePath = path
	}
}

// WithTempDir places scratch files somewhere other than the output
// directory.
func WithTempDir(dir string) Option {
	return func(c *config.Config) {
		c.TempDir = dir
	}
}

// WithCommandTimeout bounds each external tool invocation.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *config.Config) {
		c.CommandTimeout = d
	}
}

// WithMaxConcurrentFiles bounds how many files repair at once in a batch.
func WithMaxConcurrentFiles(n int) Option {
	return func(c *config.Config) {
		c.MaxConcurrentFiles = n
	}
}

// WithSkipVerify trusts executor output without probing it. Debug aid only.
func WithSkipVerify() Option {
	return func(c *config.Config) {
		c.SkipVerify = true
	}
}

// Repair repairs a single video file into outputDir. A nil reporter
// discards progress events.
func (r *Repairer) Repair(ctx context.Context, input, outputDir string, rep Reporter) (*Result, error) {
	cfg := *r.config
	cfg.OutputDir = outputDir

	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := processing.ProcessFiles(ctx, &cfg, []string{input}, "", rep, nil)
	if len(results) == 0 {
		return nil, fmt.Errorf("no files were processed")
	}

	res := toResult(results[0])
	if results[0].Status == processing.StatusFailed {
		return &res, results[0].Err
	}
	return &res, nil
}

// RepairBatch repairs multiple video files into outputDir. Per-file
// failures end up in the batch result, not in the returned error.
func (r *Repairer) RepairBatch(ctx context.Context, inputs []string, outputDir string, rep Reporter) (*BatchResult, error) {
	cfg := *r.config
	cfg.OutputDir = outputDir

	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := processing.ProcessFiles(ctx, &cfg, inputs, "", rep, nil)

	batch := &BatchResult{TotalFiles: len(inputs)}
	for _, fr := range results {
		batch.Results = append(batch.Results, toResult(fr))
		switch fr.Status {
		case processing.StatusRepaired:
			batch.RepairedCount++
		case processing.StatusSkipped:
			batch.SkippedCount++
		case processing.StatusFailed:
			batch.FailedCount++
		}
	}
	return batch, nil
}

// Analyze inspects a file and reports its damage classification and the
// repair plan that would run, without touching anything.
func (r *Repairer) Analyze(inputPath string) (*AnalysisReport, error) {
	f, err := media.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := repair.Analyze(f)
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{
		Container:      string(a.Signatures.Container),
		VideoCodec:     string(a.Signatures.VideoCodec),
		AudioCodec:     string(a.Signatures.AudioCodec),
		CorruptedBytes: a.Corruption.CorruptedBytes,
		CorruptedRatio: a.Corruption.Ratio(f.Size),
		Severity:       a.Assessment.Level.String(),
	}
	if a.Walk != nil {
		report.ValidBoxes = a.Walk.ValidCount
		report.InvalidBoxes = a.Walk.InvalidCount
		report.MissingBoxes = a.Walk.MissingRequired()
	}
	if len(a.Units) > 0 {
		report.StreamUnits = len(a.Units)
		report.Keyframes = nal.KeyframeCount(a.Units, a.Codec)
	}
	for _, tag := range a.Assessment.Tags {
		report.Findings = append(report.Findings, string(tag))
	}
	for _, s := range a.Assessment.Strategies {
		report.Plan = append(report.Plan, s.String())
	}
	return report, nil
}

// FindVideos finds video files in a directory.
func FindVideos(dir string) ([]string, error) {
	return discovery.FindVideoFiles(dir)
}

func toResult(fr processing.FileResult) Result {
	res := Result{
		OutputFile: fr.OutputPath,
		Status:     fr.Status.String(),
	}
	if fr.Outcome != nil {
		res.Strategy = fr.Outcome.Strategy.String()
		res.Severity = fr.Outcome.Assessment.Level.String()
		res.OriginalSize = fr.Outcome.OriginalSize
		res.RepairedSize = fr.Outcome.RepairedSize
		res.DurationSecs = fr.Outcome.Duration
	}
	return res
}
