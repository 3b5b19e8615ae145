// Package processing drives batch repair over a list of input files.
package processing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/errors"
	"github.com/vidmend/vidmend/internal/logging"
	"github.com/vidmend/vidmend/internal/repair"
	"github.com/vidmend/vidmend/internal/reporter"
	"github.com/vidmend/vidmend/internal/util"
)

// Status classifies a per-file batch outcome.
type Status int

const (
	StatusRepaired Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRepaired:
		return "repaired"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	InputPath  string
	OutputPath string
	Status     Status
	Outcome    *repair.Outcome // nil unless Status is StatusRepaired
	Err        error           // nil unless Status is StatusFailed
}

// ProcessFiles repairs every file in the list. Per-file failures are
// collected in the results, never returned: one ruined file must not stop
// the batch. Files whose output already exists are skipped before any
// analysis.
func ProcessFiles(
	ctx context.Context,
	cfg *config.Config,
	filesToProcess []string,
	targetFilenameOverride string,
	rep reporter.Reporter,
	fileLog *logging.FileLogger,
) []FileResult {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	batchStart := time.Now()

	if len(filesToProcess) > 1 {
		var fileNames []string
		for _, f := range filesToProcess {
			fileNames = append(fileNames, util.GetFilename(f))
		}
		rep.BatchStarted(reporter.BatchStartInfo{
			TotalFiles: len(filesToProcess),
			FileList:   fileNames,
			OutputDir:  cfg.OutputDir,
		})
	}

	sem := NewSemaphore(cfg.MaxConcurrentFiles)
	results := make([]FileResult, len(filesToProcess))
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	started := 0

	for fileIdx, inputPath := range filesToProcess {
		if ctx.Err() != nil {
			rep.Warning(fmt.Sprintf("Batch cancelled: %v", ctx.Err()))
			for i := fileIdx; i < len(filesToProcess); i++ {
				results[i] = FileResult{
					InputPath: filesToProcess[i],
					Status:    StatusFailed,
					Err:       errors.NewCancelledError(),
				}
			}
			break
		}

		override := ""
		if len(filesToProcess) == 1 && targetFilenameOverride != "" {
			override = targetFilenameOverride
		}
		outputPath := util.ResolveOutputPath(inputPath, cfg.OutputDir, override)

		// Idempotence: a finished output means this file is done.
		if util.FileExists(outputPath) {
			rep.Warning(fmt.Sprintf("Output file already exists: %s. Skipping repair.", outputPath))
			fileLog.Info("skipping %s, output exists", inputPath)
			results[fileIdx] = FileResult{InputPath: inputPath, OutputPath: outputPath, Status: StatusSkipped}
			continue
		}

		if err := sem.Acquire(ctx); err != nil {
			results[fileIdx] = FileResult{
				InputPath:  inputPath,
				OutputPath: outputPath,
				Status:     StatusFailed,
				Err:        errors.NewCancelledError(),
			}
			continue
		}

		wg.Add(1)
		go func(idx int, inputPath, outputPath string) {
			defer wg.Done()
			defer sem.Release()

			if len(filesToProcess) > 1 {
				progressMu.Lock()
				started++
				rep.FileProgress(reporter.FileProgressContext{
					CurrentFile: started,
					TotalFiles:  len(filesToProcess),
				})
				progressMu.Unlock()
			}

			results[idx] = repairOne(ctx, cfg, inputPath, outputPath, rep, fileLog)
		}(fileIdx, inputPath, outputPath)
	}

	wg.Wait()

	if len(filesToProcess) > 1 {
		rep.BatchComplete(summarize(results, time.Since(batchStart)))
	}
	return results
}

// repairOne runs a full repair session for one file and maps any error to a
// failed result.
func repairOne(
	ctx context.Context,
	cfg *config.Config,
	inputPath, outputPath string,
	rep reporter.Reporter,
	fileLog *logging.FileLogger,
) FileResult {
	session := repair.NewSession(cfg, rep, fileLog)
	outcome, err := session.Repair(ctx, inputPath, outputPath)
	if err != nil {
		rep.Error(reporter.ReporterError{
			Title:      "Repair Failed",
			Message:    err.Error(),
			Context:    fmt.Sprintf("File: %s", inputPath),
			Suggestion: suggestionFor(err),
		})
		fileLog.Error("repair of %s failed: %v", inputPath, err)
		return FileResult{InputPath: inputPath, OutputPath: outputPath, Status: StatusFailed, Err: err}
	}

	return FileResult{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Status:     StatusRepaired,
		Outcome:    outcome,
	}
}

func suggestionFor(err error) string {
	switch {
	case errors.IsExhausted(err):
		return "The file may be damaged beyond automated recovery"
	case errors.IsKind(err, errors.KindInsufficientSpace):
		return "Free up disk space or point --temp-dir at a larger volume"
	case errors.IsKind(err, errors.KindCommand):
		return "Check that ffmpeg and ffprobe are installed and on PATH"
	default:
		return ""
	}
}

func summarize(results []FileResult, elapsed time.Duration) reporter.BatchSummary {
	summary := reporter.BatchSummary{
		TotalFiles: len(results),
		TotalTime:  elapsed,
	}
	for _, r := range results {
		entry := reporter.FileResult{
			Filename: util.GetFilename(r.InputPath),
			Status:   r.Status.String(),
		}
		switch r.Status {
		case StatusRepaired:
			summary.RepairedCount++
			if r.Outcome != nil {
				entry.Strategy = r.Outcome.Strategy.String()
			}
		case StatusSkipped:
			summary.SkippedCount++
		case StatusFailed:
			summary.FailedCount++
		}
		summary.FileResults = append(summary.FileResults, entry)
	}
	return summary
}
