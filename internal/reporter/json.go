package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events, one object per line, for machine
// consumers driving the repairer from another process.
type JSONReporter struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{writer: os.Stdout}
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) FileStarted(summary FileSummary) {
	r.write(map[string]interface{}{
		"type":        "file_started",
		"input_file":  summary.InputFile,
		"output_file": summary.OutputFile,
		"size":        summary.Size,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) AnalysisComplete(summary AnalysisSummary) {
	r.write(map[string]interface{}{
		"type":            "analysis_complete",
		"container":       summary.Container,
		"video_codec":     summary.VideoCodec,
		"audio_codec":     summary.AudioCodec,
		"valid_boxes":     summary.ValidBoxes,
		"invalid_boxes":   summary.InvalidBoxes,
		"missing_boxes":   summary.MissingBoxes,
		"stream_units":    summary.StreamUnits,
		"keyframes":       summary.Keyframes,
		"corrupted_bytes": summary.CorruptedBytes,
		"corrupted_ratio": summary.CorruptedRatio,
		"severity":        summary.Severity,
		"findings":        summary.Findings,
		"timestamp":       r.timestamp(),
	})
}

func (r *JSONReporter) PlanReady(plan PlanSummary) {
	r.write(map[string]interface{}{
		"type":       "plan_ready",
		"strategies": plan.Strategies,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) StrategyStarted(attempt StrategyAttempt) {
	r.write(map[string]interface{}{
		"type":      "strategy_started",
		"strategy":  attempt.Name,
		"attempt":   attempt.Attempt,
		"total":     attempt.Total,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) StrategyFinished(outcome StrategyOutcome) {
	r.write(map[string]interface{}{
		"type":      "strategy_finished",
		"strategy":  outcome.Name,
		"attempt":   outcome.Attempt,
		"total":     outcome.Total,
		"success":   outcome.Success,
		"reason":    outcome.Reason,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) VerificationComplete(summary VerificationSummary) {
	steps := make([]map[string]interface{}, len(summary.Steps))
	for i, step := range summary.Steps {
		steps[i] = map[string]interface{}{
			"step":    step.Name,
			"passed":  step.Passed,
			"details": step.Details,
		}
	}

	r.write(map[string]interface{}{
		"type":                "verification_complete",
		"verification_passed": summary.Passed,
		"verification_steps":  steps,
		"timestamp":           r.timestamp(),
	})
}

func (r *JSONReporter) RepairComplete(outcome RepairOutcome) {
	r.write(map[string]interface{}{
		"type":             "repair_complete",
		"input_file":       outcome.InputFile,
		"output_path":      outcome.OutputPath,
		"strategy":         outcome.Strategy,
		"original_size":    outcome.OriginalSize,
		"repaired_size":    outcome.RepairedSize,
		"duration_seconds": outcome.Duration,
		"elapsed_seconds":  int64(outcome.TotalTime.Seconds()),
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]interface{}{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"output_dir":  info.OutputDir,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileProgress(context FileProgressContext) {
	r.write(map[string]interface{}{
		"type":         "file_progress",
		"current_file": context.CurrentFile,
		"total_files":  context.TotalFiles,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	results := make([]map[string]interface{}, len(summary.FileResults))
	for i, result := range summary.FileResults {
		results[i] = map[string]interface{}{
			"filename": result.Filename,
			"status":   result.Status,
			"strategy": result.Strategy,
		}
	}

	r.write(map[string]interface{}{
		"type":           "batch_complete",
		"repaired_count": summary.RepairedCount,
		"skipped_count":  summary.SkippedCount,
		"failed_count":   summary.FailedCount,
		"total_files":    summary.TotalFiles,
		"total_seconds":  int64(summary.TotalTime.Seconds()),
		"file_results":   results,
		"timestamp":      r.timestamp(),
	})
}

func (r *JSONReporter) Verbose(message string) {
	r.write(map[string]interface{}{
		"type":      "verbose",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}
