package reporter

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/vidmend/vidmend/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu       sync.Mutex
	progress *progressbar.ProgressBar
	cyan     *color.Color
	green    *color.Color
	yellow   *color.Color
	red      *color.Color
	magenta  *color.Color
	bold     *color.Color
}

// NewTerminalReporter creates a new terminal reporter.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

// printLabel prints a bold label with fixed width padding followed by a value.
// Width is applied to the plain text before styling to ensure proper alignment.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) FileStarted(summary FileSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("FILE")
	r.printLabel(8, "Input:", summary.InputFile)
	r.printLabel(8, "Output:", summary.OutputFile)
	r.printLabel(8, "Size:", util.FormatBytes(summary.Size))
}

func (r *TerminalReporter) AnalysisComplete(summary AnalysisSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("ANALYSIS")
	const w = 11
	r.printLabel(w, "Container:", orUnknown(summary.Container))
	r.printLabel(w, "Video:", orUnknown(summary.VideoCodec))
	r.printLabel(w, "Audio:", orUnknown(summary.AudioCodec))
	if summary.ValidBoxes+summary.InvalidBoxes > 0 {
		boxes := fmt.Sprintf("%d valid, %d invalid", summary.ValidBoxes, summary.InvalidBoxes)
		if len(summary.MissingBoxes) > 0 {
			boxes += fmt.Sprintf(" (missing %s)", strings.Join(summary.MissingBoxes, ", "))
		}
		r.printLabel(w, "Structure:", boxes)
	}
	if summary.StreamUnits > 0 {
		r.printLabel(w, "Stream:", fmt.Sprintf("%d units, %d keyframes", summary.StreamUnits, summary.Keyframes))
	}
	r.printLabel(w, "Damage:", fmt.Sprintf("%s (%s)",
		util.FormatBytes(summary.CorruptedBytes), util.FormatPercent(summary.CorruptedRatio)))

	severity := summary.Severity
	switch summary.Severity {
	case "none", "light":
		severity = r.green.Sprint(summary.Severity)
	case "standard":
		severity = r.yellow.Sprint(summary.Severity)
	default:
		severity = r.red.Sprint(summary.Severity)
	}
	r.printLabel(w, "Severity:", severity)

	for _, finding := range summary.Findings {
		fmt.Printf("  %s %s\n", r.magenta.Sprint("›"), finding)
	}
}

func (r *TerminalReporter) PlanReady(plan PlanSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("PLAN")
	for i, name := range plan.Strategies {
		fmt.Printf("  %d. %s\n", i+1, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = progressbar.NewOptions(
		len(plan.Strategies),
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "Repairing [",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) StrategyStarted(attempt StrategyAttempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		r.progress.Describe(fmt.Sprintf("%s (%d/%d)", attempt.Name, attempt.Attempt, attempt.Total))
	}
}

func (r *TerminalReporter) StrategyFinished(outcome StrategyOutcome) {
	r.mu.Lock()
	if r.progress != nil {
		_ = r.progress.Add(1)
	}
	r.mu.Unlock()

	if outcome.Success {
		fmt.Printf("  %s %s\n", r.green.Sprint("✓"), outcome.Name)
		return
	}
	reason := outcome.Reason
	if reason == "" {
		reason = "failed"
	}
	fmt.Printf("  %s %s (%s)\n", r.red.Sprint("✗"), outcome.Name, reason)
}

func (r *TerminalReporter) VerificationComplete(summary VerificationSummary) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("VERIFICATION")

	if summary.Passed {
		fmt.Printf("  %s\n", r.green.Add(color.Bold).Sprint("All checks passed"))
	} else {
		fmt.Printf("  %s\n", r.red.Sprint("Verification failed"))
	}

	maxLen := 0
	for _, step := range summary.Steps {
		if len(step.Name) > maxLen {
			maxLen = len(step.Name)
		}
	}

	for _, step := range summary.Steps {
		var status string
		if step.Passed {
			status = r.green.Sprint("✓")
		} else {
			status = r.red.Sprint("✗")
		}
		paddedName := fmt.Sprintf("%-*s", maxLen, step.Name)
		fmt.Printf("  - %s: %s (%s)\n", paddedName, status, step.Details)
	}
}

func (r *TerminalReporter) RepairComplete(outcome RepairOutcome) {
	r.finishProgress()

	fmt.Println()
	_, _ = r.cyan.Println("RESULTS")
	r.printLabel(10, "Strategy:", outcome.Strategy)
	fmt.Printf("  %s %s -> %s\n",
		r.bold.Sprint("Size:"),
		util.FormatBytes(outcome.OriginalSize),
		util.FormatBytes(outcome.RepairedSize))
	if outcome.Duration > 0 {
		r.printLabel(10, "Duration:", util.FormatDuration(outcome.Duration))
	}
	r.printLabel(10, "Time:", util.FormatDuration(outcome.TotalTime.Seconds()))
	fmt.Printf("  %s %s\n", r.bold.Sprint("Saved to"), r.green.Sprint(outcome.OutputPath))
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.finishProgress()

	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	fmt.Println()
	fmt.Printf("%s %s\n", r.green.Add(color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	fmt.Println()
	_, _ = r.cyan.Println("BATCH")
	fmt.Printf("  Processing %d files -> %s\n", info.TotalFiles, r.bold.Sprint(info.OutputDir))
	for i, name := range info.FileList {
		fmt.Printf("  %d. %s\n", i+1, name)
	}
}

func (r *TerminalReporter) FileProgress(context FileProgressContext) {
	fmt.Printf("\nFile %s of %d\n",
		r.bold.Sprint(context.CurrentFile),
		context.TotalFiles)
}

func (r *TerminalReporter) BatchComplete(summary BatchSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("BATCH SUMMARY")
	fmt.Printf("  %s\n", r.bold.Sprintf("%d of %d repaired", summary.RepairedCount, summary.TotalFiles))
	fmt.Printf("  Skipped: %d, failed: %s\n",
		summary.SkippedCount,
		r.red.Sprint(summary.FailedCount))
	fmt.Printf("  Time: %s\n", util.FormatDuration(summary.TotalTime.Seconds()))

	for _, result := range summary.FileResults {
		line := fmt.Sprintf("  - %s (%s", result.Filename, result.Status)
		if result.Strategy != "" {
			line += ", " + result.Strategy
		}
		fmt.Println(line + ")")
	}
}

func (r *TerminalReporter) Verbose(message string) {
	fmt.Printf("  %s\n", color.New(color.Faint).Sprint(message))
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
