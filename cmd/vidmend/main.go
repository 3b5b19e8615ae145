// Package main provides the CLI entry point for vidmend.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/discovery"
	"github.com/vidmend/vidmend/internal/logging"
	"github.com/vidmend/vidmend/internal/media"
	"github.com/vidmend/vidmend/internal/processing"
	"github.com/vidmend/vidmend/internal/repair"
	"github.com/vidmend/vidmend/internal/reporter"
	"github.com/vidmend/vidmend/internal/util"
)

const (
	appName    = "vidmend"
	appVersion = "0.1.0"
)

// repairArgs holds the parsed arguments for the repair command.
type repairArgs struct {
	inputPath   string
	outputPath  string
	logDir      string
	tempDir     string
	configFile  string
	ffmpegPath  string
	ffprobePath string
	concurrency int
	timeout     time.Duration
	skipVerify  bool
	jsonOutput  bool
	verbose     bool
	noLog       bool
}

func main() {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Analyze and repair corrupted video files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRepairCmd(), newAnalyzeCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRepairCmd() *cobra.Command {
	var ra repairArgs

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Repair a corrupted video file or directory of files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ra.inputPath == "" {
				return fmt.Errorf("input path is required (-i/--input)")
			}
			if ra.outputPath == "" {
				return fmt.Errorf("output path is required (-o/--output)")
			}
			return executeRepair(ra)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&ra.inputPath, "input", "i", "", "Input video file or directory")
	fs.StringVarP(&ra.outputPath, "output", "o", "", "Output directory (or filename for a single input file)")
	fs.StringVarP(&ra.logDir, "log-dir", "l", "", "Log directory (defaults to OUTPUT/logs)")
	fs.StringVar(&ra.tempDir, "temp-dir", "", "Scratch directory for repair candidates (defaults to output directory)")
	fs.StringVar(&ra.configFile, "config", "", "YAML config file")
	fs.StringVar(&ra.ffmpegPath, "ffmpeg", "", "Path to the ffmpeg binary")
	fs.StringVar(&ra.ffprobePath, "ffprobe", "", "Path to the ffprobe binary")
	fs.IntVar(&ra.concurrency, "concurrency", 0, "Files to repair in parallel (1-4)")
	fs.DurationVar(&ra.timeout, "timeout", 0, "Timeout per external tool invocation")
	fs.BoolVar(&ra.skipVerify, "skip-verify", false, "Skip output verification (debug aid)")
	fs.BoolVar(&ra.jsonOutput, "json", false, "Emit newline-delimited JSON events instead of terminal output")
	fs.BoolVarP(&ra.verbose, "verbose", "v", false, "Enable verbose output")
	fs.BoolVar(&ra.noLog, "no-log", false, "Disable log file creation")

	return cmd
}

func executeRepair(ra repairArgs) error {
	inputPath, err := filepath.Abs(ra.inputPath)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}

	inputInfo, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("input path does not exist: %s", inputPath)
	}

	outInfo, err := util.ResolveOutputArg(inputPath, ra.outputPath)
	if err != nil {
		return fmt.Errorf("invalid output path %s: %w", ra.outputPath, err)
	}
	outputDir, err := filepath.Abs(outInfo.OutputDir)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	targetFilename := outInfo.FilenameOverride

	if err := util.EnsureDirectory(outputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	logDir := ra.logDir
	if logDir == "" {
		logDir = filepath.Join(outputDir, "logs")
	}

	fileLog, err := logging.Setup(logDir, ra.verbose, ra.noLog)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if fileLog != nil {
		defer func() { _ = fileLog.Close() }()
	}

	si := util.GetSystemInfo()
	fileLog.Info("host: %s (%s/%s, %d CPUs)", si.Hostname, si.OS, si.Arch, si.NumCPU)

	// Discover files to process
	var filesToProcess []string
	if inputInfo.IsDir() {
		found, err := discovery.FindVideoFilesWithLogging(inputPath, fileLog)
		if err != nil {
			return err
		}
		filesToProcess = found.Files
		if found.SkippedCount > 0 {
			fileLog.Debug("skipped %d non-video file(s)", found.SkippedCount)
		}
	} else {
		filesToProcess = []string{inputPath}
		fileLog.Info("processing single file: %s", inputPath)
	}

	// Build configuration: file settings first, CLI flags override.
	cfg := config.NewConfig(inputPath, outputDir, logDir)
	if ra.configFile != "" {
		if err := cfg.ApplyFile(ra.configFile); err != nil {
			return err
		}
	}
	if ra.tempDir != "" {
		cfg.TempDir = ra.tempDir
	}
	if ra.ffmpegPath != "" {
		cfg.FFmpegPath = ra.ffmpegPath
	}
	if ra.ffprobePath != "" {
		cfg.FFprobePath = ra.ffprobePath
	}
	if ra.concurrency != 0 {
		cfg.MaxConcurrentFiles = ra.concurrency
	}
	if ra.timeout != 0 {
		cfg.CommandTimeout = ra.timeout
	}
	cfg.SkipVerify = ra.skipVerify
	cfg.Verbose = ra.verbose

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fileLog.Info("output directory: %s", outputDir)
	fileLog.Info("tools: ffmpeg=%s ffprobe=%s timeout=%s", cfg.FFmpegPath, cfg.FFprobePath, cfg.CommandTimeout)
	fileLog.Info("concurrency: %d", cfg.MaxConcurrentFiles)

	var rep reporter.Reporter
	if ra.jsonOutput {
		rep = reporter.NewJSONReporter()
	} else {
		rep = reporter.NewTerminalReporter()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	results := processing.ProcessFiles(ctx, cfg, filesToProcess, targetFilename, rep, fileLog)

	repaired, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case processing.StatusRepaired:
			repaired++
		case processing.StatusFailed:
			failed++
		}
	}
	if failed > 0 && repaired == 0 {
		return fmt.Errorf("no files were repaired (%d failed)", failed)
	}
	return nil
}

func newAnalyzeCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Classify corruption and show the repair plan without repairing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeAnalyze(args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")
	return cmd
}

func executeAnalyze(inputPath string, jsonOutput bool) error {
	f, err := media.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := repair.Analyze(f)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printAnalysisJSON(f, a)
	}
	printAnalysis(f, a)
	return nil
}

func printAnalysis(f *media.File, a *repair.Analysis) {
	fmt.Printf("File:       %s (%s)\n", f.Path, util.FormatBytes(f.Size))
	fmt.Printf("Container:  %s\n", orUnknown(string(a.Signatures.Container)))
	fmt.Printf("Video:      %s\n", orUnknown(string(a.Signatures.VideoCodec)))
	fmt.Printf("Audio:      %s\n", orUnknown(string(a.Signatures.AudioCodec)))
	if a.Walk != nil {
		fmt.Printf("Boxes:      %d valid, %d invalid", a.Walk.ValidCount, a.Walk.InvalidCount)
		if missing := a.Walk.MissingRequired(); len(missing) > 0 {
			fmt.Printf(", missing: %v", missing)
		}
		fmt.Println()
	}
	if len(a.Units) > 0 {
		fmt.Printf("Stream:     %d units\n", len(a.Units))
	}
	fmt.Printf("Corruption: %s (%s of file), severity %s\n",
		util.FormatBytes(a.Corruption.CorruptedBytes),
		util.FormatPercent(a.Corruption.Ratio(f.Size)),
		a.Assessment.Level)
	for _, tag := range a.Assessment.Tags {
		fmt.Printf("  finding: %s\n", tag)
	}
	fmt.Println("Plan:")
	for i, s := range a.Assessment.Strategies {
		fmt.Printf("  %d. %s\n", i+1, s)
	}
}

func printAnalysisJSON(f *media.File, a *repair.Analysis) error {
	report := map[string]any{
		"file":            f.Path,
		"size":            f.Size,
		"container":       a.Signatures.Container,
		"video_codec":     a.Signatures.VideoCodec,
		"audio_codec":     a.Signatures.AudioCodec,
		"corrupted_bytes": a.Corruption.CorruptedBytes,
		"corrupted_ratio": a.Corruption.Ratio(f.Size),
		"severity":        a.Assessment.Level.String(),
	}
	if a.Walk != nil {
		report["valid_boxes"] = a.Walk.ValidCount
		report["invalid_boxes"] = a.Walk.InvalidCount
		report["missing_boxes"] = a.Walk.MissingRequired()
	}
	if len(a.Units) > 0 {
		report["stream_units"] = len(a.Units)
	}
	var findings []string
	for _, tag := range a.Assessment.Tags {
		findings = append(findings, string(tag))
	}
	report["findings"] = findings
	var plan []string
	for _, s := range a.Assessment.Strategies {
		plan = append(plan, s.String())
	}
	report["plan"] = plan

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
