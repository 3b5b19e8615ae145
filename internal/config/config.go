// Package config provides configuration types and defaults for vidmend.
//
// A Config is built once at startup and never mutated during a run; every
// component receives it by pointer and treats it as read-only.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default constants
const (
	// ContainerScanWindow bounds the prefix searched for container signatures.
	ContainerScanWindow uint64 = 1 << 20 // 1 MiB

	// CodecScanWindow bounds the prefix searched for codec and audio signatures.
	CodecScanWindow uint64 = 10 << 20 // 10 MiB

	// MaxMatchesPerPattern caps recorded matches for a single signature.
	MaxMatchesPerPattern = 5

	// UnitScanBufferSize is the read chunk size for the stream unit scanner.
	UnitScanBufferSize = 8 * 1024

	// DetectorChunkSize is the read chunk size for the corruption detector.
	DetectorChunkSize = 1 << 20 // 1 MiB

	// ZeroRunThreshold is the consecutive-zero count that opens a corrupted region.
	ZeroRunThreshold = 1024

	// MinBlockSize is the smallest legal MP4 box (size field + type tag).
	MinBlockSize = 8

	// MinValidRegionSize filters fragment noise out of the valid region set.
	MinValidRegionSize uint64 = 1024 // 1 KiB

	// MaxTrackedRegions caps detector memory on pathological inputs. Hitting
	// the cap abandons region accounting and forces critical severity.
	MaxTrackedRegions = 4096

	// DefaultCommandTimeout bounds a single external tool invocation.
	DefaultCommandTimeout = 10 * time.Minute

	// DefaultMaxConcurrentFiles bounds files repaired at once. Repairs can
	// trigger full re-encodes, so this stays low.
	DefaultMaxConcurrentFiles = 1

	// MaxConcurrentFilesLimit is the largest accepted concurrency setting.
	MaxConcurrentFilesLimit = 4

	// VerifyDecodeSeconds is how much leading video the verifier decodes.
	VerifyDecodeSeconds = 1

	// FallbackSegmentSeconds is the fixed interval for fallback segmentation.
	FallbackSegmentSeconds = 10

	// SpaceHeadroomFactor is how many multiples of the input size must be
	// free in the temp directory before a repair starts (original plus one
	// candidate at a time).
	SpaceHeadroomFactor = 2
)

// Config holds all configuration for corruption analysis and repair.
type Config struct {
	// Input/output paths
	InputPath string
	OutputDir string
	LogDir    string
	TempDir   string // Optional, defaults to OutputDir

	// External tool binaries
	FFmpegPath  string
	FFprobePath string

	// Processing options
	MaxConcurrentFiles int
	CommandTimeout     time.Duration
	SkipVerify         bool // Trust executor output without probing (debug aid)
	Verbose            bool
}

// NewConfig creates a new Config with default values.
func NewConfig(inputPath, outputDir, logDir string) *Config {
	return &Config{
		InputPath:          inputPath,
		OutputDir:          outputDir,
		LogDir:             logDir,
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		MaxConcurrentFiles: DefaultMaxConcurrentFiles,
		CommandTimeout:     DefaultCommandTimeout,
	}
}

// EffectiveTempDir returns the temp working directory, defaulting to OutputDir.
func (c *Config) EffectiveTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return c.OutputDir
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidPath)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidPath)
	}
	if c.MaxConcurrentFiles < 1 || c.MaxConcurrentFiles > MaxConcurrentFilesLimit {
		return fmt.Errorf("%w: must be 1-%d, got %d", ErrInvalidConcurrency, MaxConcurrentFilesLimit, c.MaxConcurrentFiles)
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("%w: must be positive, got %s", ErrInvalidTimeout, c.CommandTimeout)
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return fmt.Errorf("%w: ffmpeg and ffprobe paths are required", ErrInvalidToolPath)
	}
	return nil
}

// fileConfig mirrors the subset of Config settable from a YAML file.
type fileConfig struct {
	OutputDir          string `yaml:"output_dir"`
	LogDir             string `yaml:"log_dir"`
	TempDir            string `yaml:"temp_dir"`
	FFmpegPath         string `yaml:"ffmpeg_path"`
	FFprobePath        string `yaml:"ffprobe_path"`
	MaxConcurrentFiles int    `yaml:"max_concurrent_files"`
	CommandTimeoutSecs int    `yaml:"command_timeout_secs"`
	Verbose            bool   `yaml:"verbose"`
}

// ApplyFile overlays settings from a YAML config file onto c. Zero-valued
// fields in the file leave the existing value untouched.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.OutputDir != "" {
		c.OutputDir = fc.OutputDir
	}
	if fc.LogDir != "" {
		c.LogDir = fc.LogDir
	}
	if fc.TempDir != "" {
		c.TempDir = fc.TempDir
	}
	if fc.FFmpegPath != "" {
		c.FFmpegPath = fc.FFmpegPath
	}
	if fc.FFprobePath != "" {
		c.FFprobePath = fc.FFprobePath
	}
	if fc.MaxConcurrentFiles != 0 {
		c.MaxConcurrentFiles = fc.MaxConcurrentFiles
	}
	if fc.CommandTimeoutSecs != 0 {
		c.CommandTimeout = time.Duration(fc.CommandTimeoutSecs) * time.Second
	}
	if fc.Verbose {
		c.Verbose = true
	}
	return nil
}
