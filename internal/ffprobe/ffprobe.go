// Package ffprobe extracts media information from files using ffprobe.
package ffprobe

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"

	"github.com/vidmend/vidmend/internal/errors"
)

// MediaInfo contains the stream-level facts recovered from a probe.
type MediaInfo struct {
	Duration     float64
	FormatName   string
	VideoCodec   string
	AudioCodec   string
	Width        int64
	Height       int64
	VideoStreams int
	AudioStreams int
}

// HasVideo reports whether the probe found at least one video stream.
func (m *MediaInfo) HasVideo() bool {
	return m.VideoStreams > 0
}

// Playable reports whether the file decoded far enough for ffprobe to
// recover a positive duration.
func (m *MediaInfo) Playable() bool {
	return m.Duration > 0 && (m.VideoStreams > 0 || m.AudioStreams > 0)
}

// ffprobeOutput represents the JSON output from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int64  `json:"width"`
	Height    int64  `json:"height"`
}

// Prober runs ffprobe against media files.
type Prober struct {
	// BinaryPath overrides the ffprobe binary; empty means $PATH lookup.
	BinaryPath string
}

func (p *Prober) binary() string {
	if p.BinaryPath != "" {
		return p.BinaryPath
	}
	return "ffprobe"
}

// run executes ffprobe and returns the parsed output.
func (p *Prober) run(ctx context.Context, inputPath string) (*ffprobeOutput, error) {
	cmd := exec.CommandContext(ctx, p.binary(),
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError(p.binary())
		}
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		return nil, errors.WrapExecError(p.binary(), err, stderr)
	}

	result, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, errors.NewProbeParseError("unexpected ffprobe output for "+inputPath, err)
	}
	return result, nil
}

// parseFFprobeOutput decodes the JSON ffprobe emits.
func parseFFprobeOutput(data []byte) (*ffprobeOutput, error) {
	var result ffprobeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Probe returns media information for a file. A damaged file that ffprobe
// cannot open at all yields a command error; a file ffprobe opens but cannot
// fully parse yields partial info rather than an error.
func (p *Prober) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	probe, err := p.run(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	return extractMediaInfo(probe), nil
}

// extractMediaInfo reduces raw probe output to the facts repair cares about.
// The first stream of each type supplies the representative codec and
// geometry.
func extractMediaInfo(probe *ffprobeOutput) *MediaInfo {
	info := &MediaInfo{FormatName: probe.Format.FormatName}

	if probe.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			info.VideoStreams++
			if info.VideoCodec == "" {
				info.VideoCodec = stream.CodecName
				info.Width = stream.Width
				info.Height = stream.Height
			}
		case "audio":
			info.AudioStreams++
			if info.AudioCodec == "" {
				info.AudioCodec = stream.CodecName
			}
		}
	}

	return info
}

// Duration returns just the container duration in seconds.
func (p *Prober) Duration(ctx context.Context, inputPath string) (float64, error) {
	info, err := p.Probe(ctx, inputPath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
