// Package ffmpeg provides FFmpeg command building and execution.
package ffmpeg

import (
	"fmt"
)

// RemuxArgs builds arguments for a stream-copy remux. In strict mode any
// bitstream error aborts the run; permissive mode tells the demuxer to skip
// damaged packets and regenerate timestamps.
func RemuxArgs(inputPath, outputPath string, permissive bool) []string {
	args := []string{"-y", "-v", "error"}
	if permissive {
		args = append(args,
			"-err_detect", "ignore_err",
			"-fflags", "+genpts+igndts",
		)
	} else {
		args = append(args, "-xerror")
	}
	args = append(args,
		"-i", inputPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// RawBitstreamArgs builds arguments that wrap a raw Annex-B elementary
// stream back into a container. rawFormat is the ffmpeg demuxer name
// ("h264" or "hevc").
func RawBitstreamArgs(rawPath, rawFormat, outputPath string) []string {
	return []string{
		"-y", "-v", "error",
		"-fflags", "+genpts",
		"-f", rawFormat,
		"-i", rawPath,
		"-c:v", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
}

// RawBitstreamWithAudioArgs builds arguments that wrap a raw video
// elementary stream together with the audio streams of the original file.
// The original is demuxed permissively; if its audio is unreadable the
// whole command fails and the caller falls back to video only.
func RawBitstreamWithAudioArgs(rawPath, rawFormat, sourcePath, outputPath string) []string {
	return []string{
		"-y", "-v", "error",
		"-fflags", "+genpts",
		"-f", rawFormat,
		"-i", rawPath,
		"-err_detect", "ignore_err",
		"-i", sourcePath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
}

// CutArgs builds arguments that copy one time or byte slice of the input
// into its own file. start and duration are in seconds.
func CutArgs(inputPath string, start, duration float64, outputPath string) []string {
	return []string{
		"-y", "-v", "error",
		"-err_detect", "ignore_err",
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", inputPath,
		"-t", fmt.Sprintf("%.3f", duration),
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	}
}

// ConcatArgs builds arguments for the concat demuxer over a file list
// written in ffconcat format.
func ConcatArgs(listPath, outputPath string) []string {
	return []string{
		"-y", "-v", "error",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
}

// ReencodeArgs builds arguments for a full decode and re-encode. This is
// the most tolerant and most destructive path: every decodable frame is
// kept, everything else is dropped and resynthesized.
func ReencodeArgs(inputPath, outputPath string) []string {
	return []string{
		"-y", "-v", "error",
		"-err_detect", "ignore_err",
		"-fflags", "+genpts+igndts+discardcorrupt",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
}

// DecodeCheckArgs builds arguments that decode the leading seconds of a
// file to the null muxer. Any decode error fails the run.
func DecodeCheckArgs(inputPath string, seconds int) []string {
	return []string{
		"-v", "error",
		"-xerror",
		"-i", inputPath,
		"-t", fmt.Sprintf("%d", seconds),
		"-f", "null", "-",
	}
}
