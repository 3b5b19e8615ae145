package ffmpeg

import (
	"strings"
	"testing"
)

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func hasArg(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func TestRemuxArgsStrict(t *testing.T) {
	args := RemuxArgs("in.mp4", "out.mp4", false)

	if !hasArg(args, "-xerror") {
		t.Error("strict remux missing -xerror")
	}
	if hasArgPair(args, "-err_detect", "ignore_err") {
		t.Error("strict remux must not ignore errors")
	}
	if !hasArgPair(args, "-c", "copy") {
		t.Error("remux must stream-copy")
	}
	if args[len(args)-1] != "out.mp4" {
		t.Errorf("output path = %q, want last argument", args[len(args)-1])
	}
}

func TestRemuxArgsPermissive(t *testing.T) {
	args := RemuxArgs("in.mp4", "out.mp4", true)

	if !hasArgPair(args, "-err_detect", "ignore_err") {
		t.Error("permissive remux missing -err_detect ignore_err")
	}
	if !hasArgPair(args, "-fflags", "+genpts+igndts") {
		t.Error("permissive remux missing timestamp regeneration flags")
	}
	if hasArg(args, "-xerror") {
		t.Error("permissive remux must not abort on bitstream errors")
	}
}

func TestRawBitstreamArgs(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"h264", "h264"},
		{"hevc", "hevc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := RawBitstreamArgs("stream.bin", tt.format, "out.mp4")
			if !hasArgPair(args, "-f", tt.format) {
				t.Errorf("raw demuxer format not forced to %q: %v", tt.format, args)
			}
			if !hasArgPair(args, "-c:v", "copy") {
				t.Error("bitstream rewrap must not re-encode")
			}
		})
	}
}

func TestCutArgs(t *testing.T) {
	args := CutArgs("in.mp4", 12.5, 10, "seg.mp4")

	if !hasArgPair(args, "-ss", "12.500") {
		t.Errorf("seek position missing: %v", args)
	}
	if !hasArgPair(args, "-t", "10.000") {
		t.Errorf("duration missing: %v", args)
	}

	// -ss must precede -i for input-side seeking.
	joined := strings.Join(args, " ")
	if strings.Index(joined, "-ss") > strings.Index(joined, "-i ") {
		t.Error("-ss must come before -i")
	}
}

func TestConcatArgs(t *testing.T) {
	args := ConcatArgs("list.txt", "out.mp4")

	if !hasArgPair(args, "-f", "concat") {
		t.Error("concat demuxer not selected")
	}
	if !hasArgPair(args, "-safe", "0") {
		t.Error("concat must allow absolute paths")
	}
}

func TestReencodeArgs(t *testing.T) {
	args := ReencodeArgs("in.mp4", "out.mp4")

	if !hasArgPair(args, "-c:v", "libx264") {
		t.Error("re-encode must use libx264")
	}
	if !hasArgPair(args, "-c:a", "aac") {
		t.Error("re-encode must use aac")
	}
	if !strings.Contains(strings.Join(args, " "), "discardcorrupt") {
		t.Error("re-encode must discard corrupt packets")
	}
}

func TestDecodeCheckArgs(t *testing.T) {
	args := DecodeCheckArgs("out.mp4", 1)

	if !hasArg(args, "-xerror") {
		t.Error("decode check must fail on any decode error")
	}
	if !hasArgPair(args, "-t", "1") {
		t.Error("decode check must bound the decoded span")
	}
	if !hasArgPair(args, "-f", "null") {
		t.Error("decode check must write to the null muxer")
	}
}
