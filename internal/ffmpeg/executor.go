package ffmpeg

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/vidmend/vidmend/internal/config"
	"github.com/vidmend/vidmend/internal/errors"
	"github.com/vidmend/vidmend/internal/logging"
)

// maxStderrTail bounds the captured stderr kept for error reporting.
const maxStderrTail = 8 * 1024

// Executor runs ffmpeg commands with a deadline.
type Executor struct {
	// BinaryPath overrides the ffmpeg binary; empty means $PATH lookup.
	BinaryPath string
	// Timeout bounds each invocation; zero means the default command timeout.
	Timeout time.Duration
}

// Result contains the outcome of an ffmpeg invocation.
type Result struct {
	Stderr   string
	ExitCode int
}

func (e *Executor) binary() string {
	if e.BinaryPath != "" {
		return e.BinaryPath
	}
	return "ffmpeg"
}

func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return config.DefaultCommandTimeout
}

// Run executes ffmpeg with the given arguments. Stderr is captured and
// returned in both the success and failure cases; a hung invocation is
// killed when the deadline expires and reported as a timeout.
func (e *Executor) Run(ctx context.Context, args []string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	logging.Global().WithPrefix("ffmpeg").Debug("running command",
		"binary", e.binary(), "args", strings.Join(args, " "))

	cmd := exec.CommandContext(runCtx, e.binary(), args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stderr: tail(stderr.String())}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		switch {
		case runCtx.Err() == context.DeadlineExceeded:
			return res, errors.NewTimeoutError(e.binary())
		case ctx.Err() == context.Canceled:
			return res, errors.NewCancelledError()
		default:
			return res, errors.WrapExecError(e.binary(), err, res.Stderr)
		}
	}

	return res, nil
}

// tail keeps the last maxStderrTail bytes of s. FFmpeg puts the decisive
// error at the end of its output.
func tail(s string) string {
	if len(s) <= maxStderrTail {
		return s
	}
	return s[len(s)-maxStderrTail:]
}
