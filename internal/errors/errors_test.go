package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCoreErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *CoreError
		want string
	}{
		{
			name: "without underlying",
			err:  NewUnknownFormatError("clip.mp4"),
			want: "Unknown format: no recognizable container or codec in clip.mp4",
		},
		{
			name: "with underlying",
			err:  NewIOError("read failed", fmt.Errorf("short read")),
			want: "I/O error: read failed: short read",
		},
		{
			name: "exhausted",
			err:  NewExhaustedError("clip.mp4", 4),
			want: "Repair exhausted: all 4 repair strategies failed for clip.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := NewStrategyFailedError("quick remux", fmt.Errorf("ffmpeg exited 1"))
	wrapped := fmt.Errorf("attempt 1: %w", err)

	if !IsKind(wrapped, KindStrategyFailed) {
		t.Error("expected wrapped error to match KindStrategyFailed")
	}
	if IsKind(wrapped, KindVerification) {
		t.Error("did not expect wrapped error to match KindVerification")
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	underlying := fmt.Errorf("no such binary")
	err := NewCommandStartError("ffmpeg", underlying)

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatal("expected CommandError in chain")
	}
	if cmdErr.Kind != CommandStart {
		t.Errorf("Kind = %v, want CommandStart", cmdErr.Kind)
	}
	if !errors.Is(err, underlying) {
		t.Error("expected underlying error in chain")
	}
}

func TestNewCommandFailedError(t *testing.T) {
	err := NewCommandFailedError("ffprobe", 1, "invalid data found")
	want := "Command error: command ffprobe failed with exit code 1: invalid data found: command ffprobe failed with exit code 1: invalid data found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsKind(err, KindCommand) {
		t.Error("expected KindCommand")
	}
}

func TestIsExhausted(t *testing.T) {
	if !IsExhausted(NewExhaustedError("x.mp4", 6)) {
		t.Error("expected IsExhausted to be true")
	}
	if IsExhausted(NewCancelledError()) {
		t.Error("expected IsExhausted to be false for cancelled")
	}
}
