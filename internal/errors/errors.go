// Package errors provides structured error types for vidmend operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindPath represents path-related errors.
	KindPath
	// KindUnreadableInput represents a missing, empty, or unreadable input file.
	KindUnreadableInput
	// KindUnknownFormat represents an undetermined container or codec.
	KindUnknownFormat
	// KindCommand represents external command execution errors.
	KindCommand
	// KindTimeout represents an external command exceeding its deadline.
	KindTimeout
	// KindProbeParse represents ffprobe output parsing errors.
	KindProbeParse
	// KindConfig represents configuration validation errors.
	KindConfig
	// KindNoFilesFound represents no suitable video files found.
	KindNoFilesFound
	// KindAnalysis represents analysis-stage failures.
	KindAnalysis
	// KindStrategyFailed represents a single repair strategy failing.
	KindStrategyFailed
	// KindVerification represents a repair candidate failing verification.
	KindVerification
	// KindExhausted represents all repair strategies failing for a file.
	KindExhausted
	// KindInsufficientSpace represents not enough free disk space to repair.
	KindInsufficientSpace
	// KindCancelled represents user-cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindPath:
		return "Path error"
	case KindUnreadableInput:
		return "Unreadable input"
	case KindUnknownFormat:
		return "Unknown format"
	case KindCommand:
		return "Command error"
	case KindTimeout:
		return "Command timeout"
	case KindProbeParse:
		return "Probe parse error"
	case KindConfig:
		return "Configuration error"
	case KindNoFilesFound:
		return "No files found"
	case KindAnalysis:
		return "Analysis error"
	case KindStrategyFailed:
		return "Strategy failed"
	case KindVerification:
		return "Verification failed"
	case KindExhausted:
		return "Repair exhausted"
	case KindInsufficientSpace:
		return "Insufficient disk space"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind represents the type of command error.
type CommandErrorKind int

const (
	// CommandStart means the command failed to start.
	CommandStart CommandErrorKind = iota
	// CommandWait means waiting for the command failed.
	CommandWait
	// CommandFailed means the command returned non-zero exit status.
	CommandFailed
)

// CommandError represents an error from executing an external command.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case CommandStart:
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	case CommandWait:
		return fmt.Sprintf("failed to wait for %s: %v", e.Command, e.Underlying)
	case CommandFailed:
		if e.Stderr != "" {
			return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	default:
		return fmt.Sprintf("command %s error: %v", e.Command, e.Underlying)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for vidmend operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

// NewPathError creates a new path-related error.
func NewPathError(message string) *CoreError {
	return &CoreError{Kind: KindPath, Message: message}
}

// NewUnreadableInputError creates an error for an input that cannot be read.
func NewUnreadableInputError(path string, underlying error) *CoreError {
	return &CoreError{Kind: KindUnreadableInput, Message: fmt.Sprintf("cannot read %s", path), Underlying: underlying}
}

// NewUnknownFormatError creates an error for an undetermined container/codec.
func NewUnknownFormatError(path string) *CoreError {
	return &CoreError{Kind: KindUnknownFormat, Message: fmt.Sprintf("no recognizable container or codec in %s", path)}
}

// NewCommandError creates a new command execution error.
func NewCommandError(cmd string, kind CommandErrorKind, underlying error) *CoreError {
	cmdErr := &CommandError{
		Command:    cmd,
		Kind:       kind,
		Underlying: underlying,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandStartError creates an error for when a command fails to start.
func NewCommandStartError(cmd string, err error) *CoreError {
	return NewCommandError(cmd, CommandStart, err)
}

// NewCommandFailedError creates an error for when a command returns non-zero exit status.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	cmdErr := &CommandError{
		Command:  cmd,
		Kind:     CommandFailed,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewTimeoutError creates an error for a command that exceeded its deadline.
func NewTimeoutError(cmd string) *CoreError {
	return &CoreError{Kind: KindTimeout, Message: fmt.Sprintf("%s exceeded its deadline", cmd)}
}

// NewProbeParseError creates a new ffprobe parsing error.
func NewProbeParseError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindProbeParse, Message: message, Underlying: underlying}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message}
}

// NewNoFilesFoundError creates an error for when no video files are found.
func NewNoFilesFoundError(dir string) *CoreError {
	return &CoreError{Kind: KindNoFilesFound, Message: fmt.Sprintf("no suitable video files found in %s", dir)}
}

// NewAnalysisError creates a new analysis-stage error.
func NewAnalysisError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindAnalysis, Message: message, Underlying: underlying}
}

// NewStrategyFailedError creates an error for a single failed repair strategy.
func NewStrategyFailedError(strategy string, underlying error) *CoreError {
	return &CoreError{Kind: KindStrategyFailed, Message: fmt.Sprintf("strategy %s failed", strategy), Underlying: underlying}
}

// NewVerificationError creates an error for a candidate failing verification.
func NewVerificationError(message string) *CoreError {
	return &CoreError{Kind: KindVerification, Message: message}
}

// NewExhaustedError creates an error for when every strategy has failed.
func NewExhaustedError(path string, attempts int) *CoreError {
	return &CoreError{Kind: KindExhausted, Message: fmt.Sprintf("all %d repair strategies failed for %s", attempts, path)}
}

// NewInsufficientSpaceError creates an error for inadequate free disk space.
func NewInsufficientSpaceError(dir string, need, have uint64) *CoreError {
	return &CoreError{Kind: KindInsufficientSpace, Message: fmt.Sprintf("%s has %d bytes free, need %d", dir, have, need)}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// IsExhausted checks if the error is a strategy-exhaustion error.
func IsExhausted(err error) bool {
	return IsKind(err, KindExhausted)
}

// IsNoFilesFound checks if the error is a no-files-found error.
func IsNoFilesFound(err error) bool {
	return IsKind(err, KindNoFilesFound)
}

// WrapExecError wraps an exec.ExitError into a CoreError.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
