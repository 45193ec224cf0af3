package media

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFFmpegNotFound    = errors.New("ffmpeg binary not found")
	ErrSourceNotFound    = errors.New("source media file not found")
	ErrDestinationExists = errors.New("destination file already exists")
	ErrInvalidRange      = errors.New("invalid time range")
	ErrMissingPath       = errors.New("file path was not specified")
	ErrProcessingTimeout = errors.New("media processing timeout")
)

// ProcessingError represents a failed ffmpeg invocation
type ProcessingError struct {
	Operation string // The operation that failed (e.g., "cut", "convert")
	File      string // The file being processed
	Err       error  // The underlying error
	Stderr    string // stderr output from ffmpeg
}

func (e *ProcessingError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg %s failed for %s: %v (stderr: %s)", e.Operation, e.File, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg %s failed for %s: %v", e.Operation, e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError creates a new ProcessingError
func NewProcessingError(operation, file string, err error, stderr string) *ProcessingError {
	return &ProcessingError{
		Operation: operation,
		File:      file,
		Err:       err,
		Stderr:    stderr,
	}
}
