// Package media cuts and converts audio/video files with the ffmpeg binary.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FFmpeg wraps the ffmpeg binary
type FFmpeg struct {
	ffmpegPath string
	timeout    time.Duration
}

// New creates a new FFmpeg instance. A zero timeout disables the deadline.
func New(ffmpegPath string, timeout time.Duration) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpeg{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
	}
}

// Path returns the configured binary.
func (f *FFmpeg) Path() string { return f.ffmpegPath }

// ValidateBinary checks that ffmpeg can be found
func (f *FFmpeg) ValidateBinary() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	return nil
}

// Version reports the version string printed by "ffmpeg -version", or ""
// when the output is not recognised.
func (f *FFmpeg) Version(ctx context.Context) (string, error) {
	out, err := f.run(ctx, "version", "", "-version")
	if err != nil {
		return "", err
	}
	return parseVersion(out), nil
}

func parseVersion(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	parts := strings.Fields(line)
	if len(parts) > 3 && parts[0] == "ffmpeg" && parts[1] == "version" {
		return parts[2]
	}
	return ""
}

// Cut extracts the [from, to] range of source into dest. Nil bounds mean
// the start or the end of the source. dest must not exist.
func (f *FFmpeg) Cut(ctx context.Context, source, dest string, from, to *float64) error {
	args, err := cutArgs(source, dest, from, to)
	if err != nil {
		return err
	}
	_, err = f.run(ctx, "cut", source, args...)
	return err
}

// cutArgs validates the request and builds the ffmpeg argument list.
func cutArgs(source, dest string, from, to *float64) ([]string, error) {
	if err := checkPaths(source, dest); err != nil {
		return nil, err
	}
	if from != nil && *from < 0 {
		return nil, fmt.Errorf("%w: negative start %.3f", ErrInvalidRange, *from)
	}
	if from != nil && to != nil && *from >= *to {
		return nil, fmt.Errorf("%w: start=%.3f, end=%.3f", ErrInvalidRange, *from, *to)
	}

	args := []string{"-n", "-i", source}
	if from != nil {
		args = append(args, "-ss", formatSeconds(*from))
	}
	if to != nil {
		args = append(args, "-to", formatSeconds(*to))
	}
	return append(args, dest), nil
}

// Convert transcodes infile into outfile; the target format follows the
// output extension. Extra ffmpeg arguments go between input and output.
func (f *FFmpeg) Convert(ctx context.Context, infile, outfile string, extra ...string) error {
	if err := checkPaths(infile, outfile); err != nil {
		return err
	}
	args := append([]string{"-n", "-i", infile}, extra...)
	_, err := f.run(ctx, "convert", infile, append(args, outfile)...)
	return err
}

func checkPaths(source, dest string) error {
	if source == "" || dest == "" {
		return ErrMissingPath
	}
	if info, err := os.Stat(source); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
	return nil
}

// run executes ffmpeg and returns its stdout.
func (f *FFmpeg) run(ctx context.Context, operation, file string, args ...string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	logrus.WithFields(logrus.Fields{
		"binary":    f.ffmpegPath,
		"operation": operation,
		"args":      args,
	}).Debug("executing ffmpeg")

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrProcessingTimeout
		}
		return "", NewProcessingError(operation, file, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
