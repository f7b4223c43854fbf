package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"unicode/utf8"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

const maxLineSize = 1024 * 1024

// ExecRunner implements domain.ProcessRunner with os/exec
type ExecRunner struct{}

// NewExecRunner creates a new exec-backed process runner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts the process and pipes stdout and stderr to the handlers
func (r *ExecRunner) Run(ctx context.Context, binary string, args []string, stdout, stderr domain.LineHandler) (int, error) {
	if stdout == nil {
		stdout = func(string) {}
	}
	if stderr == nil {
		stderr = func(string) {}
	}

	// exec.CommandContext kills the child when ctx is done
	cmd := exec.CommandContext(ctx, binary, args...)
	setProcessGroup(cmd)
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return domain.LaunchFailureExitCode, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return domain.LaunchFailureExitCode, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return domain.LaunchFailureExitCode, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	// Both pipes must be drained before Wait closes them
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stdoutPipe, stdout)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, stderr)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && ctx.Err() == nil {
			return domain.LaunchFailureExitCode, fmt.Errorf("failed to wait for %s: %w", binary, err)
		}
	}
	return cmd.ProcessState.ExitCode(), nil
}

// scanLines feeds every line of r to handle and drains the rest on a read failure.
// Lines longer than maxLineSize arrive in pieces.
func scanLines(r io.Reader, handle domain.LineHandler) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(ScanLinesOrCR)
	for scanner.Scan() {
		handle(scanner.Text())
	}
	if scanner.Err() != nil {
		io.Copy(io.Discard, r)
	}
}

// ScanLinesOrCR is a bufio.SplitFunc that ends a line at \n or \r.
// yt-dlp redraws its progress line with \r. Empty lines are dropped.
// A line longer than maxLineSize is split into pieces of at most that size.
var ScanLinesOrCR = splitLinesOrCR(maxLineSize)

func splitLinesOrCR(limit int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		start := 0
		for start < len(data) && (data[start] == '\n' || data[start] == '\r') {
			start++
		}
		if atEOF && start == len(data) {
			return len(data), nil, nil
		}
		if i := bytes.IndexAny(data[start:], "\r\n"); i >= 0 && i <= limit {
			return start + i + 1, data[start : start+i], nil
		}
		if len(data)-start >= limit {
			n := runeBoundary(data[start : start+limit])
			return start + n, data[start : start+n], nil
		}
		if atEOF {
			return len(data), data[start:], nil
		}
		// Request more data, skipping the separators already seen
		return start, nil, nil
	}
}

// runeBoundary returns the length of chunk without a trailing incomplete UTF-8 sequence
func runeBoundary(chunk []byte) int {
	for i := len(chunk) - 1; i > 0 && i >= len(chunk)-utf8.UTFMax; i-- {
		if utf8.RuneStart(chunk[i]) {
			if !utf8.FullRune(chunk[i:]) {
				return i
			}
			break
		}
	}
	return len(chunk)
}
