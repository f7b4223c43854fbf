package domain

import "context"

// LineHandler receives one line of child process output, without its terminator
type LineHandler func(line string)

// ProcessRunner runs an external program and streams its output line by line
type ProcessRunner interface {
	// Run starts binary with args and blocks until it exits or ctx is done,
	// which kills it. Handlers for the same stream are called in order.
	// The returned error is non-nil when the process could not be started or
	// waiting for it failed; a non-zero exit is reported through the exit code.
	Run(ctx context.Context, binary string, args []string, stdout, stderr LineHandler) (exitCode int, err error)
}
