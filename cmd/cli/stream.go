package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

var (
	errorColor = color.New(color.FgRed)
	skipColor  = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
)

// errStreamEnded means the server closed the stream before the exit status arrived
var errStreamEnded = errors.New("stream ended before the download finished")

// renderStream prints a server-sent event stream until the terminal event
// and returns the downloader's exit code.
// The terminal event is only distinguishable by its text, so a downloader line
// reading exactly "Process exited with code N" ends the rendering early.
func renderStream(r io.Reader, stdout, stderr io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")

		var ev domain.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return 0, fmt.Errorf("malformed event %q: %w", payload, err)
		}

		switch {
		case ev.Kind == domain.EventError:
			errorColor.Fprintln(stderr, ev.Text)
		case ev.IsTerminal():
			if ev.ExitCode == 0 {
				okColor.Fprintln(stdout, ev.Text)
			} else {
				failColor.Fprintln(stdout, ev.Text)
			}
			return ev.ExitCode, nil
		case strings.HasPrefix(ev.Text, "Skipping ") && strings.HasSuffix(ev.Text, ", already exists."):
			skipColor.Fprintln(stdout, ev.Text)
		default:
			fmt.Fprintln(stdout, ev.Text)
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errStreamEnded
}
