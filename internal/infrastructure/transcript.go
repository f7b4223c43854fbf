package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TranscriptWriter appends raw downloader output to a dated transcript file,
// one block per run.
type TranscriptWriter struct {
	logsDir string
	mu      sync.Mutex
}

// NewTranscriptWriter creates a transcript writer under logsDir
func NewTranscriptWriter(logsDir string) *TranscriptWriter {
	return &TranscriptWriter{logsDir: logsDir}
}

// Transcript is the open transcript block of one run
type Transcript struct {
	file *os.File
	mu   *sync.Mutex
}

// Open starts a transcript block for runID
func (w *TranscriptWriter) Open(runID, cmdLine string) (*Transcript, error) {
	if err := os.MkdirAll(w.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := filepath.Join(w.logsDir, "transcript-"+time.Now().Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	t := &Transcript{file: file, mu: &w.mu}
	t.write(fmt.Sprintf("\n=== [%s] Run: %s ===\n$ %s\n", timestamp(), runID, cmdLine))
	return t, nil
}

// Stdout records a stdout line
func (t *Transcript) Stdout(line string) {
	t.write(line + "\n")
}

// Stderr records a stderr line
func (t *Transcript) Stderr(line string) {
	t.write("[STDERR] " + line + "\n")
}

// Close writes the footer with the exit code and closes the file
func (t *Transcript) Close(exitCode int) error {
	status := "SUCCESS"
	if exitCode != 0 {
		status = "FAILED"
	}
	t.write(fmt.Sprintf("[%s] %s: exit code %d\n=== END ===\n", timestamp(), status, exitCode))
	return t.file.Close()
}

// write serializes writes across runs so blocks never interleave mid-line
func (t *Transcript) write(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.file.WriteString(s)
}

func timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}
