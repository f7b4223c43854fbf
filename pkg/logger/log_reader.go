package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"time"
)

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	RunID     string `json:"run_id,omitempty"`
	URL       string `json:"url,omitempty"`
}

// LogReader reads the dated category files written by MultiLogger
type LogReader struct {
	logsDir string
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{logsDir: logsDir}
}

// LogPath returns the path of a category log for a date
func (lr *LogReader) LogPath(category LogCategory, date time.Time) string {
	return CategoryLogPath(lr.logsDir, category, date)
}

// ReadLogs returns the last limit entries of a category log; limit <= 0 means all.
// A missing file yields no entries.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	file, err := os.Open(lr.LogPath(category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseEntry(category, line))
	}
	return entries, nil
}

// SearchLogs returns entries whose message, level, run id or url contain query,
// case-insensitively, keeping the last limit matches.
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(category, date, 0)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	filtered := []LogEntry{}
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Message), query) ||
			strings.Contains(strings.ToLower(entry.Level), query) ||
			strings.Contains(strings.ToLower(entry.RunID), query) ||
			strings.Contains(strings.ToLower(entry.URL), query) {
			filtered = append(filtered, entry)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func parseEntry(category LogCategory, line string) LogEntry {
	var entry LogEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return LogEntry{
			Level:    "info",
			Message:  line,
			Category: string(category),
		}
	}
	if entry.Category == "" {
		entry.Category = string(category)
	}
	return entry
}
