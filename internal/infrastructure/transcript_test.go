package infrastructure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewTranscriptWriter(dir)

	transcript, err := writer.Open("run-1", "yt-dlp -- https://example.com/playlist")
	require.NoError(t, err)
	transcript.Stdout("[download] Destination: /dl/Song A.mp4")
	transcript.Stderr("WARNING: slow connection")
	require.NoError(t, transcript.Close(1))

	data, err := os.ReadFile(filepath.Join(dir, "transcript-"+time.Now().Format("20060102")+".log"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Run: run-1 ===")
	assert.Contains(t, content, "$ yt-dlp -- https://example.com/playlist\n")
	assert.Contains(t, content, "[download] Destination: /dl/Song A.mp4\n")
	assert.Contains(t, content, "[STDERR] WARNING: slow connection\n")
	assert.Contains(t, content, "FAILED: exit code 1")
	assert.True(t, strings.HasSuffix(content, "=== END ===\n"))
}
