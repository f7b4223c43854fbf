//go:build !windows

package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playlistplunge/playlist-plunge/internal/app"
	"github.com/playlistplunge/playlist-plunge/internal/domain"
	"github.com/playlistplunge/playlist-plunge/internal/infrastructure"
	"github.com/playlistplunge/playlist-plunge/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const fakeYTDLP = `#!/bin/sh
echo "[youtube:tab] Downloading playlist"
echo "[download] Old Song.mp4 has already been downloaded"
echo "[download] Destination: New Song.mkv"
echo "ERROR: [youtube] abc: Video unavailable" 1>&2
exit 1
`

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	downloadDir := t.TempDir()
	logsDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(downloadDir, "Old Song.mp4"), nil, 0644))
	script := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(script, []byte(fakeYTDLP), 0755))

	logs, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: logsDir})
	require.NoError(t, err)
	t.Cleanup(func() { logs.Close() })

	config := &domain.DownloadConfig{
		Dir:            downloadDir,
		YTDLPBinary:    script,
		OutputTemplate: "%(title)s.%(ext)s",
	}
	relay := app.NewRelay(config, infrastructure.NewExecRunner(), nil, nil, logs)

	srv := httptest.NewServer(SetupRouter(relay, logs, "http://localhost:5173"))
	t.Cleanup(srv.Close)
	return srv, logsDir
}

func readFrames(t *testing.T, resp *http.Response) []string {
	t.Helper()
	var frames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())
	return frames
}

func TestDownloadEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/download?url=https://www.youtube.com/playlist?list=PL1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	frames := readFrames(t, resp)
	require.NotEmpty(t, frames)
	assert.Equal(t, `{"message":"Process exited with code 1"}`, frames[len(frames)-1])

	var stdout []string
	for _, f := range frames[:len(frames)-1] {
		if strings.HasPrefix(f, `{"message":`) {
			stdout = append(stdout, f)
		}
	}
	assert.Equal(t, []string{
		`{"message":"[youtube:tab] Downloading playlist"}`,
		`{"message":"[download] Old Song.mp4 has already been downloaded"}`,
		`{"message":"Skipping Old Song, already exists."}`,
		`{"message":"[download] Destination: New Song.mkv"}`,
	}, stdout)
	assert.Contains(t, frames, `{"error":"ERROR: [youtube] abc: Video unavailable"}`)
}

func TestDownloadMissingURL(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/download")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunIsLogged(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/download?url=https://example.com/list")
	require.NoError(t, err)
	readFrames(t, resp)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/logs/relay/search?q=run_started")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count   int               `json:"count"`
		Entries []logger.LogEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "https://example.com/list", body.Entries[0].URL)
}

func TestHealthAndStaticClient(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	resp, err = http.Get(srv.URL + "/static/app.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
