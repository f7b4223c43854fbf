package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestRenderStream(t *testing.T) {
	stream := strings.Join([]string{
		`data: {"message":"[youtube:tab] Downloading playlist"}`,
		``,
		`data: {"message":"Skipping Old Song, already exists."}`,
		``,
		`data: {"error":"ERROR: Video unavailable"}`,
		``,
		`data: {"message":"Process exited with code 1"}`,
		``,
		`data: {"message":"never read"}`,
		``,
	}, "\n")

	var stdout, stderr bytes.Buffer
	code, err := renderStream(strings.NewReader(stream), &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Equal(t, "[youtube:tab] Downloading playlist\nSkipping Old Song, already exists.\nProcess exited with code 1\n", stdout.String())
	assert.Equal(t, "ERROR: Video unavailable\n", stderr.String())
}

func TestRenderStream_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := renderStream(strings.NewReader("data: {\"message\":\"Process exited with code 0\"}\n\n"), &stdout, &stderr)

	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestRenderStream_EndsEarly(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, err := renderStream(strings.NewReader("data: {\"message\":\"half\"}\n\n"), &stdout, &stderr)

	assert.ErrorIs(t, err, errStreamEnded)
	assert.Equal(t, "half\n", stdout.String())
}

func TestRenderStream_Malformed(t *testing.T) {
	var stdout, stderr bytes.Buffer
	_, err := renderStream(strings.NewReader("data: not json\n\n"), &stdout, &stderr)

	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 8))
	assert.Equal(t, "abcde...", truncate("abcdefghijkl", 8))
}
