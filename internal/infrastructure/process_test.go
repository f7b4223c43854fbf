//go:build !windows

package infrastructure

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ytdlp.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestExecRunner_RelaysBothStreamsAndExitCode(t *testing.T) {
	script := writeScript(t, `echo "line one"
echo "oops" 1>&2
printf 'progress 1\rprogress 2\n'
echo "second error" 1>&2
exit 3
`)

	var stdout, stderr []string
	code, err := NewExecRunner().Run(context.Background(), script, nil,
		func(line string) { stdout = append(stdout, line) },
		func(line string) { stderr = append(stderr, line) },
	)

	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, []string{"line one", "progress 1", "progress 2"}, stdout)
	assert.Equal(t, []string{"oops", "second error"}, stderr)
}

func TestExecRunner_PassesArgs(t *testing.T) {
	script := writeScript(t, `for a in "$@"; do echo "$a"; done`)

	var stdout []string
	code, err := NewExecRunner().Run(context.Background(), script,
		[]string{"-o", "/tmp/my downloads/%(title)s.%(ext)s", "--", "https://example.com/playlist?list=1&x=2"},
		func(line string) { stdout = append(stdout, line) }, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"-o", "/tmp/my downloads/%(title)s.%(ext)s", "--", "https://example.com/playlist?list=1&x=2"}, stdout)
}

func TestExecRunner_LaunchFailure(t *testing.T) {
	called := false
	code, err := NewExecRunner().Run(context.Background(), filepath.Join(t.TempDir(), "missing-binary"), nil,
		func(string) { called = true }, func(string) { called = true })

	assert.Error(t, err)
	assert.Equal(t, domain.LaunchFailureExitCode, code)
	assert.False(t, called)
}

func TestExecRunner_CancelKillsChild(t *testing.T) {
	script := writeScript(t, `echo started
sleep 30
echo never
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout []string
	start := time.Now()
	code, err := NewExecRunner().Run(ctx, script, nil, func(line string) {
		stdout = append(stdout, line)
		cancel()
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.LaunchFailureExitCode, code)
	assert.Equal(t, []string{"started"}, stdout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecRunner_OversizedLineKeepsStreaming(t *testing.T) {
	script := writeScript(t, `head -c 1100000 /dev/zero | tr '\0' a
printf '\nafter-one\nafter-two\n'
`)

	var lines []string
	code, err := NewExecRunner().Run(context.Background(), script, nil,
		func(line string) { lines = append(lines, line) }, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	require.Len(t, lines, 4)
	assert.Len(t, lines[0], maxLineSize)
	assert.Len(t, lines[1], 1100000-maxLineSize)
	assert.Equal(t, strings.Repeat("a", 1100000), lines[0]+lines[1])
	assert.Equal(t, []string{"after-one", "after-two"}, lines[2:])
}

func TestSplitLinesOrCR_Limit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "short lines untouched", input: "abc\nde\n", expected: []string{"abc", "de"}},
		{name: "long line chunked", input: "abcdefghij\nk\n", expected: []string{"abcd", "efgh", "ij", "k"}},
		{name: "exact limit", input: "abcd\refgh\n", expected: []string{"abcd", "efgh"}},
		{name: "no rune split", input: "abc\u00e9d\n", expected: []string{"abc", "\u00e9d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Buffer(make([]byte, 2), 4)
			scanner.Split(splitLinesOrCR(4))
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			require.NoError(t, scanner.Err())
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestScanLinesOrCR(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "newlines", input: "a\nb\n", expected: []string{"a", "b"}},
		{name: "carriage returns", input: "10%\r20%\r30%\n", expected: []string{"10%", "20%", "30%"}},
		{name: "crlf", input: "a\r\nb\r\n", expected: []string{"a", "b"}},
		{name: "no trailing newline", input: "a\nlast", expected: []string{"a", "last"}},
		{name: "blank lines dropped", input: "\n\na\n\n", expected: []string{"a"}},
		{name: "empty", input: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(ScanLinesOrCR)
			var got []string
			for scanner.Scan() {
				got = append(got, scanner.Text())
			}
			require.NoError(t, scanner.Err())
			assert.Equal(t, tt.expected, got)
		})
	}
}
