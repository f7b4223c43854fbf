package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(MessageEvent("[download] Destination: /dl/Song A.mp4"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"[download] Destination: /dl/Song A.mp4"}`, string(data))

	data, err = json.Marshal(ErrorEvent("ERROR: unable to download"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"ERROR: unable to download"}`, string(data))

	data, err = json.Marshal(MessageEvent(""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":""}`, string(data))
}

func TestExitEvent(t *testing.T) {
	ev := ExitEvent(0)
	assert.True(t, ev.IsTerminal())
	assert.Equal(t, 0, ev.ExitCode)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Process exited with code 0"}`, string(data))

	failed := ExitEvent(LaunchFailureExitCode)
	assert.Equal(t, "Process exited with code -1", failed.Text)
}

func TestSkipNoticeEvent(t *testing.T) {
	ev := SkipNoticeEvent("Song A")
	assert.Equal(t, EventMessage, ev.Kind)
	assert.Equal(t, "Skipping Song A, already exists.", ev.Text)
	assert.False(t, ev.IsTerminal())
}

func TestEvent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Event
	}{
		{"message", `{"message":"[download]  42.0% of 10MiB"}`, MessageEvent("[download]  42.0% of 10MiB")},
		{"error", `{"error":"ERROR: private video"}`, ErrorEvent("ERROR: private video")},
		{"exit", `{"message":"Process exited with code 2"}`, ExitEvent(2)},
		{"launch failure", `{"message":"Process exited with code -1"}`, ExitEvent(LaunchFailureExitCode)},
		{"exit text inside a line", `{"message":"note: Process exited with code 2"}`, MessageEvent("note: Process exited with code 2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Event
			require.NoError(t, json.Unmarshal([]byte(tt.data), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var ev Event
	assert.Error(t, json.Unmarshal([]byte(`{"status":"ok"}`), &ev))
}
