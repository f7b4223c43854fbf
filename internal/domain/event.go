package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// EventKind identifies the shape of a progress event
type EventKind string

const (
	EventMessage EventKind = "message" // Informational text
	EventError   EventKind = "error"   // Text the child wrote to stderr, or a relay failure
	EventExit    EventKind = "exit"    // Terminal status, always last
)

// LaunchFailureExitCode is reported when the downloader could not be started at all.
const LaunchFailureExitCode = -1

var exitPattern = regexp.MustCompile(`^Process exited with code (-?\d+)$`)

// Event is one transient progress message relayed to a client.
// It is emitted once and never stored.
type Event struct {
	Kind     EventKind
	Text     string
	ExitCode int
}

// MessageEvent creates an informational event
func MessageEvent(text string) Event {
	return Event{Kind: EventMessage, Text: text}
}

// ErrorEvent creates an error event
func ErrorEvent(text string) Event {
	return Event{Kind: EventError, Text: text}
}

// ExitEvent creates the terminal event for a child that exited with code
func ExitEvent(code int) Event {
	return Event{
		Kind:     EventExit,
		Text:     fmt.Sprintf("Process exited with code %d", code),
		ExitCode: code,
	}
}

// SkipNoticeEvent creates the note emitted when a candidate file already exists
func SkipNoticeEvent(name string) Event {
	return MessageEvent(fmt.Sprintf("Skipping %s, already exists.", name))
}

// IsTerminal reports whether the event ends the stream
func (e Event) IsTerminal() bool {
	return e.Kind == EventExit
}

// MarshalJSON encodes the event as an object with exactly one of the keys
// "message" or "error". Terminal events travel as messages.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == EventError {
		return json.Marshal(map[string]string{"error": e.Text})
	}
	return json.Marshal(map[string]string{"message": e.Text})
}

// UnmarshalJSON decodes a wire event. The terminal message is recognised by its text.
func (e *Event) UnmarshalJSON(data []byte) error {
	var wire struct {
		Message *string `json:"message"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch {
	case wire.Error != nil:
		*e = ErrorEvent(*wire.Error)
	case wire.Message != nil:
		*e = MessageEvent(*wire.Message)
		if m := exitPattern.FindStringSubmatch(*wire.Message); m != nil {
			if code, err := strconv.Atoi(m[1]); err == nil {
				*e = ExitEvent(code)
			}
		}
	default:
		return errors.New("event has neither message nor error")
	}
	return nil
}
