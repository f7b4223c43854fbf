package domain

import "errors"

// ErrInvalidInput is returned when the playlist identifier is missing.
// No stream is opened and no process is spawned.
var ErrInvalidInput = errors.New("playlist URL is required")
