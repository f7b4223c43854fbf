package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

// Relay starts playlist runs and reports how many are in flight
type Relay interface {
	Start(ctx context.Context, playlistURL string) (<-chan domain.Event, error)
	ActiveRuns() int64
}

// DownloadHandler streams playlist runs to the browser as server-sent events
type DownloadHandler struct {
	relay  Relay
	logger *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(relay Relay, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		relay:  relay,
		logger: logger,
	}
}

// Download handles GET /download?url=
func (h *DownloadHandler) Download(c *gin.Context) {
	playlistURL := c.Query("url")

	// The run is tied to the request: a client disconnect cancels the context and kills the child
	events, err := h.relay.Start(c.Request.Context(), playlistURL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.String(http.StatusBadRequest, "Playlist URL is required.")
			return
		}
		h.logger.Error("Failed to start run", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to start download.")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		if err := writeFrame(w, ev); err != nil {
			h.logger.Debug("Client went away mid-stream", zap.Error(err))
			return false
		}
		return !ev.IsTerminal()
	})
}

// writeFrame writes one event as a "data: <json>" frame
func writeFrame(w io.Writer, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
