package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// DownloadSocketHandler relays playlist runs over a WebSocket, one JSON text
// message per event, for clients that cannot use server-sent events.
type DownloadSocketHandler struct {
	relay    Relay
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewDownloadSocketHandler creates a new WebSocket download handler.
// Cross-origin upgrades are accepted only from allowedOrigin.
func NewDownloadSocketHandler(relay Relay, allowedOrigin string, logger *zap.Logger) *DownloadSocketHandler {
	return &DownloadSocketHandler{
		relay:  relay,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, allowedOrigin)
			},
		},
	}
}

// HandleWebSocket handles GET /ws/download?url=
func (h *DownloadSocketHandler) HandleWebSocket(c *gin.Context) {
	playlistURL := c.Query("url")
	if strings.TrimSpace(playlistURL) == "" {
		c.String(http.StatusBadRequest, "Playlist URL is required.")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	// A hijacked connection no longer cancels the request context, so the reader does it
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	events, err := h.relay.Start(ctx, playlistURL)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, domain.ErrInvalidInput) {
			msg = "Playlist URL is required."
		}
		h.writeClose(conn, websocket.ClosePolicyViolation, msg)
		return
	}

	h.logger.Info("WebSocket client connected",
		zap.String("url", playlistURL),
		zap.String("remote_addr", c.Request.RemoteAddr))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("Failed to send event", zap.Error(err))
				return
			}
			if ev.IsTerminal() {
				h.writeClose(conn, websocket.CloseNormalClosure, "")
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}

		case <-done:
			// Keep draining so the run can observe the cancellation and finish
			for range events {
			}
			return
		}
	}
}

func (h *DownloadSocketHandler) writeClose(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil {
		h.logger.Debug("Failed to send close frame", zap.Error(err))
	}
}

// originAllowed accepts same-origin requests, requests without an Origin
// header and the configured browser client.
func originAllowed(r *http.Request, allowedOrigin string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if allowedOrigin != "" && origin == allowedOrigin {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
