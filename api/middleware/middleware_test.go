package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playlistplunge/playlist-plunge/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestLogs(t *testing.T) (*logger.MultiLogger, string) {
	t.Helper()
	dir := t.TempDir()
	logs, err := logger.NewMultiLogger(logger.MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { logs.Close() })
	return logs, dir
}

func TestCORS_AllowedOrigin(t *testing.T) {
	router := gin.New()
	router.Use(CORS("http://localhost:5173"))
	router.GET("/download", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/download?url=x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS("http://localhost:5173"))
	router.GET("/download", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/download", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Headers", "Cache-Control")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET,HEAD,OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Cache-Control", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORS_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(CORS(""))
	router.GET("/download", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	req.Header.Set("Origin", "http://evil.example")
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	logs, dir := newTestLogs(t)
	router := gin.New()
	router.Use(Recovery(logs))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())

	require.NoError(t, logs.Sync())
	entries, err := logger.NewLogReader(dir).ReadLogs(logger.CategoryError, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Panic recovered", entries[0].Message)
}

func TestLogger_WritesAccessLog(t *testing.T) {
	logs, dir := newTestLogs(t)
	router := gin.New()
	router.Use(Logger(logs))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, logs.Sync())

	entries, err := logger.NewLogReader(dir).ReadLogs(logger.CategoryAccess, time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HTTP request", entries[0].Message)
	assert.Equal(t, "access", entries[0].Category)
}
