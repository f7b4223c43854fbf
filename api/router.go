package api

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playlistplunge/playlist-plunge/api/handlers"
	"github.com/playlistplunge/playlist-plunge/api/middleware"
	"github.com/playlistplunge/playlist-plunge/pkg/logger"
	"github.com/playlistplunge/playlist-plunge/web"
)

// SetupRouter sets up the HTTP router
func SetupRouter(relay handlers.Relay, logs *logger.MultiLogger, allowedOrigin string) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logs))
	router.Use(middleware.Recovery(logs))
	router.Use(middleware.CORS(allowedOrigin))

	// Health endpoint
	healthHandler := handlers.NewHealthHandler(relay)
	router.GET("/health", healthHandler.Health)

	// Download streams
	downloadHandler := handlers.NewDownloadHandler(relay, logs.General())
	router.GET("/download", downloadHandler.Download)
	socketHandler := handlers.NewDownloadSocketHandler(relay, allowedOrigin, logs.General())
	router.GET("/ws/download", socketHandler.HandleWebSocket)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		logHandler := handlers.NewLogHandler(logs.LogsDir())
		logRoutes := v1.Group("/logs")
		{
			logRoutes.GET("/categories", logHandler.GetCategories)
			logRoutes.GET("/:category", logHandler.GetLogs)
			logRoutes.GET("/:category/search", logHandler.SearchLogs)
		}
	}

	// Embedded browser client
	staticFS := web.GetStaticFS()
	router.GET("/", func(c *gin.Context) {
		serveFile(c, staticFS, "index.html")
	})
	router.GET("/static/*filepath", func(c *gin.Context) {
		serveFile(c, staticFS, strings.TrimPrefix(c.Param("filepath"), "/"))
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

// serveFile serves a file from the embedded filesystem with its content type
func serveFile(c *gin.Context, staticFS fs.FS, filePath string) {
	file, err := staticFS.Open(filePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to read file: %v", err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, content)
}
