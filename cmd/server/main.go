package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/playlistplunge/playlist-plunge/api"
	"github.com/playlistplunge/playlist-plunge/api/handlers"
	"github.com/playlistplunge/playlist-plunge/internal/app"
	"github.com/playlistplunge/playlist-plunge/internal/domain"
	"github.com/playlistplunge/playlist-plunge/internal/infrastructure"
	"github.com/playlistplunge/playlist-plunge/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "plunge-server",
		Short: "Playlist Plunge server - streams yt-dlp playlist downloads over HTTP",
		RunE:  runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE:  runServe,
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file path")
	flags.String("host", "", "Listen host")
	flags.Int("port", 0, "Listen port")
	flags.String("dir", "", "Download directory")
	flags.String("cookies", "", "yt-dlp cookie file")
	flags.String("ytdlp", "", "yt-dlp executable")
	flags.String("origin", "", "Allowed browser client origin")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Console log format (console, json)")
	flags.String("logs-dir", "", "Directory for structured logs and transcripts")
	flags.Bool("notify", false, "Send a desktop notification when a run finishes")
	flags.Bool("transcripts", true, "Write raw downloader output to transcript files")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := app.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
		General: log,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer multiLog.Close()

	if err := infrastructure.EnsureDir(config.Download.Dir); err != nil {
		return err
	}

	log.Info("Starting Playlist Plunge server",
		zap.String("version", handlers.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("download_dir", config.Download.Dir),
		zap.String("logs_dir", config.Logging.LogsDir),
		zap.String("allowed_origin", config.CORS.AllowedOrigin))

	relay := newRelay(config, log, multiLog)

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(relay, multiLog, config.CORS.AllowedOrigin)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}

	log.Info("Shutting down server...")

	// Streams only end with their runs, so cut them off after the timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server forced to shutdown", zap.Error(err))
		server.Close()
	}

	log.Info("Server exited", zap.Int64("active_runs", relay.ActiveRuns()))
	return nil
}

func newRelay(config *domain.Config, log *zap.Logger, multiLog *logger.MultiLogger) *app.Relay {
	notifier := infrastructure.NewNotificationService(&config.Notification, log)

	var transcripts *infrastructure.TranscriptWriter
	if config.Download.Transcripts {
		transcripts = infrastructure.NewTranscriptWriter(config.Logging.LogsDir)
	}

	return app.NewRelay(&config.Download, infrastructure.NewExecRunner(), notifier, transcripts, multiLog)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	config, err := app.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	path := filepath.Join(os.Getenv("HOME"), ".playlist-plunge", "config.yaml")
	if len(args) == 1 {
		path = args[0]
	}

	if err := app.SaveConfig(config, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
