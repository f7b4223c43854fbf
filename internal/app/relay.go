package app

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
	"github.com/playlistplunge/playlist-plunge/internal/infrastructure"
	"github.com/playlistplunge/playlist-plunge/pkg/logger"
)

// eventBuffer decouples child output timing from response write timing
const eventBuffer = 64

// Notifier is told when a run finishes
type Notifier interface {
	NotifyRunFinished(playlistURL string, exitCode int)
}

// Relay runs one yt-dlp child per request and turns its output into events
type Relay struct {
	config      *domain.DownloadConfig
	command     *infrastructure.YTDLPCommand
	runner      domain.ProcessRunner
	notifier    Notifier
	transcripts *infrastructure.TranscriptWriter
	logs        *logger.MultiLogger
	active      atomic.Int64
}

// NewRelay creates a new download relay.
// notifier and transcripts may be nil.
func NewRelay(
	config *domain.DownloadConfig,
	runner domain.ProcessRunner,
	notifier Notifier,
	transcripts *infrastructure.TranscriptWriter,
	logs *logger.MultiLogger,
) *Relay {
	return &Relay{
		config:      config,
		command:     infrastructure.NewYTDLPCommand(config),
		runner:      runner,
		notifier:    notifier,
		transcripts: transcripts,
		logs:        logs,
	}
}

// ActiveRuns returns the number of runs currently streaming
func (r *Relay) ActiveRuns() int64 {
	return r.active.Load()
}

// Start validates playlistURL and launches a run in the background.
// The returned channel carries every event of the run, ends with exactly one
// terminal event and is then closed. Cancelling ctx kills the child; events
// not yet delivered are dropped.
func (r *Relay) Start(ctx context.Context, playlistURL string) (<-chan domain.Event, error) {
	if strings.TrimSpace(playlistURL) == "" {
		return nil, domain.ErrInvalidInput
	}

	events := make(chan domain.Event, eventBuffer)
	r.active.Add(1)
	go func() {
		defer close(events)
		defer r.active.Add(-1)
		r.run(ctx, uuid.New().String(), playlistURL, events)
	}()
	return events, nil
}

func (r *Relay) run(ctx context.Context, runID, playlistURL string, events chan<- domain.Event) {
	started := time.Now()
	emit := func(ev domain.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	// Taken before the child starts so files from this run never count as existing
	snapshot, err := infrastructure.ScanExistingFiles(r.config.Dir)
	if err != nil {
		r.logs.LogError("Failed to snapshot download directory",
			zap.String("run_id", runID),
			zap.String("dir", r.config.Dir),
			zap.Error(err))
		emit(domain.ErrorEvent(err.Error()))
		emit(domain.ExitEvent(domain.LaunchFailureExitCode))
		return
	}

	if r.config.CookieFile != "" && !r.command.CookieFileUsable() {
		r.logs.General().Warn("Cookie file not found, downloading without it",
			zap.String("run_id", runID),
			zap.String("cookie_file", r.config.CookieFile))
	}

	binary := r.command.Binary()
	args := r.command.Args(playlistURL)
	cmdLine := r.command.CommandLine(playlistURL)

	r.logs.LogRelayEvent("run_started",
		zap.String("run_id", runID),
		zap.String("url", playlistURL),
		zap.String("command", cmdLine),
		zap.Int("existing_files", snapshot.Len()))

	transcript := r.openTranscript(runID, cmdLine)

	onStdout := func(line string) {
		if transcript != nil {
			transcript.Stdout(line)
		}
		emit(domain.MessageEvent(line))
		if name, ok := snapshot.SkipNotice(line); ok {
			r.logs.General().Info("Skipping existing file",
				zap.String("run_id", runID),
				zap.String("name", name))
			emit(domain.SkipNoticeEvent(name))
		}
	}
	onStderr := func(line string) {
		if transcript != nil {
			transcript.Stderr(line)
		}
		emit(domain.ErrorEvent(line))
	}

	exitCode, err := r.runner.Run(ctx, binary, args, onStdout, onStderr)
	if err != nil {
		r.logs.LogError("Downloader run failed",
			zap.String("run_id", runID),
			zap.String("binary", binary),
			zap.Error(err))
		emit(domain.ErrorEvent(err.Error()))
		exitCode = domain.LaunchFailureExitCode
	}

	if transcript != nil {
		if err := transcript.Close(exitCode); err != nil {
			r.logs.LogError("Failed to close transcript", zap.String("run_id", runID), zap.Error(err))
		}
	}

	emit(domain.ExitEvent(exitCode))

	fields := []zap.Field{
		zap.String("run_id", runID),
		zap.String("url", playlistURL),
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", time.Since(started)),
	}
	if ctx.Err() != nil {
		r.logs.LogRelayEvent("run_cancelled", append(fields, zap.String("reason", "client_disconnected"))...)
	} else {
		r.logs.LogRelayEvent("run_finished", fields...)
	}

	if r.notifier != nil {
		r.notifier.NotifyRunFinished(playlistURL, exitCode)
	}
}

func (r *Relay) openTranscript(runID, cmdLine string) *infrastructure.Transcript {
	if r.transcripts == nil {
		return nil
	}
	transcript, err := r.transcripts.Open(runID, cmdLine)
	if err != nil {
		r.logs.LogError("Failed to open transcript", zap.String("run_id", runID), zap.Error(err))
		return nil
	}
	return transcript
}
