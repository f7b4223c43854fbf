package infrastructure

import (
	"os"
	"path/filepath"

	"github.com/alessio/shellescape"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

// YTDLPCommand builds yt-dlp invocations for playlist downloads
type YTDLPCommand struct {
	config *domain.DownloadConfig
}

// NewYTDLPCommand creates a new yt-dlp command builder
func NewYTDLPCommand(config *domain.DownloadConfig) *YTDLPCommand {
	return &YTDLPCommand{config: config}
}

// Binary returns the yt-dlp executable
func (c *YTDLPCommand) Binary() string {
	if c.config.YTDLPBinary == "" {
		return "yt-dlp"
	}
	return c.config.YTDLPBinary
}

// CookieFileUsable reports whether a cookie file is configured and present
func (c *YTDLPCommand) CookieFileUsable() bool {
	return c.config.CookieFile != "" && fileExists(c.config.CookieFile)
}

// Args returns the arguments that download every item of playlistURL into the
// download directory, one file per item, continuing past failed items and
// never overwriting post-processed files.
// exec.Command passes them straight to the process, so no shell quoting is needed.
func (c *YTDLPCommand) Args(playlistURL string) []string {
	template := c.config.OutputTemplate
	if template == "" {
		template = "%(title)s.%(ext)s"
	}

	var args []string
	if c.CookieFileUsable() {
		args = append(args, "--cookies", c.config.CookieFile)
	}
	args = append(args,
		"--progress",
		"--no-post-overwrites",
		"--ignore-errors",
		"-o", filepath.Join(c.config.Dir, template),
	)
	args = append(args, c.config.ExtraArgs...)

	// "--" keeps a URL starting with "-" from being read as an option
	return append(args, "--", playlistURL)
}

// CommandLine renders the full invocation for logs
func (c *YTDLPCommand) CommandLine(playlistURL string) string {
	return shellescape.QuoteCommand(append([]string{c.Binary()}, c.Args(playlistURL)...))
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
