package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "plunge",
		Short: "Playlist Plunge CLI - download whole playlists with yt-dlp",
		Long:  `A command-line client for the Playlist Plunge server. It starts a playlist download and streams the downloader's output.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringP("date", "d", "", "Log date (YYYY-MM-DD), defaults to today")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries")
	logsCmd.Flags().StringP("search", "s", "", "Only show entries containing this text")
}

// ensureServer starts the server if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// exitCodeError carries the downloader's exit status out of a command
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("downloader exited with code %d", e.code)
}

var downloadCmd = &cobra.Command{
	Use:   "download [playlist-url]",
	Short: "Download every item of a playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureServer()

		// Interrupting the CLI closes the stream, which stops the download on the server
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			serverURL+"/download?url="+url.QueryEscape(args[0]), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/event-stream")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("%s", body)
		}

		code, err := renderStream(resp.Body, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if code != 0 {
			return exitCodeError{code: code}
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(serverURL + "/health")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var health struct {
			Status     string `json:"status"`
			Version    string `json:"version"`
			ActiveRuns int64  `json:"active_runs"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Server Status:")
		fmt.Fprintf(cmd.OutOrStdout(), "  Status:      %s\n", health.Status)
		fmt.Fprintf(cmd.OutOrStdout(), "  Version:     %s\n", health.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  Active runs: %d\n", health.ActiveRuns)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:       "logs [access|relay|error]",
	Short:     "Show server log entries",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"access", "relay", "error"},
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")

		endpoint := serverURL + "/api/v1/logs/" + args[0]
		query := url.Values{}
		query.Set("limit", fmt.Sprint(limit))
		if date != "" {
			query.Set("date", date)
		}
		if search != "" {
			endpoint += "/search"
			query.Set("q", search)
		}

		resp, err := http.Get(endpoint + "?" + query.Encode())
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var result struct {
			Error   string `json:"error"`
			Entries []struct {
				Timestamp string `json:"timestamp"`
				Level     string `json:"level"`
				Message   string `json:"message"`
				RunID     string `json:"run_id"`
				URL       string `json:"url"`
			} `json:"entries"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s", result.Error)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tLEVEL\tMESSAGE\tRUN\tURL")
		for _, e := range result.Entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Timestamp, e.Level, e.Message, truncate(e.RunID, 8), truncate(e.URL, 40))
		}
		return w.Flush()
	},
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(exitCodeError); ok {
			os.Exit(exitErr.code)
		}
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
