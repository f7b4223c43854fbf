package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	serverBinary       = "plunge-server"
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

// isServerRunning checks if the server is responding to health checks
func isServerRunning(baseURL string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// findServerBinary looks next to the CLI binary first, then on PATH
func findServerBinary() (string, error) {
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), serverBinary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(serverBinary); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%s binary not found", serverBinary)
}

// startServerBackground starts the server as a detached background process
func startServerBackground() error {
	serverPath, err := findServerBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(serverPath, "serve")
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	go cmd.Wait()

	return nil
}

// waitForServerReady polls the server until it's ready or timeout
func waitForServerReady(baseURL string) error {
	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if isServerRunning(baseURL) {
			return nil
		}
		time.Sleep(serverPollInterval)
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}

// ensureServerRunning starts a local server unless one already answers at baseURL
func ensureServerRunning(baseURL string) error {
	if isServerRunning(baseURL) {
		return nil
	}

	fmt.Fprintln(os.Stderr, "Server not running, starting...")
	if err := startServerBackground(); err != nil {
		return err
	}
	return waitForServerReady(baseURL)
}
