package infrastructure

import (
	"fmt"
	"os"

	"github.com/playlistplunge/playlist-plunge/internal/domain"
)

// EnsureDir creates dir and its parents if absent
func EnsureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory not configured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ScanExistingFiles snapshots the base names of every entry in the download directory
func ScanExistingFiles(dir string) (domain.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read download directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return domain.NewSnapshot(names), nil
}
