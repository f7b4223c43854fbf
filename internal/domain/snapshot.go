package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

// candidatePattern finds a run of word, space or hyphen characters directly
// before a .mp4 or .mkv extension. The match is leftmost, so the run that
// reaches the extension is the one immediately preceding it.
var candidatePattern = regexp.MustCompile(`(?i)([\w\s-]+)\.(?:mp4|mkv)`)

// Snapshot is the set of output file base names present in the download
// directory when a request started.
type Snapshot map[string]struct{}

// NewSnapshot builds a snapshot from file names, stripping the final extension
func NewSnapshot(fileNames []string) Snapshot {
	s := make(Snapshot, len(fileNames))
	for _, name := range fileNames {
		s[BaseName(name)] = struct{}{}
	}
	return s
}

// Contains reports whether name is an existing base name
func (s Snapshot) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of base names in the snapshot
func (s Snapshot) Len() int {
	return len(s)
}

// BaseName returns the file name without its final extension
func BaseName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ExtractCandidate pulls a best-effort output file name out of a line of
// downloader output. A miss is a normal outcome.
func ExtractCandidate(line string) (string, bool) {
	m := candidatePattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return "", false
	}
	return name, true
}

// SkipNotice returns the name to report as already downloaded, if the line
// mentions a file from the snapshot. It only annotates; it never stops a download.
func (s Snapshot) SkipNotice(line string) (string, bool) {
	name, ok := ExtractCandidate(line)
	if !ok || !s.Contains(name) {
		return "", false
	}
	return name, true
}
