package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// isCandidate reports whether a directory entry should be handed to the dispatcher.
func isCandidate(d fs.DirEntry) bool {
	return d.Type().IsRegular() && !IsHidden(d.Name())
}
