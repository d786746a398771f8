// Package filter decides whether a file is eligible for indexing or
// watching. It is grounded on the original engine's FileFilter, split into
// two distinct Policy instances (service vs. watcher) per the engine's
// deliberately unreconciled extension sets — see the design note on double
// file filters.
package filter

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the hard cap on indexable file size, in bytes.
// Files strictly larger than this are rejected; files exactly at the cap
// are accepted.
const DefaultMaxFileSize = 10 * 1024 * 1024

// ServiceExtensions is the broader, original-engine-derived extension set
// used by the indexing service when walking a directory tree directly.
var ServiceExtensions = []string{
	".txt", ".java", ".py", ".js", ".go", ".cpp", ".c", ".h", ".hpp",
	".xml", ".json", ".yml", ".yaml", ".properties", ".md", ".rst",
	".sql", ".sh", ".bat", ".ps1", ".gradle", ".mvn", ".pom",
}

// WatcherExtensions is the narrower extension set used by the filesystem
// watcher when deciding whether a create/modify event is worth acting on.
// It intentionally does not match ServiceExtensions: a directory that is
// watched may still be seeded by a one-shot index_directory call using the
// broader set, so files outside WatcherExtensions can be present in the
// index yet never trigger an incremental re-index on their own.
var WatcherExtensions = []string{
	".txt", ".md", ".java", ".py", ".js", ".go", ".sh", ".xml", ".json",
}

// Policy decides whether a given path should be indexed/watched.
type Policy struct {
	extensions  map[string]struct{}
	maxFileSize int64
}

// NewServicePolicy returns the indexing service's file filter.
func NewServicePolicy() *Policy {
	return newPolicy(ServiceExtensions, DefaultMaxFileSize)
}

// NewWatcherPolicy returns the filesystem watcher's file filter.
func NewWatcherPolicy() *Policy {
	return newPolicy(WatcherExtensions, DefaultMaxFileSize)
}

func newPolicy(extensions []string, maxFileSize int64) *Policy {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return &Policy{extensions: set, maxFileSize: maxFileSize}
}

// WithExtensions returns a copy of the policy using a custom extension set,
// for config-driven overrides.
func (p *Policy) WithExtensions(extensions []string) *Policy {
	return newPolicy(extensions, p.maxFileSize)
}

// WithMaxFileSize returns a copy of the policy using a custom size cap.
func (p *Policy) WithMaxFileSize(maxBytes int64) *Policy {
	clone := newPolicy(nil, maxBytes)
	clone.extensions = p.extensions
	return clone
}

// HasIndexableExtension reports whether path's extension is in the policy's
// set, case-insensitively.
func (p *Policy) HasIndexableExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := p.extensions[ext]
	return ok
}

// ShouldProcess reports whether path should be indexed/watched: it must
// exist, be a regular file, be at or under the size cap, and have an
// indexable extension.
func (p *Policy) ShouldProcess(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() > p.maxFileSize {
		return false
	}
	return p.HasIndexableExtension(path)
}
