// Package index implements the thread-safe inverted index: a term -> set of
// FileLocation mapping plus per-file metadata, with a single reader/writer
// lock guarding the whole structure as one logical resource. Grounded on the
// original engine's ThreadSafeIndex.
package index

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/token"
)

// FileLocation identifies a single occurrence of a term: the file it was
// found in and the 1-based line number.
type FileLocation struct {
	Path string
	Line int
}

// FileMetadata tracks size/mtime/term-count bookkeeping for an indexed file.
type FileMetadata struct {
	Size          int64
	ModTime       time.Time
	TotalTerms    int
	DistinctTerms int
}

// Stats is a point-in-time snapshot of index-wide counters.
type Stats struct {
	TotalTerms  int
	UniqueTerms int
	FileCount   int
}

// Index is the thread-safe inverted index. The zero value is not usable;
// construct with New.
type Index struct {
	mu sync.RWMutex

	// termToLocations maps a normalized term to the set of locations it
	// occurs at, across all indexed files.
	termToLocations map[string]map[FileLocation]struct{}

	// fileToTerms is the reverse index: for each indexed file, the set of
	// distinct normalized terms it contributed. This lets removeFile and
	// replaceTerms undo a file's contribution in O(terms-in-file) instead of
	// scanning every term in the index.
	fileToTerms map[string]map[string]struct{}

	fileMetadata map[string]FileMetadata

	totalTerms int
	generation atomic.Uint64
}

// New creates an empty Index.
func New() *Index {
	return &Index{
		termToLocations: make(map[string]map[FileLocation]struct{}),
		fileToTerms:     make(map[string]map[string]struct{}),
		fileMetadata:    make(map[string]FileMetadata),
	}
}

// Generation returns the index's current mutation generation. It increases
// monotonically on every mutating operation (AddTerms, ReplaceTerms,
// RemoveFile, Clear) and is used by callers such as the search-result cache
// to detect staleness without taking the index's lock.
func (idx *Index) Generation() uint64 {
	return idx.generation.Load()
}

// AddTerms adds the terms found in toks to the index under path, without
// removing any terms already indexed for that file. Use ReplaceTerms when
// path has been indexed before and its full term set should be replaced
// atomically.
func (idx *Index) AddTerms(path string, toks []token.Token) error {
	if path == "" {
		return engerrors.ValidationError("path cannot be empty", nil)
	}

	locations := locationsFromTokens(path, toks)
	if len(locations) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.addLocked(path, locations)
	idx.bumpGenerationLocked()
	return nil
}

// ReplaceTerms atomically replaces path's contribution to the index with the
// terms found in toks: within a single write-lock acquisition, every
// location previously indexed for path is removed and the new locations are
// inserted. Callers never observe a state with neither the old nor the new
// terms present.
func (idx *Index) ReplaceTerms(path string, toks []token.Token) error {
	if path == "" {
		return engerrors.ValidationError("path cannot be empty", nil)
	}

	locations := locationsFromTokens(path, toks)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(path)
	idx.addLocked(path, locations)
	idx.bumpGenerationLocked()
	return nil
}

// AddMetadata records (or overwrites) the metadata for an indexed file.
func (idx *Index) AddMetadata(path string, meta FileMetadata) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.fileMetadata[path] = meta
	idx.bumpGenerationLocked()
}

// GetMetadata returns the metadata recorded for path, if any.
func (idx *Index) GetMetadata(path string) (FileMetadata, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	meta, ok := idx.fileMetadata[path]
	return meta, ok
}

// RemoveFile removes every term contributed by path along with its
// metadata. It reports whether anything was actually removed so callers can
// distinguish "removed" from "was never indexed" without a separate lookup.
func (idx *Index) RemoveFile(path string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removedTerms := idx.removeFileLocked(path)
	_, hadMetadata := idx.fileMetadata[path]
	delete(idx.fileMetadata, path)

	removed := removedTerms > 0 || hadMetadata
	if removed {
		idx.bumpGenerationLocked()
	}
	return removed
}

// Clear empties the index entirely.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.termToLocations = make(map[string]map[FileLocation]struct{})
	idx.fileToTerms = make(map[string]map[string]struct{})
	idx.fileMetadata = make(map[string]FileMetadata)
	idx.totalTerms = 0
	idx.bumpGenerationLocked()
}

// FindAll returns the line-granularity conjunctive (AND) intersection of
// terms' postings: a FileLocation is returned only if every term in terms
// occurs on that exact line. This is file-granularity-surprising by design:
// two terms each appearing in the same file but never on the same line
// produce no match. Terms are normalized (trimmed, lowercased) the same way
// as at index time; an empty or all-blank term list returns no results.
func (idx *Index) FindAll(terms []string) ([]FileLocation, error) {
	normalized := normalizeTerms(terms)
	if len(normalized) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var result map[FileLocation]struct{}
	for i, term := range normalized {
		locs, ok := idx.termToLocations[term]
		if !ok || len(locs) == 0 {
			return nil, nil
		}
		if i == 0 {
			result = make(map[FileLocation]struct{}, len(locs))
			for loc := range locs {
				result[loc] = struct{}{}
			}
			continue
		}
		for loc := range result {
			if _, ok := locs[loc]; !ok {
				delete(result, loc)
			}
		}
		if len(result) == 0 {
			return nil, nil
		}
	}

	out := make([]FileLocation, 0, len(result))
	for loc := range result {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Line < out[j].Line
	})
	return out, nil
}

// TotalTerms returns the total number of term occurrences indexed (sum of
// posting-set sizes across all terms).
func (idx *Index) TotalTerms() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.totalTerms
}

// UniqueTerms returns the number of distinct terms in the index.
func (idx *Index) UniqueTerms() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.termToLocations)
}

// FileCount returns the number of distinct files contributing terms to the
// index, per fileToTerms rather than fileMetadata, so a file whose metadata
// add failed (but whose terms were indexed) still counts.
func (idx *Index) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.fileToTerms)
}

// IsEmpty reports whether the index has no terms at all.
func (idx *Index) IsEmpty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.termToLocations) == 0
}

// GetStats returns a snapshot of index-wide counters.
func (idx *Index) GetStats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return Stats{
		TotalTerms:  idx.totalTerms,
		UniqueTerms: len(idx.termToLocations),
		FileCount:   len(idx.fileToTerms),
	}
}

// addLocked inserts locations under path. Caller must hold idx.mu for write.
func (idx *Index) addLocked(path string, locations map[string]map[int]struct{}) {
	terms, ok := idx.fileToTerms[path]
	if !ok {
		terms = make(map[string]struct{})
		idx.fileToTerms[path] = terms
	}

	for term, lines := range locations {
		set, ok := idx.termToLocations[term]
		if !ok {
			set = make(map[FileLocation]struct{})
			idx.termToLocations[term] = set
		}
		terms[term] = struct{}{}
		for line := range lines {
			loc := FileLocation{Path: path, Line: line}
			if _, exists := set[loc]; !exists {
				set[loc] = struct{}{}
				idx.totalTerms++
			}
		}
	}
}

// removeFileLocked removes every location contributed by path and returns
// how many locations were removed. Caller must hold idx.mu for write.
func (idx *Index) removeFileLocked(path string) int {
	terms, ok := idx.fileToTerms[path]
	if !ok {
		return 0
	}

	removed := 0
	for term := range terms {
		set, ok := idx.termToLocations[term]
		if !ok {
			continue
		}
		for loc := range set {
			if loc.Path == path {
				delete(set, loc)
				removed++
			}
		}
		if len(set) == 0 {
			delete(idx.termToLocations, term)
		}
	}

	delete(idx.fileToTerms, path)
	idx.totalTerms -= removed
	return removed
}

func (idx *Index) bumpGenerationLocked() {
	idx.generation.Add(1)
}

// locationsFromTokens groups a token slice into normalized-term -> set of
// line numbers, dropping invalid (blank-after-trim) terms. Grouping and
// normalization happen outside any lock, matching the original index's
// filter-then-lock discipline.
func locationsFromTokens(path string, toks []token.Token) map[string]map[int]struct{} {
	out := make(map[string]map[int]struct{})
	for _, tok := range toks {
		term := normalizeTerm(tok.Value)
		if term == "" {
			continue
		}
		lines, ok := out[term]
		if !ok {
			lines = make(map[int]struct{})
			out[term] = lines
		}
		lines[tok.Line] = struct{}{}
	}
	_ = path
	return out
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		n := normalizeTerm(t)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
