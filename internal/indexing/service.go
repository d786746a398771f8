// Package indexing implements the indexing pipeline: reading files,
// tokenizing them, and mutating the inverted index, plus the AND-search
// entry point and its result cache. Grounded on the original engine's
// SimpleTextIndexingService.
package indexing

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	engerrors "github.com/Vojkan-Cvijovic/searchengine/internal/errors"
	"github.com/Vojkan-Cvijovic/searchengine/internal/filter"
	"github.com/Vojkan-Cvijovic/searchengine/internal/index"
	"github.com/Vojkan-Cvijovic/searchengine/internal/token"
	"github.com/Vojkan-Cvijovic/searchengine/internal/tokenizer"
)

// directoryFanOutLimit bounds concurrent per-file indexing during
// IndexDirectory, mirroring the engine's ~4-worker pool sizing.
const directoryFanOutLimit = 4

// searchCacheSize is the number of distinct term-sets whose results are
// cached at once.
const searchCacheSize = 128

// SearchResult is a single match returned by SearchAll: the location of a
// matching line plus the query that produced it and the containing file's
// size, grounded on the original engine's SearchResult record.
type SearchResult struct {
	Path     string
	Line     int
	Term     string
	FileSize int64
}

type cacheEntry struct {
	generation uint64
	results    []SearchResult
}

// Service is the indexing pipeline: it owns an Index, a Tokenizer, a file
// filter, performance metrics, and a generation-aware search-result cache.
type Service struct {
	index      *index.Index
	tokenizer  tokenizer.Tokenizer
	fileFilter *filter.Policy
	metrics    *Metrics
	logger     *slog.Logger

	indexedFiles sync.Map // path (string) -> struct{}, mirrors the original's tracked-files set

	cacheMu sync.Mutex
	cache   *lru.Cache[string, cacheEntry]

	retryConfig engerrors.RetryConfig
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithIndex overrides the backing Index, e.g. to share one across
// components or inject a test double.
func WithIndex(idx *index.Index) Option {
	return func(s *Service) { s.index = idx }
}

// WithFileFilter overrides the service's file filter. The indexing service
// defaults to the broader filter.NewServicePolicy() set.
func WithFileFilter(p *filter.Policy) Option {
	return func(s *Service) { s.fileFilter = p }
}

// WithLogger overrides the service's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRetryConfig overrides the retry policy used for file reads and stats.
func WithRetryConfig(cfg engerrors.RetryConfig) Option {
	return func(s *Service) { s.retryConfig = cfg }
}

// NewService constructs a Service backed by a fresh Index and the given
// tokenizer.
func NewService(tok tokenizer.Tokenizer, opts ...Option) *Service {
	cache, _ := lru.New[string, cacheEntry](searchCacheSize)

	s := &Service{
		index:       index.New(),
		tokenizer:   tok,
		fileFilter:  filter.NewServicePolicy(),
		metrics:     NewMetrics(),
		logger:      slog.Default(),
		cache:       cache,
		retryConfig: engerrors.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the service's backing Index.
func (s *Service) Index() *index.Index {
	return s.index
}

// Metrics returns the service's performance metrics.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// IndexFile indexes a single file, returning whether indexing succeeded.
// Indexing can "fail" without an error (unsupported extension, empty file,
// no valid terms) or with one (I/O exhausted its retries); both forms
// return false, but only the latter also returns a non-nil error.
func (s *Service) IndexFile(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, engerrors.ValidationError("file path cannot be empty", nil)
	}

	if !s.validateFileForIndexing(path) {
		return false, nil
	}

	start := time.Now()
	success, err := s.processFileContent(ctx, path)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Error("failed to index file", "path", path, "error", err)
		return false, err
	}
	if success {
		s.metrics.RecordFileIndexed(elapsed)
		s.logger.Info("indexed file", "path", path)
	} else {
		s.logger.Info("skipped file", "path", path)
	}
	return success, nil
}

func (s *Service) validateFileForIndexing(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("file does not exist", "path", path)
		return false
	}
	if !info.Mode().IsRegular() {
		s.logger.Warn("path is not a regular file", "path", path)
		return false
	}
	if !s.fileFilter.ShouldProcess(path) {
		s.logger.Info("skipping unsupported file", "path", path)
		return false
	}
	return true
}

func (s *Service) processFileContent(ctx context.Context, path string) (bool, error) {
	content, err := s.readAndValidateFileContent(ctx, path)
	if err != nil {
		return false, err
	}
	if content == nil {
		return false, nil
	}

	toks, err := s.tokenizer.Tokenize(*content)
	if err != nil {
		return false, engerrors.ValidationError(fmt.Sprintf("tokenize %s", path), err)
	}
	if len(toks) == 0 {
		s.logger.Info("no valid terms found in file", "path", path)
		return false, nil
	}

	if err := s.processTokensAndUpdateIndex(path, toks); err != nil {
		return false, err
	}
	s.createAndAddFileMetadata(ctx, path, toks)

	s.indexedFiles.Store(path, struct{}{})
	s.invalidateCache()
	return true, nil
}

func (s *Service) readAndValidateFileContent(ctx context.Context, path string) (*string, error) {
	content, ok := engerrors.RetryOrAbsent(ctx, s.retryConfig, func() (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", engerrors.IOError(fmt.Sprintf("read file %s", path), err)
		}
		return string(b), nil
	})
	if !ok {
		return nil, engerrors.IOError(fmt.Sprintf("exhausted retries reading %s", path), nil)
	}
	if strings.TrimSpace(content) == "" {
		s.logger.Info("skipping empty file", "path", path)
		return nil, nil
	}
	return &content, nil
}

// processTokensAndUpdateIndex decides whether path is a known file (and so
// should atomically replace its prior terms) or a new one (and so only
// needs terms added), mirroring the original service's indexedFiles.contains
// check.
func (s *Service) processTokensAndUpdateIndex(path string, toks []token.Token) error {
	if _, known := s.indexedFiles.Load(path); known {
		return s.index.ReplaceTerms(path, toks)
	}
	return s.index.AddTerms(path, toks)
}

func (s *Service) createAndAddFileMetadata(ctx context.Context, path string, toks []token.Token) {
	info, ok := engerrors.RetryOrAbsent(ctx, s.retryConfig, func() (os.FileInfo, error) {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, engerrors.IOError(fmt.Sprintf("stat file %s", path), err)
		}
		return fi, nil
	})
	if !ok {
		s.logger.Error("failed to read file attributes for metadata", "path", path)
		return
	}

	distinct := make(map[string]struct{}, len(toks))
	for _, tk := range toks {
		distinct[strings.ToLower(strings.TrimSpace(tk.Value))] = struct{}{}
	}

	s.index.AddMetadata(path, index.FileMetadata{
		Size:          info.Size(),
		ModTime:       info.ModTime(),
		TotalTerms:    len(toks),
		DistinctTerms: len(distinct),
	})
}

// IndexDirectory recursively walks dirPath and indexes every file the
// service's filter accepts, fanning out across a bounded worker pool, and
// returns the count of files successfully indexed.
func (s *Service) IndexDirectory(ctx context.Context, dirPath string) (int, error) {
	if dirPath == "" {
		return 0, engerrors.ValidationError("directory path cannot be empty", nil)
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		s.logger.Warn("directory does not exist", "path", dirPath)
		return 0, nil
	}
	if !info.IsDir() {
		s.logger.Warn("path is not a directory", "path", dirPath)
		return 0, nil
	}

	var files []string
	walkErr := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("failed to visit path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if s.fileFilter.HasIndexableExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return 0, engerrors.IOError(fmt.Sprintf("walk directory %s", dirPath), walkErr)
	}

	s.logger.Info("found files to index", "count", len(files), "directory", dirPath)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(directoryFanOutLimit)

	var mu sync.Mutex
	successCount := 0

	for _, f := range files {
		f := f
		g.Go(func() error {
			ok, err := s.IndexFile(gctx, f)
			if err != nil {
				return nil // a single file's I/O failure does not abort the directory walk
			}
			if ok {
				mu.Lock()
				successCount++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("batch indexing completed", "indexed", successCount, "total", len(files))
	return successCount, nil
}

// RemoveFile removes a previously indexed file and reports whether
// anything was actually removed.
func (s *Service) RemoveFile(path string) bool {
	if path == "" {
		return false
	}

	_, wasKnown := s.indexedFiles.LoadAndDelete(path)
	removed := s.index.RemoveFile(path)
	if removed || wasKnown {
		s.logger.Info("removed file from index", "path", path)
		s.invalidateCache()
		return true
	}
	s.logger.Info("file not found in index", "path", path)
	return false
}

// SearchAll performs a conjunctive (AND) search across terms, serving a
// cached result when the index generation hasn't moved since it was
// computed.
func (s *Service) SearchAll(terms []string) ([]SearchResult, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() { s.metrics.RecordSearchQuery(time.Since(start)) }()

	key := cacheKey(terms)
	generation := s.index.Generation()

	s.cacheMu.Lock()
	if entry, ok := s.cache.Get(key); ok && entry.generation == generation {
		s.cacheMu.Unlock()
		return entry.results, nil
	}
	s.cacheMu.Unlock()

	locations, err := s.index.FindAll(terms)
	if err != nil {
		s.logger.Error("error during AND search", "terms", terms, "error", err)
		return nil, err
	}

	results := s.convertToSearchResults(locations, strings.Join(terms, " AND "))

	s.cacheMu.Lock()
	s.cache.Add(key, cacheEntry{generation: generation, results: results})
	s.cacheMu.Unlock()

	s.logger.Info("search completed", "terms", terms, "results", len(results))
	return results, nil
}

func (s *Service) convertToSearchResults(locations []index.FileLocation, term string) []SearchResult {
	if len(locations) == 0 {
		return nil
	}

	results := make([]SearchResult, 0, len(locations))
	for _, loc := range locations {
		var fileSize int64
		if meta, ok := s.index.GetMetadata(loc.Path); ok {
			fileSize = meta.Size
		}
		results = append(results, SearchResult{
			Path:     loc.Path,
			Line:     loc.Line,
			Term:     term,
			FileSize: fileSize,
		})
	}
	return results
}

func (s *Service) invalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// cacheKey builds a deterministic cache key from a term list: sorted and
// normalized the same way the Index itself normalizes terms, so two
// differently-ordered or differently-cased queries with the same meaning
// share one cache slot.
func cacheKey(terms []string) string {
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		n := strings.ToLower(strings.TrimSpace(t))
		if n != "" {
			normalized = append(normalized, n)
		}
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "\x00")
}
