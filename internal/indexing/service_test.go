package indexing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vojkan-Cvijovic/searchengine/internal/tokenizer"
)

func newTestService() *Service {
	return NewService(tokenizer.NewWordTokenizer())
}

func TestService_IndexFile_IndexesSupportedFile(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	ok, err := s.IndexFile(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Index().FileCount())
}

func TestService_IndexFile_SkipsUnsupportedExtension(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	ok, err := s.IndexFile(context.Background(), path)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Index().FileCount())
}

func TestService_IndexFile_SkipsEmptyFile(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n  "), 0o644))

	ok, err := s.IndexFile(context.Background(), path)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_IndexFile_SkipsMissingFile(t *testing.T) {
	s := newTestService()

	ok, err := s.IndexFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_IndexFile_ReplacesTermsOnReIndex(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := s.IndexFile(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new"), 0o644))
	_, err = s.IndexFile(context.Background(), path)
	require.NoError(t, err)

	results, err := s.SearchAll([]string{"old"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = s.SearchAll([]string{"new"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestService_IndexDirectory_IndexesMatchingFilesRecursively(t *testing.T) {
	s := newTestService()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.bin"), []byte("ignored"), 0o644))

	count, err := s.IndexDirectory(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestService_IndexDirectory_ReturnsZeroForMissingDirectory(t *testing.T) {
	s := newTestService()

	count, err := s.IndexDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"))

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_RemoveFile_RemovesIndexedFile(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := s.IndexFile(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, s.RemoveFile(path))
	assert.False(t, s.RemoveFile(path))
}

func TestService_SearchAll_ReturnsEmptyForNoTerms(t *testing.T) {
	s := newTestService()

	results, err := s.SearchAll(nil)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_SearchAll_ServesCachedResultsUntilGenerationChanges(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := s.IndexFile(context.Background(), path)
	require.NoError(t, err)

	first, err := s.SearchAll([]string{"hello"})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second identical query should hit the cache and return an == slice
	// of results computed from the same generation.
	second, err := s.SearchAll([]string{"HELLO"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other := filepath.Join(t.TempDir(), "b.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello again"), 0o644))
	_, err = s.IndexFile(context.Background(), other)
	require.NoError(t, err)

	third, err := s.SearchAll([]string{"hello"})
	require.NoError(t, err)
	assert.Len(t, third, 2)
}

func TestService_SearchAll_IncludesFileSizeFromMetadata(t *testing.T) {
	s := newTestService()
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := s.IndexFile(context.Background(), path)
	require.NoError(t, err)

	results, err := s.SearchAll([]string{"hello"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Positive(t, results[0].FileSize)
	assert.Equal(t, "hello", results[0].Term)
}
