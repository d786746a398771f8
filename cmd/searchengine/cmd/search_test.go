package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vojkan-Cvijovic/searchengine/internal/indexing"
)

func writeTestConfig(t *testing.T, indexDir, watchDir string) string {
	t.Helper()
	content := fmt.Sprintf("index:\n  directory: %s\nwatch:\n  directory: %s\n", indexDir, watchDir)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSearchCmd_FindsConjunctiveMatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("alpha beta gamma"), 0o644))
	configPath := writeTestConfig(t, dir, dir)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{configPath, "alpha", "beta"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "doc.txt")
}

func TestSearchCmd_NoMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("alpha beta gamma"), 0o644))
	configPath := writeTestConfig(t, dir, dir)

	buf := &bytes.Buffer{}
	cmd := newSearchCmd()
	cmd.SetOut(buf)

	err := runSearch(context.Background(), cmd, configPath, []string{"nonexistentterm"})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No results")
}

func TestPrintSearchResults_TruncatesAtTen(t *testing.T) {
	results := make([]indexing.SearchResult, 15)
	for i := range results {
		results[i] = indexing.SearchResult{Path: fmt.Sprintf("f%d.go", i), Line: i + 1, Term: "x"}
	}

	buf := &bytes.Buffer{}
	printSearchResults(buf, []string{"x"}, results)

	assert.Contains(t, buf.String(), "... and 5 more")
}
