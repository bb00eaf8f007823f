package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/watcher"
)

const handlerSource = `package api

import "net/http"

type Handler struct{}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "nope", http.StatusTeapot)
}

var Version = "1"
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CODECHUNK_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSource(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "handler.go")
	require.NoError(t, os.WriteFile(path, []byte(handlerSource), 0o644))
	return dir, path
}

func TestChunkCommand_JSON(t *testing.T) {
	dir, _ := writeSource(t)

	out, err := runCLI(t, "chunk", dir, "--combine=false")
	require.NoError(t, err)

	var report chunkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Files)
	assert.Equal(t, len(report.Chunks), report.ChunkCount)
	require.NotEmpty(t, report.Chunks)
	assert.Equal(t, "handler.go::Handler.ServeHTTP", report.Chunks[0].ID)
	assert.NotEmpty(t, report.RunID)
}

func TestChunkCommand_YAML(t *testing.T) {
	_, path := writeSource(t)

	out, err := runCLI(t, "chunk", path, "--format", "yaml")
	require.NoError(t, err)

	var report chunkReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Files)
	// everything fits under the default ceiling and merges into one chunk
	assert.Len(t, report.Chunks, 1)
}

func TestChunkCommand_Errors(t *testing.T) {
	dir, _ := writeSource(t)

	_, err := runCLI(t, "chunk", dir, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCLI(t, "chunk", dir, "--max-chars", "0")
	assert.Error(t, err)

	_, err = runCLI(t, "chunk", filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func TestIndexAndSearchCommands(t *testing.T) {
	dir, _ := writeSource(t)
	t.Setenv("CODECHUNK_STORAGE_PATH", filepath.Join(t.TempDir(), "index.db"))

	out, err := runCLI(t, "index", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 indexed")

	out, err = runCLI(t, "search", "serve", "http", "handler", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "handler.go::")

	out, err = runCLI(t, "index", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 skipped")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "Build Mode:")
}

func TestLogLevelOverride(t *testing.T) {
	opts := &rootOptions{logLevel: "DEBUG"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts.logLevel = "loud"
	_, err = opts.loadConfig()
	assert.Error(t, err)
}

func TestRetryable(t *testing.T) {
	err := retryable(indexer.ErrIndexingInProgress)
	assert.ErrorIs(t, err, watcher.ErrRetryLater)
	assert.ErrorIs(t, err, indexer.ErrIndexingInProgress)

	plain := errors.New("parse failed")
	assert.Equal(t, plain, retryable(plain))
}
