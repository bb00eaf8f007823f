package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound    = -32001 // Specified path does not contain Go sources
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Nothing has been indexed yet
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

// maxReportedErrors bounds the per-file errors echoed back to the client
const maxReportedErrors = 5

// handleChunkFile handles the chunk_file tool invocation
func (s *Server) handleChunkFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validateSourceFile(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	opts := s.app.Config.Chunking
	opts.MaxCharactersPerChunk = getIntDefault(args, "max_chars", opts.MaxCharactersPerChunk)
	opts.MinCharactersPerChunk = getIntDefault(args, "min_chars", opts.MinCharactersPerChunk)
	opts.Combine = getBoolDefault(args, "combine", opts.Combine)
	opts.Split = getBoolDefault(args, "split", opts.Split)

	c, err := chunker.New(opts)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid chunk options", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	result, err := s.app.Parser.ParseFile(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to parse file", map[string]interface{}{
			"error": err.Error(),
		})
	}

	file := filepath.ToSlash(path)
	chunks := c.ChunkFile(result.Analysis(file))

	undersized := 0
	for _, chunk := range chunks {
		if c.IsUndersized(chunk) {
			undersized++
		}
	}

	response := map[string]interface{}{
		"file":          file,
		"package":       result.PackageName,
		"chunks":        chunks,
		"chunk_count":   len(chunks),
		"undersized":    undersized,
		"syntax_errors": len(result.Errors),
	}
	s.log.Debug("chunked file", "file", file, "chunks", len(chunks))

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexRepository handles the index_repository tool invocation
func (s *Server) handleIndexRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		code := ErrorCodeInvalidParams
		if errors.Is(err, ErrNoGoFiles) {
			code = ErrorCodeProjectNotFound
		}
		return nil, newMCPError(code, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	config := s.app.Config.Indexing
	config.IncludeTests = getBoolDefault(args, "include_tests", config.IncludeTests)
	config.IncludeVendor = getBoolDefault(args, "include_vendor", config.IncludeVendor)

	stats, err := s.app.IndexRepository(ctx, path, &config)
	if err != nil {
		return nil, newMCPError(indexErrorCode(err), "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":        true,
		"run_id":         stats.RunID,
		"module":         stats.Module,
		"files_indexed":  stats.FilesIndexed,
		"files_skipped":  stats.FilesSkipped,
		"files_failed":   stats.FilesFailed,
		"files_removed":  stats.FilesRemoved,
		"chunks_created": stats.ChunksCreated,
		"chunks_by_type": stats.ChunksByType,
		"undersized":     stats.Undersized,
		"duration_ms":    stats.Duration.Milliseconds(),
	}

	if errorCount := len(stats.ErrorMessages); errorCount > 0 {
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", searcher.DefaultLimit)
	if limit < 1 || limit > searcher.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	filter := &storage.Filter{
		FilePattern: getStringDefault(args, "file_pattern", ""),
		MinScore:    getFloatDefault(args, "min_score", 0),
		Types:       getStringSlice(args, "types"),
	}

	status, err := s.app.Store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read index status", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if status.Chunks == 0 {
		return nil, newMCPError(ErrorCodeNotIndexed, "nothing indexed yet; run index_repository first", nil)
	}

	resp, err := s.app.Searcher.Search(ctx, searcher.Request{
		Query:  query,
		Limit:  limit,
		Filter: filter,
	})
	if err != nil {
		code := ErrorCodeInternalError
		if isInvalidSearch(err) {
			code = ErrorCodeInvalidParams
		}
		return nil, newMCPError(code, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       resp.Results,
		"total_results": resp.TotalResults,
		"duration_ms":   resp.Duration.Milliseconds(),
		"cache_hit":     resp.CacheHit,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.app.Store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	lastIndexed := ""
	if !status.LastIndexedAt.IsZero() {
		lastIndexed = status.LastIndexedAt.Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"indexed":     status.Chunks > 0,
		"in_progress": s.app.Indexer.IsIndexing(),
		"statistics": map[string]interface{}{
			"files_count":     status.Files,
			"chunks_count":    status.Chunks,
			"chunks_by_type":  status.ChunksByType,
			"index_size_mb":   fmt.Sprintf("%.2f", status.IndexSizeMB),
			"last_indexed_at": lastIndexed,
		},
		"embedding": map[string]interface{}{
			"provider":         s.app.Embedder.Provider(),
			"model":            s.app.Embedder.Model(),
			"dimension":        s.app.Embedder.Dimension(),
			"stored_providers": status.Providers,
		},
		"storage": map[string]interface{}{
			"build_mode":       status.BuildMode,
			"driver":           storage.DriverName,
			"vector_extension": storage.VectorExtensionAvailable,
			"search_cache":     s.app.Searcher.CacheLen(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// indexErrorCode maps an indexer failure to its protocol error code
func indexErrorCode(err error) int {
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return ErrorCodeIndexingInProgress
	}
	return ErrorCodeInternalError
}

// isInvalidSearch reports whether a search failed on caller input
func isInvalidSearch(err error) bool {
	return errors.Is(err, searcher.ErrEmptyQuery) ||
		errors.Is(err, types.ErrInvalidChunkType) ||
		errors.Is(err, storage.ErrInvalidFilter)
}

// validatePath checks that path is an absolute, readable directory holding Go files
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Stop at the first Go file
	errFound := errors.New("found")
	walkErr := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(p, ".go") {
			return errFound
		}
		return nil
	})
	if !errors.Is(walkErr, errFound) {
		return ErrNoGoFiles
	}

	return nil
}

// validateSourceFile checks that path is an absolute, existing .go file
func validateSourceFile(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}
	if !strings.HasSuffix(path, ".go") {
		return ErrNotGoFile
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if info.IsDir() {
		return ErrNotGoFile
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a numeric parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	switch val := args[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter; non-string items are skipped
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoGoFiles       = errors.New("directory does not contain Go files")
	ErrNotGoFile       = errors.New("path is not a .go file")
)
