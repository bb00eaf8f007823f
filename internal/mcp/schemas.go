package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/pkg/types"
)

func chunkTypeNames() []string {
	names := make([]string, len(types.AllChunkTypes))
	for i, t := range types.AllChunkTypes {
		names[i] = string(t)
	}
	return names
}

// chunkFileTool returns the tool definition for chunk_file
func chunkFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_file",
		Description: "Parse a Go source file and return its labeled, size-bounded chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a .go file",
				},
				"max_chars": map[string]interface{}{
					"type":        "integer",
					"description": "Chunk size ceiling in characters (defaults to the configured value)",
					"minimum":     1,
				},
				"min_chars": map[string]interface{}{
					"type":        "integer",
					"description": "Advisory lower bound in characters; undersized chunks are reported, never dropped",
					"minimum":     0,
				},
				"combine": map[string]interface{}{
					"type":        "boolean",
					"description": "Merge adjacent small chunks of the same file",
				},
				"split": map[string]interface{}{
					"type":        "boolean",
					"description": "Split chunks longer than max_chars on line boundaries",
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexRepositoryTool returns the tool definition for index_repository
func indexRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_repository",
		Description: "Chunk, embed and store every Go file under a directory; unchanged files are skipped",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root (must contain .go files)",
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index the vendor/ directory",
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Semantic search over indexed chunks with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or identifiers)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     searcher.DefaultLimit,
					"minimum":     1,
					"maximum":     searcher.MaxLimit,
				},
				"types": map[string]interface{}{
					"type":        "array",
					"description": "Only return chunks of these types",
					"items": map[string]interface{}{
						"type": "string",
						"enum": chunkTypeNames(),
					},
				},
				"file_pattern": map[string]interface{}{
					"type":        "string",
					"description": "Glob pattern for file paths (e.g., 'internal/**')",
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum relevance score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics and the active embedding provider",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
