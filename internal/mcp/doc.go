// Package mcp implements the Model Context Protocol (MCP) server for codechunk.
//
// The server exposes four tools to AI coding assistants:
//   - chunk_file: Parse one Go file and return its labeled chunks
//   - index_repository: Chunk, embed and store a repository
//   - search_code: Semantic search over stored chunks
//   - get_status: Index statistics and provider information
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages only; logs go to stderr.
//
// # Basic Usage
//
//	codechunk serve --config codechunk.yaml
//
// # Tool: chunk_file
//
//	Request:
//	{
//	  "name": "chunk_file",
//	  "arguments": {"path": "/repo/internal/server.go", "max_chars": 800}
//	}
//
//	Response:
//	{
//	  "file": "/repo/internal/server.go",
//	  "package": "server",
//	  "chunk_count": 3,
//	  "chunks": [
//	    {"id": "/repo/internal/server.go::Server.Start+/repo/internal/server.go::helper",
//	     "text": "Function: Server.Start\n...", "type": "function", ...}
//	  ],
//	  "undersized": 1,
//	  "syntax_errors": 0
//	}
//
// Omitted options fall back to the configured chunking section.
//
// # Tool: index_repository
//
//	Request:
//	{
//	  "name": "index_repository",
//	  "arguments": {"path": "/repo", "include_tests": false}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 42,
//	  "files_skipped": 7,
//	  "chunks_created": 310,
//	  "chunks_by_type": {"function": 250, "import": 42, ...},
//	  "duration_ms": 1840
//	}
//
// Files whose content hash is unchanged are skipped; files that disappeared
// since the previous run are removed.
//
// # Tool: search_code
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "query": "open the sqlite database",
//	    "limit": 5,
//	    "types": ["function"],
//	    "file_pattern": "internal/**",
//	    "min_score": 0.2
//	  }
//	}
//
// Results are ordered by cosine similarity, clamped to [0, 1].
//
// # Tool: get_status
//
// Takes no arguments and reports file and chunk counts, the active embedding
// provider, the storage build mode and whether an indexing run is active.
//
// # Error Codes
//
//	-32602  Invalid parameters
//	-32603  Internal error
//	-32001  Path contains no Go sources
//	-32002  Indexing already in progress
//	-32003  Nothing indexed yet
//	-32004  Empty query
package mcp
