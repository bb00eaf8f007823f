package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/codechunk/internal/app"
	"github.com/dshills/codechunk/internal/logger"
)

const (
	// ServerName is the MCP server name
	ServerName = "codechunk"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server exposes the chunking, indexing and search components as MCP tools
type Server struct {
	mcp *server.MCPServer
	app *app.App
	log logger.Logger
}

// NewServer registers every tool against the given components. The caller
// keeps ownership of a and closes it after Serve returns.
func NewServer(a *app.App) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s := &Server{
		mcp: mcpServer,
		app: a,
		log: a.Log.With("component", "mcp"),
	}
	s.registerTools()

	return s
}

// Serve answers MCP requests on stdio until ctx is canceled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("MCP server ready, listening on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(chunkFileTool(), s.handleChunkFile)
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
