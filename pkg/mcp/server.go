package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/mcp/tools"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/middleware"
)

// Server wraps the mcp-go MCPServer with the crosswalk toolset.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates a new MCP server instance. A panic inside a tool is
// reported to the caller as an error instead of killing the process.
func NewServer(name, version string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	return &Server{
		mcp:    mcpServer,
		logger: logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterTools installs every crosswalk tool.
func (s *Server) RegisterTools(deps *tools.MappingToolDeps) {
	if deps.Logger == nil {
		deps.Logger = s.logger
	}
	tools.RegisterAll(s.mcp, deps)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// Handler is the /mcp endpoint with tool-call logging.
func (s *Server) Handler() http.Handler {
	return middleware.MCPRequestLogger(s.logger)(s.NewStreamableHTTPServer())
}
