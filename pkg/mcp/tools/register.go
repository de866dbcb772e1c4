package tools

import "github.com/mark3labs/mcp-go/server"

// RegisterAll registers every crosswalk tool.
func RegisterAll(s *server.MCPServer, deps *MappingToolDeps) {
	RegisterMappingTools(s, deps)
	RegisterCatalogTools(s, deps)
	RegisterStatsTool(s, deps)
	RegisterHealthTool(s, deps)
}
