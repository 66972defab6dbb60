// Package mcp provides the Model Context Protocol (MCP) server implementation.
//
// This package exposes live-debugger introspection through MCP tools for AI
// assistants and other MCP clients:
//
// Session Management (always available):
//   - debug_attach: Attach to a running debug adapter
//   - debug_disconnect: Disconnect from a session
//   - debug_list_sessions: List active sessions
//
// Inspection (always available):
//   - get_debug_session_info: Coarse session state
//   - get_current_stack_trace: Call stack of the suspended thread
//   - get_frame_variables: Variables of one stack frame
//   - get_debug_snapshot: Combined state, stack, and top-frame variables
//
// Evaluation (full mode only):
//   - evaluate_expression: Evaluate an expression in a frame's context
//
// Source Analysis (always available):
//   - get_file_structure: Outline of one Go source file
//   - find_symbol: Search workspace declarations by name
//
// The inspection surface is deliberately read-only: breakpoints, stepping,
// and resuming belong to whichever IDE or client controls the debuggee.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/voitta-ai/jetbrains-voitta/internal/analysis"
	"github.com/voitta-ai/jetbrains-voitta/internal/config"
	"github.com/voitta-ai/jetbrains-voitta/internal/debug"
	"github.com/voitta-ai/jetbrains-voitta/internal/version"
)

// Server wraps the MCP server with debugger introspection capabilities
type Server struct {
	mcpServer *server.MCPServer
	sessions  *debug.Manager
	analyzer  *analysis.Analyzer
	config    *config.Config
}

// NewServer creates a new voitta-mcp server
func NewServer(cfg *config.Config) *Server {
	mcpServer := server.NewMCPServer(
		"voitta-mcp",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer: mcpServer,
		sessions:  debug.NewManager(cfg),
		analyzer:  analysis.New(cfg.Workspace),
		config:    cfg,
	}

	s.registerTools()

	return s
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the server and disconnects every session
func (s *Server) Close() {
	s.sessions.Close()
}

// GetSessionManager returns the session manager
func (s *Server) GetSessionManager() *debug.Manager {
	return s.sessions
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}
