package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/voitta-ai/jetbrains-voitta/internal/debug"
	"github.com/voitta-ai/jetbrains-voitta/internal/errors"
	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

// Session Management Handlers

func (s *Server) handleDebugAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.config.CanAttach() {
		return mcp.NewToolResultError(errors.PermissionDenied("attach", string(s.config.Mode)).Error()), nil
	}

	portF, err := request.RequireFloat("port")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("port",
			"Specify the TCP port the debug adapter is listening on, e.g. the port passed to 'dlv dap --listen'.").Error()), nil
	}
	port := int(portF)
	if port <= 0 || port > 65535 {
		return mcp.NewToolResultError(errors.InvalidParameter("port", port, "a TCP port between 1 and 65535").Error()), nil
	}

	host := request.GetString("host", "127.0.0.1")

	var attachArgs map[string]interface{}
	if raw := request.GetString("attachArgs", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &attachArgs); err != nil {
			return mcp.NewToolResultError(errors.InvalidParameter("attachArgs", raw, "a JSON object of adapter-specific attach arguments").Error()), nil
		}
	}

	session, err := s.sessions.Attach(host, port, attachArgs)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": session.ID,
		"status":    "attached",
		"address":   session.Address,
	})
}

func (s *Server) handleDebugDisconnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("sessionId",
			"Provide the sessionId returned from debug_attach. Use debug_list_sessions to see active sessions.").Error()), nil
	}

	if err := s.sessions.Disconnect(sessionID); err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"status":    "disconnected",
	})
}

func (s *Server) handleDebugListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions := s.sessions.List()

	list := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		list = append(list, map[string]interface{}{
			"sessionId": session.ID,
			"address":   session.Address,
			"createdAt": session.CreatedAt.Format(time.RFC3339),
		})
	}

	return jsonResult(map[string]interface{}{
		"sessions": list,
		"count":    len(list),
	})
}

// Inspection Handlers

func (s *Server) handleSessionInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.sessionFromRequest(request)
	if err != nil {
		// Session info never fails: no session is reported as inactive state.
		return jsonResult(types.SessionState{})
	}

	return jsonResult(session.State())
}

func (s *Server) handleStackTrace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.sessionFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	maxFrames := int(request.GetFloat("maxFrames", 0))
	frames, err := session.CaptureStack(maxFrames)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"frames":     frames,
		"frameCount": len(frames),
	})
}

func (s *Server) handleFrameVariables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.sessionFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	frameIndex := int(request.GetFloat("frameIndex", 0))

	opts := debug.DefaultCollectOptions()
	opts.IncludeLocals = request.GetBool("includeLocals", true)
	opts.IncludeParameters = request.GetBool("includeParameters", true)
	opts.IncludeFields = request.GetBool("includeFields", true)
	opts.Expand = request.GetBool("expandObjects", false)
	if depth := int(request.GetFloat("maxDepth", 0)); depth > 0 {
		opts.MaxDepth = depth
	}

	vars, err := session.FrameVariables(frameIndex, opts)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"frameIndex": frameIndex,
		"variables":  vars,
	})
}

func (s *Server) handleSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.sessionFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	opts := debug.SnapshotOptions{
		IncludeStackTrace: request.GetBool("includeStackTrace", true),
		IncludeVariables:  request.GetBool("includeVariables", true),
		ExpandObjects:     request.GetBool("expandObjects", false),
		MaxStackFrames:    int(request.GetFloat("maxStackFrames", 0)),
	}

	snapshot, err := session.Snapshot(opts)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(snapshot)
}

// Evaluation Handlers

func (s *Server) handleEvaluateExpression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.config.CanEvaluate() {
		return mcp.NewToolResultError(errors.PermissionDenied("evaluate", string(s.config.Mode)).Error()), nil
	}

	expression, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("expression",
			"Provide the expression to evaluate in the debuggee's source language, e.g. 'user.getName()' or 'len(items)'.").Error()), nil
	}

	session, err := s.sessionFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	frameIndex := int(request.GetFloat("frameIndex", 0))
	timeout := time.Duration(request.GetFloat("timeoutMs", 0)) * time.Millisecond

	result, err := session.Evaluate(frameIndex, expression, timeout)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(result)
}

// Source Analysis Handlers

func (s *Server) handleFileStructure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("filePath")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("filePath",
			"Provide the path to a Go source file, relative to the configured workspace root.").Error()), nil
	}

	structure, err := s.analyzer.FileStructure(filePath)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(structure)
}

func (s *Server) handleFindSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("symbol",
			"Provide the name (or a substring) of the type, function, or method to search for.").Error()), nil
	}

	kind := request.GetString("kind", "")
	matches, err := s.analyzer.FindSymbol(symbol, kind)
	if err != nil {
		return mcp.NewToolResultError(errors.FromError(err).Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// Helper functions

// sessionFromRequest resolves the optional sessionId parameter, defaulting to
// the most recently attached session.
func (s *Server) sessionFromRequest(request mcp.CallToolRequest) (*debug.Session, error) {
	if sessionID := request.GetString("sessionId", ""); sessionID != "" {
		return s.sessions.Get(sessionID)
	}
	return s.sessions.Current()
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
