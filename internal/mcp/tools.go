package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the introspection tool API
func (s *Server) registerTools() {
	// Session Management (3 tools - both modes)
	s.registerDebugAttach()
	s.registerDebugDisconnect()
	s.registerDebugListSessions()

	// Inspection (4 tools - both modes)
	s.registerSessionInfo()
	s.registerStackTrace()
	s.registerFrameVariables()
	s.registerSnapshot()

	// Evaluation (full mode only)
	if s.config.CanEvaluate() {
		s.registerEvaluateExpression()
	}

	// Source Analysis (2 tools - both modes)
	s.registerFileStructure()
	s.registerFindSymbol()
}

// Session Management Tools

func (s *Server) registerDebugAttach() {
	tool := mcp.NewTool("debug_attach",
		mcp.WithDescription("Attach to a running debug adapter over TCP. The debuggee must already be started under a DAP-speaking debugger (e.g. 'dlv dap --listen' or a JDWP bridge). Returns a sessionId; the newest session becomes the default for inspection tools."),
		mcp.WithString("host",
			mcp.Description("Host address of the debug adapter (default: 127.0.0.1)"),
		),
		mcp.WithNumber("port",
			mcp.Required(),
			mcp.Description("Port the debug adapter is listening on"),
		),
		mcp.WithString("attachArgs",
			mcp.Description("JSON object of adapter-specific attach arguments, passed through verbatim (e.g. {\"mode\": \"local\", \"processId\": 1234})"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugAttach)
}

func (s *Server) registerDebugDisconnect() {
	tool := mcp.NewTool("debug_disconnect",
		mcp.WithDescription("Disconnect from a debug session. The debuggee keeps running; only the adapter connection is closed."),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("The session ID returned from debug_attach"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugDisconnect)
}

func (s *Server) registerDebugListSessions() {
	tool := mcp.NewTool("debug_list_sessions",
		mcp.WithDescription("List active debug sessions with their IDs and adapter addresses"),
	)
	s.mcpServer.AddTool(tool, s.handleDebugListSessions)
}

// Inspection Tools

func (s *Server) registerSessionInfo() {
	tool := mcp.NewTool("get_debug_session_info",
		mcp.WithDescription("Get the current debug session state: whether a session is active, whether the debuggee is suspended, the suspended thread's name and location, total thread count, and the suspend reason (breakpoint/step/unknown). Never fails; an absent or running session is reported through the flags."),
		mcp.WithString("sessionId",
			mcp.Description("Session to inspect. Defaults to the most recently attached session."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleSessionInfo)
}

func (s *Server) registerStackTrace() {
	tool := mcp.NewTool("get_current_stack_trace",
		mcp.WithDescription("Get the call stack of the suspended thread. Frame index 0 is the innermost frame. Each frame carries method, declaring class, source file, line, and whether it is user code. Requires a suspended debuggee."),
		mcp.WithNumber("maxFrames",
			mcp.Description("Maximum number of frames to return, counted from the innermost (default: 20)"),
		),
		mcp.WithString("sessionId",
			mcp.Description("Session to inspect. Defaults to the most recently attached session."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleStackTrace)
}

func (s *Server) registerFrameVariables() {
	tool := mcp.NewTool("get_frame_variables",
		mcp.WithDescription("Get the variables visible in one stack frame: locals, parameters, and the receiver ('this'). Unreadable values appear with '<unavailable: ...>' markers instead of failing the call. Requires a suspended debuggee."),
		mcp.WithNumber("frameIndex",
			mcp.Description("Stack frame to inspect; 0 is the innermost frame (default: 0). Use get_current_stack_trace for valid indices."),
		),
		mcp.WithBoolean("expandObjects",
			mcp.Description("Expand object values into child field records (default: false)"),
		),
		mcp.WithNumber("maxDepth",
			mcp.Description("How many levels deep object expansion goes (default: 2)"),
		),
		mcp.WithBoolean("includeLocals",
			mcp.Description("Include local variables (default: true)"),
		),
		mcp.WithBoolean("includeParameters",
			mcp.Description("Include method parameters (default: true)"),
		),
		mcp.WithBoolean("includeFields",
			mcp.Description("Include the receiver object (default: true)"),
		),
		mcp.WithString("sessionId",
			mcp.Description("Session to inspect. Defaults to the most recently attached session."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleFrameVariables)
}

func (s *Server) registerSnapshot() {
	tool := mcp.NewTool("get_debug_snapshot",
		mcp.WithDescription("Get a combined snapshot of the suspended session: state, call stack, and the innermost frame's variables in one call. Sections can be switched off individually. Requires a suspended debuggee."),
		mcp.WithBoolean("includeStackTrace",
			mcp.Description("Include the call stack (default: true)"),
		),
		mcp.WithBoolean("includeVariables",
			mcp.Description("Include the innermost frame's variables (default: true)"),
		),
		mcp.WithBoolean("expandObjects",
			mcp.Description("Expand object variables into child fields (default: false)"),
		),
		mcp.WithNumber("maxStackFrames",
			mcp.Description("Maximum number of stack frames to include (default: 20)"),
		),
		mcp.WithString("sessionId",
			mcp.Description("Session to inspect. Defaults to the most recently attached session."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleSnapshot)
}

// Evaluation Tools

func (s *Server) registerEvaluateExpression() {
	tool := mcp.NewTool("evaluate_expression",
		mcp.WithDescription("Evaluate an expression in the context of a stack frame and return the formatted result. Evaluation failures and timeouts are reported inside the result with the elapsed time, not as tool errors. Requires a suspended debuggee."),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("The expression to evaluate, in the debuggee's source language"),
		),
		mcp.WithNumber("frameIndex",
			mcp.Description("Stack frame providing the evaluation context; 0 is the innermost frame (default: 0)"),
		),
		mcp.WithNumber("timeoutMs",
			mcp.Description("Maximum time to wait for the result in milliseconds (default: 5000)"),
		),
		mcp.WithString("sessionId",
			mcp.Description("Session to evaluate in. Defaults to the most recently attached session."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleEvaluateExpression)
}

// Source Analysis Tools

func (s *Server) registerFileStructure() {
	tool := mcp.NewTool("get_file_structure",
		mcp.WithDescription("Get the outline of a Go source file: package, imports, types with their fields and methods, and top-level functions. Works without a debug session."),
		mcp.WithString("filePath",
			mcp.Required(),
			mcp.Description("Path to the source file, relative to the configured workspace root"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleFileStructure)
}

func (s *Server) registerFindSymbol() {
	tool := mcp.NewTool("find_symbol",
		mcp.WithDescription("Search the workspace for type, function, and method declarations whose name contains the query (case-insensitive). Works without a debug session."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Name or substring of the symbol to search for"),
		),
		mcp.WithString("kind",
			mcp.Description("Narrow results to 'type', 'function', or 'method'. Omit to match everything."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleFindSymbol)
}
