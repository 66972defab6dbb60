package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/voitta-ai/jetbrains-voitta/internal/config"
	"github.com/voitta-ai/jetbrains-voitta/internal/mcp"
	"github.com/voitta-ai/jetbrains-voitta/internal/version"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	mode := flag.String("mode", "", "Capability mode: 'readonly' or 'full'")
	workspace := flag.String("workspace", "", "Workspace root for source analysis tools")
	showVersion := flag.Bool("version", false, "Show version and exit")
	help := flag.Bool("help", false, "Show help and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("voitta-mcp version %s\n", version.Version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags override the configuration file
	switch *mode {
	case "readonly":
		cfg.Mode = config.ModeReadOnly
	case "full":
		cfg.Mode = config.ModeFull
	case "":
	default:
		log.Fatalf("Unknown mode %q: expected 'readonly' or 'full'", *mode)
	}
	if *workspace != "" {
		cfg.Workspace = *workspace
	}

	// MCP clients own stdout; everything diagnostic goes to stderr.
	log.SetOutput(os.Stderr)

	// Create and start the server
	server := mcp.NewServer(cfg)

	checker := version.NewChecker()
	checker.CheckForUpdatesAsync()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Close()
		os.Exit(0)
	}()

	// Start serving via stdio
	log.Printf("voitta-mcp server starting (mode: %s)...", cfg.Mode)
	if err := server.ServeStdio(); err != nil {
		server.Close()
		log.Fatalf("Server error: %v", err)
	}
	server.Close()
}

func printHelp() {
	fmt.Println(`voitta-mcp: Live Debugger Introspection MCP Server

A Model Context Protocol (MCP) server that lets AI agents inspect a program
suspended under a debugger: session state, call stacks, frame variables, and
expression evaluation, plus static source analysis of the workspace.

USAGE:
    voitta-mcp [OPTIONS]

OPTIONS:
    -config <path>     Path to configuration file (JSON)
    -mode <mode>       Capability mode: 'readonly' or 'full'
    -workspace <path>  Workspace root for source analysis tools
    -version           Show version and exit
    -help              Show this help message

CONFIGURATION:
    Create a JSON configuration file to customize behavior:

    {
        "mode": "full",
        "allowAttach": true,
        "allowEvaluate": true,
        "maxStackFrames": 20,
        "maxDepth": 2,
        "maxFields": 10,
        "maxValueLength": 200,
        "workspace": "."
    }

MCP INTEGRATION:
    Add to your MCP client configuration:

    {
        "mcpServers": {
            "voitta-mcp": {
                "command": "voitta-mcp",
                "args": ["-mode", "full", "-workspace", "/path/to/project"]
            }
        }
    }

TOOLS:
    Session Management:
        debug_attach             Attach to a running debug adapter
        debug_disconnect         Disconnect from a session
        debug_list_sessions      List active sessions

    Inspection (read-only):
        get_debug_session_info   Coarse session state
        get_current_stack_trace  Call stack of the suspended thread
        get_frame_variables      Variables of one stack frame
        get_debug_snapshot       Combined state, stack, and variables

    Evaluation (full mode only):
        evaluate_expression      Evaluate an expression in a frame

    Source Analysis:
        get_file_structure       Outline of one Go source file
        find_symbol              Search workspace declarations

The server never controls execution: breakpoints, stepping, and resuming
stay with the IDE or client that launched the debuggee.

For more information, visit: https://github.com/voitta-ai/jetbrains-voitta`)
}
