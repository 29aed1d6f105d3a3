// SDD-Recall: persistent context index MCP server
//
// An MCP server that gives AI coding tools (Claude Code, OpenCode,
// Gemini CLI, Codex, Cursor, VS Code Copilot) persistent memory across
// sessions: it indexes markdown documentation, todo checklists, and
// session journals as embeddings and retrieves the relevant context at
// session start.
//
// Usage:
//
//	recall serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	recallserver "github.com/HendryAvila/sdd-recall/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("recall v%s\n", recallserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := recallserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// ServeStdio handles SIGINT/SIGTERM itself and returns when the
	// transport closes; cleanup runs on the way out.
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `SDD-Recall v%s — persistent context index MCP server

Usage:
  recall serve    Start the MCP server (stdio transport)

Configuration:
  Settings load from $RECALL_CONFIG (or ~/.recall/config.yaml), with
  RECALL_DATA_DIR, RECALL_EMBED_URL, RECALL_EMBED_MODEL, and
  RECALL_EMBED_DIMENSIONS overriding individual values.

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "recall": {
        "command": "recall",
        "args": ["serve"]
      }
    }
  }

Requires an Ollama instance serving the embedding model (default:
nomic-embed-text at http://localhost:11434).
`, recallserver.Version)
}
