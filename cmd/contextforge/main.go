// ContextForge: shared action-list MCP server.
//
// An MCP server that lets multiple AI agent sessions manage the same
// action lists concurrently. Mutations are serialized per list with
// advisory locks and every change is recorded in an audit trail, so
// sessions never clobber each other's edits and every change is
// attributable afterward.
//
// Usage:
//
//	contextforge serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfconfig "github.com/jhardy82/ContextForge-Workv2-sub007/internal/config"
	cfserver "github.com/jhardy82/ContextForge-Workv2-sub007/internal/server"
	"github.com/mark3labs/mcp-go/server"
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
		fmt.Printf("contextforge v%s\n", cfserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg := cfconfig.FromEnv()

	s, cleanup, err := cfserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `ContextForge v%s — shared action-list MCP server

Usage:
  contextforge serve    Start the MCP server (stdio transport)

Environment:
  CONTEXTFORGE_DATA_DIR         Where the databases live (default ~/.contextforge)
  CONTEXTFORGE_AGENT_NAME       Base identity for locks and audit (default contextforge)
  CONTEXTFORGE_LOCK_TTL         Lock expiry, e.g. 5m; negative disables (default 5m)
  CONTEXTFORGE_EXECUTE_TIMEOUT  Per-mutation timeout, 0 disables (default 2m)
  CONTEXTFORGE_REDIS_ADDR       Optional Redis address for multi-server locking

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "contextforge": {
        "command": "contextforge",
        "args": ["serve"]
      }
    }
  }
`, cfserver.Version)
}
