package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/locking"
	"github.com/mark3labs/mcp-go/mcp"
)

// LockStatusTool handles the al_lock_status MCP tool. It reports the
// in-process lock table; when the server runs on a shared Redis lock
// store the composition root skips registering this tool.
type LockStatusTool struct {
	registry *locking.Registry
}

// NewLockStatusTool creates a LockStatusTool over the given registry.
func NewLockStatusTool(registry *locking.Registry) *LockStatusTool {
	return &LockStatusTool{registry: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *LockStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("al_lock_status",
		mcp.WithDescription(
			"Show which action lists are currently locked, by whom, and since "+
				"when. Useful for diagnosing 'busy' errors.",
		),
	)
}

// Handle processes the al_lock_status tool call.
func (t *LockStatusTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := t.registry.Snapshot()
	if len(entries) == 0 {
		return mcp.NewToolResultText("No resources are currently locked."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Current Locks (%d)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s `%s` held by **%s** since %s\n",
			e.ResourceType, e.ResourceID, e.Holder, e.AcquiredAt.UTC().Format("15:04:05 MST"))
	}
	return mcp.NewToolResultText(b.String()), nil
}
