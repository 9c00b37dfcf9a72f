package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListOverviewTool handles the al_list_overview MCP tool.
type ListOverviewTool struct {
	store actionlist.Store
}

// NewListOverviewTool creates a ListOverviewTool.
func NewListOverviewTool(store actionlist.Store) *ListOverviewTool {
	return &ListOverviewTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListOverviewTool) Definition() mcp.Tool {
	return mcp.NewTool("al_list_overview",
		mcp.WithDescription(
			"List action lists, newest first. Defaults to active lists; pass "+
				"a status to see completed or archived ones, or 'all' for everything.",
		),
		mcp.WithString("status",
			mcp.Description("Filter: active (default), completed, archived, or all"),
			mcp.Enum("active", "completed", "archived", "all"),
		),
	)
}

// Handle processes the al_list_overview tool call.
func (t *ListOverviewTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "active")

	var filter actionlist.Status
	if status != "all" {
		filter = actionlist.Status(status)
		if err := actionlist.ValidateStatus(filter); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	lists, err := t.store.ListLists(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing action lists: %w", err)
	}

	if len(lists) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No %s action lists. Create one with `al_list_create`.", status,
		)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Action Lists (%s)\n\n", status)
	for _, l := range lists {
		fmt.Fprintf(&b, "- **%s** (`%s`) — %s, updated %s\n", l.Title, l.ID, l.Status, l.UpdatedAt)
	}
	return mcp.NewToolResultText(b.String()), nil
}
