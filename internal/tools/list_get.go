package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListGetTool handles the al_list_get MCP tool. Reads bypass the guard:
// the lock is advisory and protects mutations only.
type ListGetTool struct {
	store actionlist.Store
}

// NewListGetTool creates a ListGetTool.
func NewListGetTool(store actionlist.Store) *ListGetTool {
	return &ListGetTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ListGetTool) Definition() mcp.Tool {
	return mcp.NewTool("al_list_get",
		mcp.WithDescription(
			"Read an action list and all its items.",
		),
		mcp.WithString("list_id",
			mcp.Required(),
			mcp.Description("ID of the list to read"),
		),
	)
}

// Handle processes the al_list_get tool call.
func (t *ListGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := req.GetString("list_id", "")
	if strings.TrimSpace(listID) == "" {
		return mcp.NewToolResultError("'list_id' is required"), nil
	}

	list, err := t.store.GetList(ctx, listID)
	if err != nil {
		if res := notFoundResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("reading action list: %w", err)
	}
	items, err := t.store.Items(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Action List\n\n%s\n## Items\n\n%s", formatList(list), formatItems(items),
	)), nil
}
