package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListArchiveTool handles the al_list_archive MCP tool.
type ListArchiveTool struct {
	store  actionlist.Store
	guard  *guard.Guard
	holder string
}

// NewListArchiveTool creates a ListArchiveTool.
func NewListArchiveTool(store actionlist.Store, g *guard.Guard, holder string) *ListArchiveTool {
	return &ListArchiveTool{store: store, guard: g, holder: holder}
}

// Definition returns the MCP tool definition for registration.
func (t *ListArchiveTool) Definition() mcp.Tool {
	return mcp.NewTool("al_list_archive",
		mcp.WithDescription(
			"Archive an action list. Archived lists stay readable but drop "+
				"out of the default overview. Archiving is terminal for both "+
				"finished and abandoned lists.",
		),
		mcp.WithString("list_id",
			mcp.Required(),
			mcp.Description("ID of the list to archive"),
		),
	)
}

// Handle processes the al_list_archive tool call.
func (t *ListArchiveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := req.GetString("list_id", "")
	if strings.TrimSpace(listID) == "" {
		return mcp.NewToolResultError("'list_id' is required"), nil
	}

	op := guard.Operation{
		Name:         "list_archive",
		ResourceType: actionlist.ResourceType,
		ResourceID:   listID,
		Holder:       t.holder,
	}
	list, err := guard.Do(ctx, t.guard, op, func(ctx context.Context) (*actionlist.List, error) {
		return t.store.ArchiveList(ctx, listID)
	})
	if err != nil {
		if res := lockedResult(err); res != nil {
			return res, nil
		}
		if res := notFoundResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("archiving action list: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Action List Archived\n\n%s", formatList(list),
	)), nil
}
