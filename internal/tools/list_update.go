package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListUpdateTool handles the al_list_update MCP tool.
type ListUpdateTool struct {
	store  actionlist.Store
	guard  *guard.Guard
	holder string
}

// NewListUpdateTool creates a ListUpdateTool.
func NewListUpdateTool(store actionlist.Store, g *guard.Guard, holder string) *ListUpdateTool {
	return &ListUpdateTool{store: store, guard: g, holder: holder}
}

// Definition returns the MCP tool definition for registration.
func (t *ListUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("al_list_update",
		mcp.WithDescription(
			"Update an action list's title, description, or status. "+
				"Only the fields you pass are changed. The list is locked for "+
				"the duration of the update; a concurrent mutation is rejected "+
				"with a busy error rather than queued.",
		),
		mcp.WithString("list_id",
			mcp.Required(),
			mcp.Description("ID of the list to update"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum("active", "completed", "archived"),
		),
	)
}

// Handle processes the al_list_update tool call.
func (t *ListUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := req.GetString("list_id", "")
	if strings.TrimSpace(listID) == "" {
		return mcp.NewToolResultError("'list_id' is required"), nil
	}

	var update actionlist.ListUpdate
	if title := req.GetString("title", ""); title != "" {
		update.Title = &title
	}
	if description := req.GetString("description", ""); description != "" {
		update.Description = &description
	}
	if status := req.GetString("status", ""); status != "" {
		st := actionlist.Status(status)
		if err := actionlist.ValidateStatus(st); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		update.Status = &st
	}
	if err := update.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	op := guard.Operation{
		Name:         "list_update",
		ResourceType: actionlist.ResourceType,
		ResourceID:   listID,
		Holder:       t.holder,
	}
	list, err := guard.Do(ctx, t.guard, op, func(ctx context.Context) (*actionlist.List, error) {
		return t.store.UpdateList(ctx, listID, update)
	})
	if err != nil {
		if res := lockedResult(err); res != nil {
			return res, nil
		}
		if res := notFoundResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("updating action list: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Action List Updated\n\n%s", formatList(list),
	)), nil
}
