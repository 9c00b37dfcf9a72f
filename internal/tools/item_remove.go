package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// ItemRemoveTool handles the al_item_remove MCP tool.
type ItemRemoveTool struct {
	store  actionlist.Store
	guard  *guard.Guard
	holder string
}

// NewItemRemoveTool creates an ItemRemoveTool.
func NewItemRemoveTool(store actionlist.Store, g *guard.Guard, holder string) *ItemRemoveTool {
	return &ItemRemoveTool{store: store, guard: g, holder: holder}
}

// Definition returns the MCP tool definition for registration.
func (t *ItemRemoveTool) Definition() mcp.Tool {
	return mcp.NewTool("al_item_remove",
		mcp.WithDescription(
			"Remove an item from an action list permanently. Positions of the "+
				"remaining items are unchanged.",
		),
		mcp.WithString("list_id",
			mcp.Required(),
			mcp.Description("ID of the list the item belongs to"),
		),
		mcp.WithString("item_id",
			mcp.Required(),
			mcp.Description("ID of the item to remove"),
		),
	)
}

// Handle processes the al_item_remove tool call.
func (t *ItemRemoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := req.GetString("list_id", "")
	itemID := req.GetString("item_id", "")

	if strings.TrimSpace(listID) == "" || strings.TrimSpace(itemID) == "" {
		return mcp.NewToolResultError("'list_id' and 'item_id' are required"), nil
	}

	op := guard.Operation{
		Name:         "item_remove",
		ResourceType: actionlist.ResourceType,
		ResourceID:   listID,
		SubjectID:    itemID,
		Holder:       t.holder,
	}
	_, err := guard.Do(ctx, t.guard, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.store.RemoveItem(ctx, listID, itemID)
	})
	if err != nil {
		if res := lockedResult(err); res != nil {
			return res, nil
		}
		if res := notFoundResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("removing item: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Item Removed\n\n- Item ID: `%s`\n", itemID,
	)), nil
}
