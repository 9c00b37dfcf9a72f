package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// ItemCompleteTool handles the al_item_complete MCP tool.
type ItemCompleteTool struct {
	store  actionlist.Store
	guard  *guard.Guard
	holder string
}

// NewItemCompleteTool creates an ItemCompleteTool.
func NewItemCompleteTool(store actionlist.Store, g *guard.Guard, holder string) *ItemCompleteTool {
	return &ItemCompleteTool{store: store, guard: g, holder: holder}
}

// Definition returns the MCP tool definition for registration.
func (t *ItemCompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("al_item_complete",
		mcp.WithDescription(
			"Mark an action-list item as done. Completing an already-done "+
				"item is a no-op, not an error.",
		),
		mcp.WithString("list_id",
			mcp.Required(),
			mcp.Description("ID of the list the item belongs to"),
		),
		mcp.WithString("item_id",
			mcp.Required(),
			mcp.Description("ID of the item to complete"),
		),
	)
}

// Handle processes the al_item_complete tool call.
func (t *ItemCompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := req.GetString("list_id", "")
	itemID := req.GetString("item_id", "")

	if strings.TrimSpace(listID) == "" || strings.TrimSpace(itemID) == "" {
		return mcp.NewToolResultError("'list_id' and 'item_id' are required"), nil
	}

	op := guard.Operation{
		Name:         "item_complete",
		ResourceType: actionlist.ResourceType,
		ResourceID:   listID,
		SubjectID:    itemID,
		Holder:       t.holder,
	}
	item, err := guard.Do(ctx, t.guard, op, func(ctx context.Context) (*actionlist.Item, error) {
		return t.store.CompleteItem(ctx, listID, itemID)
	})
	if err != nil {
		if res := lockedResult(err); res != nil {
			return res, nil
		}
		if res := notFoundResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("completing item: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Item Completed\n\n- Item ID: `%s`\n- Text: %s\n", item.ID, item.Text,
	)), nil
}
