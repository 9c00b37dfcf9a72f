package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// ItemAddTool handles the al_item_add MCP tool. Item mutations lock the
// parent list — the list is the unit of mutual exclusion, items are its
// children.
type ItemAddTool struct {
	store  actionlist.Store
	guard  *guard.Guard
	holder string
}

// NewItemAddTool creates an ItemAddTool.
func NewItemAddTool(store actionlist.Store, g *guard.Guard, holder string) *ItemAddTool {
	return &ItemAddTool{store: store, guard: g, holder: holder}
}

// Definition returns the MCP tool definition for registration.
func (t *ItemAddTool) Definition() mcp.Tool {
	return mcp.NewTool("al_item_add",
		mcp.WithDescription(
			"Append an item to an action list. The item is placed at the end; "+
				"positions are assigned automatically.",
		),
		mcp.WithString("list_id",
			mcp.Required(),
			mcp.Description("ID of the list to add the item to"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The actionable text, e.g. 'Update the changelog'"),
		),
	)
}

// Handle processes the al_item_add tool call.
func (t *ItemAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID := req.GetString("list_id", "")
	text := req.GetString("text", "")

	if strings.TrimSpace(listID) == "" {
		return mcp.NewToolResultError("'list_id' is required"), nil
	}
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required — describe the action"), nil
	}

	op := guard.Operation{
		Name:         "item_add",
		ResourceType: actionlist.ResourceType,
		ResourceID:   listID,
		Holder:       t.holder,
	}
	item, err := guard.Do(ctx, t.guard, op, func(ctx context.Context) (*actionlist.Item, error) {
		return t.store.AddItem(ctx, listID, text)
	})
	if err != nil {
		if res := lockedResult(err); res != nil {
			return res, nil
		}
		if res := notFoundResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("adding item: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Item Added\n\n- Item ID: `%s`\n- Position: %d\n- Text: %s\n",
		item.ID, item.Position, item.Text,
	)), nil
}
