package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListCreateTool handles the al_list_create MCP tool.
// Creation has no per-list lock target yet, so it serializes on the
// catalog key instead — two sessions creating lists at once is safe but
// still leaves an ordered audit trail.
type ListCreateTool struct {
	store  actionlist.Store
	guard  *guard.Guard
	holder string
}

// NewListCreateTool creates a ListCreateTool.
func NewListCreateTool(store actionlist.Store, g *guard.Guard, holder string) *ListCreateTool {
	return &ListCreateTool{store: store, guard: g, holder: holder}
}

// Definition returns the MCP tool definition for registration.
func (t *ListCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("al_list_create",
		mcp.WithDescription(
			"Create a new action list. Returns the new list's ID, which all "+
				"item tools and further list mutations require.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title for the list, e.g. 'Release 2.4 checklist'"),
		),
		mcp.WithString("description",
			mcp.Description("Optional longer description of the list's purpose"),
		),
	)
}

// Handle processes the al_list_create tool call.
func (t *ListCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	description := req.GetString("description", "")

	if strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("'title' is required — give the list a short name"), nil
	}

	op := guard.Operation{
		Name:         "list_create",
		ResourceType: actionlist.ResourceType,
		ResourceID:   CatalogResourceID,
		Holder:       t.holder,
	}
	list, err := guard.Do(ctx, t.guard, op, func(ctx context.Context) (*actionlist.List, error) {
		return t.store.CreateList(ctx, title, description)
	})
	if err != nil {
		if res := lockedResult(err); res != nil {
			return res, nil
		}
		return nil, fmt.Errorf("creating action list: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Action List Created\n\n%s\nAdd items with `al_item_add` using this list ID.",
		formatList(list),
	)), nil
}
