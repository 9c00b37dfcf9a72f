// Package tools implements the MCP tool handlers for the action-list
// server.
//
// Each tool is a struct that receives its dependencies at construction
// and exposes Definition() for registration plus Handle() matching
// mcp-go's handler signature. Read tools hit the store directly; every
// mutating tool runs through the guard, which serializes mutators per
// list and writes the audit trail.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/actionlist"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/guard"
	"github.com/mark3labs/mcp-go/mcp"
)

// CatalogResourceID is the lock key for operations on the list catalog
// itself (creation), where no per-list id exists yet. The underscore
// keeps it out of the UUID namespace real lists live in.
const CatalogResourceID = "_catalog"

// lockedResult converts a lock rejection into the user-facing conflict
// message. Returns nil when err is not a lock rejection.
func lockedResult(err error) *mcp.CallToolResult {
	var lockErr *guard.LockedError
	if !errors.As(err, &lockErr) {
		return nil
	}
	return mcp.NewToolResultError(fmt.Sprintf(
		"%s %q is currently being modified by another session — try again shortly.",
		lockErr.ResourceType, lockErr.ResourceID,
	))
}

// notFoundResult converts a missing list/item into a tool error result.
// Returns nil for other errors, which callers propagate as real errors.
func notFoundResult(err error) *mcp.CallToolResult {
	if errors.Is(err, actionlist.ErrListNotFound) || errors.Is(err, actionlist.ErrItemNotFound) {
		return mcp.NewToolResultError(err.Error())
	}
	return nil
}

// formatList renders a list header block shared by several responses.
func formatList(l *actionlist.List) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", l.Title)
	fmt.Fprintf(&b, "- ID: `%s`\n", l.ID)
	fmt.Fprintf(&b, "- Status: %s\n", l.Status)
	if l.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", l.Description)
	}
	fmt.Fprintf(&b, "- Updated: %s\n", l.UpdatedAt)
	return b.String()
}

// formatItems renders items as a checklist.
func formatItems(items []actionlist.Item) string {
	if len(items) == 0 {
		return "_no items_\n"
	}
	var b strings.Builder
	for _, it := range items {
		marker := "[ ]"
		if it.Done {
			marker = "[x]"
		}
		fmt.Fprintf(&b, "%d. %s %s (`%s`)\n", it.Position, marker, it.Text, it.ID)
	}
	return b.String()
}
