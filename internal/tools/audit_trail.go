package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/audit"
	"github.com/mark3labs/mcp-go/mcp"
)

// AuditQuerier is the read side of the audit store the trail tool
// needs. *audit.SQLiteSink satisfies it.
type AuditQuerier interface {
	ByCorrelation(ctx context.Context, correlationID string) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditTrailTool handles the al_audit_trail MCP tool.
type AuditTrailTool struct {
	querier AuditQuerier
}

// NewAuditTrailTool creates an AuditTrailTool.
func NewAuditTrailTool(querier AuditQuerier) *AuditTrailTool {
	return &AuditTrailTool{querier: querier}
}

// Definition returns the MCP tool definition for registration.
func (t *AuditTrailTool) Definition() mcp.Tool {
	return mcp.NewTool("al_audit_trail",
		mcp.WithDescription(
			"Read the audit trail of guarded mutations. Without arguments, "+
				"shows the most recent events; pass a correlation_id to see "+
				"the full lifecycle of one operation.",
		),
		mcp.WithString("correlation_id",
			mcp.Description("Correlation ID of a single operation to inspect"),
		),
		mcp.WithNumber("limit",
			mcp.Description("How many recent events to show (default 20)"),
		),
	)
}

// Handle processes the al_audit_trail tool call.
func (t *AuditTrailTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	correlationID := req.GetString("correlation_id", "")

	var (
		events []audit.Event
		err    error
		title  string
	)
	if correlationID != "" {
		events, err = t.querier.ByCorrelation(ctx, correlationID)
		title = fmt.Sprintf("# Audit Trail — operation %s", correlationID)
	} else {
		limit := req.GetInt("limit", 20)
		events, err = t.querier.Recent(ctx, limit)
		title = "# Audit Trail — recent events"
	}
	if err != nil {
		return nil, fmt.Errorf("querying audit trail: %w", err)
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No audit events found."), nil
	}

	var b strings.Builder
	b.WriteString(title + "\n\n")
	for _, e := range events {
		fmt.Fprintf(&b, "- %s **%s** %s by %s — %s `%s`",
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			e.Operation, e.Result, e.Agent,
			e.Details.SubjectType, e.Details.SubjectID,
		)
		if e.Details.Message != "" {
			fmt.Fprintf(&b, " — %s", e.Details.Message)
		}
		if correlationID == "" {
			fmt.Fprintf(&b, " (correlation `%s`)", e.CorrelationID)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
