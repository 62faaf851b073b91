package ctxtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/session"
	"github.com/HendryAvila/ctxkeeper/internal/tracker"
)

// RecentTool handles the ctx_recent MCP tool.
type RecentTool struct {
	sess *session.Session
}

// NewRecentTool creates a RecentTool.
func NewRecentTool(sess *session.Session) *RecentTool {
	return &RecentTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_recent.
func (t *RecentTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_recent",
		mcp.WithDescription("List the most recently viewed items in this session, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Max items (default: 10)"),
		),
	)
}

// Handle processes the ctx_recent tool call.
func (t *RecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", tracker.DefaultRecentLimit)
	items := t.sess.Recent(limit)
	if len(items) == 0 {
		return mcp.NewToolResultText("Nothing viewed yet in this session."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Recently viewed (%d):\n\n%s", len(items), formatItems(items))), nil
}

// ─── ImportantTool ──────────────────────────────────────────────────────────

// ImportantTool handles the ctx_important MCP tool.
type ImportantTool struct {
	sess *session.Session
}

// NewImportantTool creates an ImportantTool.
func NewImportantTool(sess *session.Session) *ImportantTool {
	return &ImportantTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_important.
func (t *ImportantTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_important",
		mcp.WithDescription(
			"List the highest-importance items in this session. Importance rises when an item "+
				"is revisited and decays as other work happens.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Max items (default: 10)"),
		),
	)
}

// Handle processes the ctx_important tool call.
func (t *ImportantTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", tracker.DefaultRecentLimit)
	items := t.sess.Important(limit)
	if len(items) == 0 {
		return mcp.NewToolResultText("Nothing tracked yet in this session."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Most important (%d):\n\n%s", len(items), formatItems(items))), nil
}
