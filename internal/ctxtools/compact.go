package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// MarkCompactedTool handles the ctx_mark_compacted MCP tool.
type MarkCompactedTool struct {
	sess *session.Session
}

// NewMarkCompactedTool creates a MarkCompactedTool.
func NewMarkCompactedTool(sess *session.Session) *MarkCompactedTool {
	return &MarkCompactedTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_mark_compacted.
func (t *MarkCompactedTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_mark_compacted",
		mcp.WithDescription(
			"Acknowledge that the conversation was compacted or summarized. Clears the compaction "+
				"signal; tracked items are kept.",
		),
	)
}

// Handle processes the ctx_mark_compacted tool call.
func (t *MarkCompactedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := t.sess.MarkCompacted()
	return mcp.NewToolResultText(fmt.Sprintf(
		"Compaction recorded. %d items still tracked, ~%d/%d tokens.",
		len(st.Items), st.TotalTokensEstimate, st.MaxTokens,
	)), nil
}

// ─── PruneContextTool ───────────────────────────────────────────────────────

// PruneContextTool handles the ctx_prune MCP tool.
type PruneContextTool struct {
	sess *session.Session
}

// NewPruneContextTool creates a PruneContextTool.
func NewPruneContextTool(sess *session.Session) *PruneContextTool {
	return &PruneContextTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_prune.
func (t *PruneContextTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_prune",
		mcp.WithDescription(
			"Drop tracked items whose importance fell below a threshold and recompute the token estimate. "+
				"Use after compaction to forget stale context.",
		),
		mcp.WithNumber("threshold",
			mcp.Description("Importance threshold in (0,1); items strictly below it are dropped (default: configured, 0.1)"),
		),
	)
}

// Handle processes the ctx_prune tool call.
func (t *PruneContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threshold := floatArg(req, "threshold", 0)
	if threshold < 0 || threshold >= 1 {
		return mcp.NewToolResultError("'threshold' must be between 0 and 1"), nil
	}

	removed := t.sess.PruneContext(threshold)
	st := t.sess.Status()
	if len(removed) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing to prune. %d items tracked, ~%d tokens.",
			len(st.Context.Items), st.Context.TotalTokensEstimate)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pruned %d items. %d remain, ~%d tokens.\n\n", len(removed), len(st.Context.Items), st.Context.TotalTokensEstimate)
	b.WriteString(formatItems(removed))
	return mcp.NewToolResultText(b.String()), nil
}
