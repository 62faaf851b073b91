package ctxtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// RecallTool handles the mem_recall MCP tool.
type RecallTool struct {
	sess *session.Session
}

// NewRecallTool creates a RecallTool.
func NewRecallTool(sess *session.Session) *RecallTool {
	return &RecallTool{sess: sess}
}

// Definition returns the MCP tool definition for mem_recall.
func (t *RecallTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_recall",
		mcp.WithDescription(
			"Recall project memory from previous sessions: important decisions, findings and "+
				"preferences plus the most recent entries, within a token budget. "+
				"Call this at the start of a session.",
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Token budget for the memory block (default: configured, 2000)"),
		),
		mcp.WithNumber("recent_limit",
			mcp.Description("How many recent entries to consider (default: 20)"),
		),
		mcp.WithNumber("important_threshold",
			mcp.Description("Minimum importance for the important set (default: 0.7)"),
		),
	)
}

// Handle processes the mem_recall tool call.
func (t *RecallTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := t.sess.RecallWith(memory.RecallOptions{
		MaxTokens:          intArg(req, "max_tokens", 0),
		RecentLimit:        intArg(req, "recent_limit", 0),
		ImportantThreshold: floatArg(req, "important_threshold", 0),
	})
	if out == "" {
		return mcp.NewToolResultText("No project memory yet. Save decisions and findings with mem_save."), nil
	}
	return mcp.NewToolResultText(out + "\n" + memory.TokenFooter(memory.EstimateTokens(out))), nil
}
