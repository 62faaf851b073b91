package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// StatusTool handles the ctx_status MCP tool.
type StatusTool struct {
	sess *session.Session
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(sess *session.Session) *StatusTool {
	return &StatusTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_status",
		mcp.WithDescription(
			"Show the current session's context budget: tracked items, estimated tokens, "+
				"whether compaction is recommended, and the most recent and most important items. "+
				"Call this before re-reading files or when a long session starts to feel slow.",
		),
	)
}

// Handle processes the ctx_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := t.sess.Status()

	var b strings.Builder
	if prompt := t.sess.ContextPrompt(); prompt != "" {
		b.WriteString(prompt)
	} else {
		fmt.Fprintf(&b, "## Session Context\n\nNothing tracked yet (budget %d tokens).\n", st.Context.MaxTokens)
	}

	fmt.Fprintf(&b, "\nSession: %s\n", st.SessionID)
	fmt.Fprintf(&b, "Memory: %d entries", st.MemoryEntries)
	if st.MemoryPending {
		b.WriteString(" (unsaved changes)")
	}
	b.WriteByte('\n')
	if st.Context.LastCompactionAt != nil {
		fmt.Fprintf(&b, "Last compaction: %s\n", age(*st.Context.LastCompactionAt))
	}

	return mcp.NewToolResultText(b.String()), nil
}

// ─── CheckSeenTool ──────────────────────────────────────────────────────────

// CheckSeenTool handles the ctx_check_seen MCP tool.
type CheckSeenTool struct {
	sess *session.Session
}

// NewCheckSeenTool creates a CheckSeenTool.
func NewCheckSeenTool(sess *session.Session) *CheckSeenTool {
	return &CheckSeenTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_check_seen.
func (t *CheckSeenTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_check_seen",
		mcp.WithDescription(
			"Check whether a file (or search key) was already viewed in this session. "+
				"Use it to avoid re-reading content that is still in context.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path or tracking key (e.g. 'internal/api/router.go', 'search:TODO')"),
		),
	)
}

// Handle processes the ctx_check_seen tool call.
func (t *CheckSeenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required"), nil
	}

	it, ok := t.sess.CheckSeen(path)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("Not seen: %s has not been viewed in this session.", path)), nil
	}

	text := fmt.Sprintf("Seen: %s (%s, viewed %s, importance %.2f, ~%d tokens)",
		it.Path, it.Kind, age(it.ViewedAt), it.Importance, it.TokenCost)
	if it.Summary != "" {
		text += "\nSummary: " + it.Summary
	}
	return mcp.NewToolResultText(text), nil
}
