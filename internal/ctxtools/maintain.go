package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// CompressTool handles the mem_compress MCP tool.
type CompressTool struct {
	sess *session.Session
}

// NewCompressTool creates a CompressTool.
func NewCompressTool(sess *session.Session) *CompressTool {
	return &CompressTool{sess: sess}
}

// Definition returns the MCP tool definition for mem_compress.
func (t *CompressTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_compress",
		mcp.WithDescription(
			fmt.Sprintf("Fold a session's memory entries into one summary of its decisions and findings. "+
				"Sessions with fewer than %d entries are left alone.", memory.MinCompressEntries),
		),
		mcp.WithString("session_id",
			mcp.Description("Session to compress (default: current session)"),
		),
	)
}

// Handle processes the mem_compress tool call.
func (t *CompressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := req.GetString("session_id", "")
	if !t.sess.CompressMemory(sessionID) {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Nothing to compress: the session has fewer than %d entries.", memory.MinCompressEntries)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session compressed. Memory now holds %d entries.",
		t.sess.MemoryStats().TotalEntries)), nil
}

// ─── PruneMemoryTool ────────────────────────────────────────────────────────

// PruneMemoryTool handles the mem_prune MCP tool.
type PruneMemoryTool struct {
	sess *session.Session
}

// NewPruneMemoryTool creates a PruneMemoryTool.
func NewPruneMemoryTool(sess *session.Session) *PruneMemoryTool {
	return &PruneMemoryTool{sess: sess}
}

// Definition returns the MCP tool definition for mem_prune.
func (t *PruneMemoryTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_prune",
		mcp.WithDescription(
			"Apply the retention policy: drop memory entries older than max_age_days unless their "+
				"importance is above 0.8.",
		),
		mcp.WithNumber("max_age_days",
			mcp.Description("Age limit in days (default: configured retention, 30)"),
		),
	)
}

// Handle processes the mem_prune tool call.
func (t *PruneMemoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := intArg(req, "max_age_days", 0)
	if days < 0 {
		return mcp.NewToolResultError("'max_age_days' must be > 0"), nil
	}
	removed := t.sess.PruneMemory(days)
	return mcp.NewToolResultText(fmt.Sprintf("Pruned %d entries. %d remain.",
		removed, t.sess.MemoryStats().TotalEntries)), nil
}

// ─── StatsTool ──────────────────────────────────────────────────────────────

// StatsTool handles the mem_stats MCP tool.
type StatsTool struct {
	sess *session.Session
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(sess *session.Session) *StatsTool {
	return &StatsTool{sess: sess}
}

// Definition returns the MCP tool definition for mem_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_stats",
		mcp.WithDescription("Show project memory statistics: entries by kind, sessions, and age range."),
	)
}

// Handle processes the mem_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := t.sess.MemoryStats()

	var sb strings.Builder
	sb.WriteString("## Memory Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Entries**: %d\n", st.TotalEntries))
	sb.WriteString(fmt.Sprintf("- **Sessions**: %d\n", st.Sessions))
	for _, k := range memory.Kinds {
		if n := st.ByKind[k]; n > 0 {
			sb.WriteString(fmt.Sprintf("- **%s**: %d\n", k, n))
		}
	}
	if st.Oldest != nil && st.Newest != nil {
		sb.WriteString(fmt.Sprintf("- **Range**: %s to %s\n",
			st.Oldest.Format("2006-01-02"), st.Newest.Format("2006-01-02")))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
