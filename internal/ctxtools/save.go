package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// defaultImportance is used by mem_save when the caller gives none.
var defaultImportance = map[memory.Kind]float64{
	memory.KindDecision:   0.8,
	memory.KindPreference: 0.8,
	memory.KindError:      0.6,
	memory.KindFinding:    0.6,
	memory.KindContext:    0.4,
	memory.KindSummary:    memory.SummaryImportance,
}

// SaveTool handles the mem_save MCP tool.
type SaveTool struct {
	sess *session.Session
}

// NewSaveTool creates a SaveTool.
func NewSaveTool(sess *session.Session) *SaveTool {
	return &SaveTool{sess: sess}
}

// Definition returns the MCP tool definition for mem_save.
func (t *SaveTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_save",
		mcp.WithDescription(
			"Save something worth remembering to project memory. Call this PROACTIVELY after a "+
				"decision, a non-obvious finding, an error and its fix, or a user preference. "+
				"Memory is written to disk when the session idles or ends.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("What to remember, in one or two sentences"),
		),
		mcp.WithString("kind",
			mcp.Description("One of: "+strings.Join(memory.KindValues(), ", ")+" (default: finding)"),
			mcp.Enum(memory.KindValues()...),
		),
		mcp.WithNumber("importance",
			mcp.Description("0..1; entries above 0.8 are never pruned by age (default depends on kind)"),
		),
		mcp.WithString("file",
			mcp.Description("Optional related file path, stored as metadata"),
		),
	)
}

// Handle processes the mem_save tool call.
func (t *SaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := strings.TrimSpace(req.GetString("content", ""))
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	kind, err := memory.ParseKind(req.GetString("kind", string(memory.KindFinding)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid 'kind': %v", err)), nil
	}
	importance := floatArg(req, "importance", defaultImportance[kind])
	if importance < 0 || importance > 1 {
		return mcp.NewToolResultError("'importance' must be between 0 and 1"), nil
	}

	var meta map[string]any
	if file := req.GetString("file", ""); file != "" {
		meta = map[string]any{"file": file}
	}

	e := t.sess.Remember(kind, content, importance, meta)
	return mcp.NewToolResultText(fmt.Sprintf("Memory saved: [%s] %s\nID: %s (importance %.2f)",
		e.Kind, memory.Truncate(e.Content, 80), e.ID, e.Importance)), nil
}
