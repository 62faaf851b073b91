package ctxtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// SearchTool handles the mem_search MCP tool.
type SearchTool struct {
	sess *session.Session
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(sess *session.Session) *SearchTool {
	return &SearchTool{sess: sess}
}

// Definition returns the MCP tool definition for mem_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("mem_search",
		mcp.WithDescription(
			"Search project memory across all sessions. Use this to find past decisions, "+
				"errors hit, preferences, or findings before repeating work.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (keywords)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 50)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Optional token budget for the response; results past it are omitted"),
		),
	)
}

// Handle processes the mem_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	limit := intArg(req, "limit", 10)
	if limit > 50 {
		limit = 50
	}
	budget := intArg(req, "max_tokens", 0)

	results := t.sess.SearchMemory(query, limit)
	if len(results) == 0 {
		return mcp.NewToolResultText("No memories found matching your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d memories:\n\n", len(results))
	shown := 0
	for i, e := range results {
		block := memory.FormatEntries([]memory.Entry{e}, 300)
		block = strings.Replace(block, "[1]", fmt.Sprintf("[%d]", i+1), 1)
		if budget > 0 && memory.EstimateTokens(b.String()+block) > budget && shown > 0 {
			break
		}
		b.WriteString(block)
		shown++
	}
	if shown < len(results) {
		b.WriteString(memory.BudgetFooter(memory.EstimateTokens(b.String()), budget, shown, len(results)))
	}
	return mcp.NewToolResultText(b.String()), nil
}
