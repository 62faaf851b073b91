package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the ctx-status MCP prompt.
// It instructs the AI to report context usage and act on it.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ctx-status",
		mcp.WithPromptDescription(
			"Check how much of the context budget this session has used "+
				"and whether it is time to compact.",
		),
	)
}

// Handle processes the ctx-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Session Context Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `ctx_status` to check this session's context usage.\n\n" +
						"Then:\n" +
						"1. Tell me how close we are to the token budget\n" +
						"2. If compaction is recommended, save anything important with `mem_save`, " +
						"summarize our findings, then call `ctx_mark_compacted` and `ctx_prune`\n" +
						"3. List the most important files we are working with",
				),
			},
		},
	}, nil
}
