// Package prompts implements MCP prompt handlers for ctxkeeper.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the ctx-start MCP prompt.
// It tells the AI to open a session and load project memory.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ctx-start",
		mcp.WithPromptDescription(
			"Start a working session: reset the context tracker and recall what "+
				"previous sessions learned about this project.",
		),
		mcp.WithArgument("session_id",
			mcp.ArgumentDescription("Optional host session ID to adopt"),
		),
		mcp.WithArgument("focus",
			mcp.ArgumentDescription("Optional topic to search memory for (e.g. 'auth', 'build')"),
		),
	)
}

// Handle processes the ctx-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sessionID := ""
	focus := ""
	if args := req.Params.Arguments; args != nil {
		sessionID = args["session_id"]
		focus = args["focus"]
	}

	startCall := "`ctx_session_event` with event='start'"
	if sessionID != "" {
		startCall = fmt.Sprintf("`ctx_session_event` with event='start' and session_id='%s'", sessionID)
	}
	searchStep := ""
	if focus != "" {
		searchStep = fmt.Sprintf("3. Run `mem_search` with query='%s' and summarize anything relevant\n", focus)
	}

	return &mcp.GetPromptResult{
		Description: "Start ctxkeeper session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"We're starting a new working session.\n\n"+
						"Please:\n"+
						"1. Run %s\n"+
						"2. Run `mem_recall` and keep the decisions and preferences it returns in mind\n"+
						"%s"+
						"\nDuring the session, save decisions, findings, errors and my preferences with `mem_save` "+
						"as they happen, and check `ctx_check_seen` before re-reading a file.",
					startCall, searchStep,
				)),
			},
		},
	}, nil
}
