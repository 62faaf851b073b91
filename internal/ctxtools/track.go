package ctxtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// TrackToolTool handles the ctx_track_tool MCP tool: it feeds one tool
// invocation into the session tracker.
type TrackToolTool struct {
	sess *session.Session
}

// NewTrackToolTool creates a TrackToolTool.
func NewTrackToolTool(sess *session.Session) *TrackToolTool {
	return &TrackToolTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_track_tool.
func (t *TrackToolTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_track_tool",
		mcp.WithDescription(
			"Record a tool invocation (file read, search, or shell command) in the session tracker. "+
				"Hosts without hook support call this after each read/grep/bash.",
		),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Tool name: read, view, read_file, grep, glob, search, find, codesearch, bash, shell, run, exec"),
		),
		mcp.WithObject("args",
			mcp.Required(),
			mcp.Description("Tool arguments, e.g. {\"filePath\": \"main.go\"}, {\"pattern\": \"TODO\"}, {\"command\": \"go test\"}"),
		),
		mcp.WithString("result",
			mcp.Description("Tool output; used to estimate token cost and result counts"),
		),
	)
}

// Handle processes the ctx_track_tool tool call.
func (t *TrackToolTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("tool_name", "")
	if name == "" {
		return mcp.NewToolResultError("'tool_name' is required"), nil
	}
	args, _ := req.GetArguments()["args"].(map[string]any)

	ev, err := t.sess.HandleRawTool(session.RawToolEvent{
		ToolName: name,
		Args:     args,
		Result:   req.GetString("result", ""),
	})
	switch {
	case errors.Is(err, session.ErrUnsupportedTool):
		return mcp.NewToolResultText(fmt.Sprintf("Ignored: %q is not a tracked tool.", name)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := t.sess.Status()
	text := fmt.Sprintf("Tracked %s. ~%d/%d tokens (%.0f%%).",
		ev.Kind(), st.Context.TotalTokensEstimate, st.Context.MaxTokens, st.UsageRatio*100)
	if st.Context.NeedsCompaction {
		text += "\nContext budget threshold reached: consider compacting."
	}
	return mcp.NewToolResultText(text), nil
}

// ─── SessionEventTool ───────────────────────────────────────────────────────

// SessionEventTool handles the ctx_session_event MCP tool.
type SessionEventTool struct {
	sess *session.Session
}

// NewSessionEventTool creates a SessionEventTool.
func NewSessionEventTool(sess *session.Session) *SessionEventTool {
	return &SessionEventTool{sess: sess}
}

// Definition returns the MCP tool definition for ctx_session_event.
func (t *SessionEventTool) Definition() mcp.Tool {
	return mcp.NewTool("ctx_session_event",
		mcp.WithDescription(
			"Signal a session lifecycle event. start resets the tracker; idle saves memory; "+
				"end compresses and prunes memory (per config) and saves it.",
		),
		mcp.WithString("event",
			mcp.Required(),
			mcp.Description("start, idle, or end"),
			mcp.Enum(string(session.EventStart), string(session.EventIdle), string(session.EventEnd)),
		),
		mcp.WithString("session_id",
			mcp.Description("For start: the host's session ID to adopt"),
		),
	)
}

// Handle processes the ctx_session_event tool call.
func (t *SessionEventTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("event", "")
	if raw == "" {
		return mcp.NewToolResultError("'event' is required"), nil
	}
	ev, err := session.ParseSessionEvent(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rep := t.sess.HandleSessionEvent(ev, req.GetString("session_id", ""))

	text := fmt.Sprintf("Session %s: %s handled.", rep.SessionID, rep.Event)
	if rep.Reset {
		text += " Tracker reset."
	}
	if rep.Compressed {
		text += " Session memory compressed."
	}
	if rep.Pruned > 0 {
		text += fmt.Sprintf(" %d old entries pruned.", rep.Pruned)
	}
	if rep.Flushed {
		text += " Memory saved."
	}
	if rep.Pending {
		text += " Memory has unsaved changes."
	}
	return mcp.NewToolResultText(text), nil
}
