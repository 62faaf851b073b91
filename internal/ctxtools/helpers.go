// Package ctxtools provides MCP tool handlers over a ctxkeeper session.
//
// Each tool follows the same pattern:
// - A struct holding the *session.Session, injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// User mistakes (missing or invalid arguments) come back as tool-result
// errors, never as Go errors.
package ctxtools

import (
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/tracker"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument from a tool request.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// formatItems renders tracker items one per line.
func formatItems(items []tracker.Item) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. [%s] %s (importance %.2f, ~%d tokens, %s)",
			i+1, it.Kind, it.Path, it.Importance, it.TokenCost, age(it.ViewedAt))
		if it.Summary != "" {
			fmt.Fprintf(&b, " - %s", it.Summary)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// age renders how long ago t was, at a coarse resolution.
func age(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}
