// Package resources implements MCP resource handlers for the session.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (ctx://...) following MCP conventions.
package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

const (
	StatusURI = "ctx://session/status"
	MemoryURI = "ctx://memory/recall"
)

// Handler manages ctxkeeper resource endpoints.
type Handler struct {
	sess *session.Session
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(sess *session.Session) *Handler {
	return &Handler{sess: sess}
}

// StatusResource returns the MCP resource definition for session status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Session Context Status",
		mcp.WithResourceDescription("Tracked context items, token estimate, compaction signal and memory size"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current session status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.sess.Status())
}

// MemoryResource returns the MCP resource definition for recalled memory.
func (h *Handler) MemoryResource() mcp.Resource {
	return mcp.NewResource(
		MemoryURI,
		"Project Memory",
		mcp.WithResourceDescription("Important and recent project memory, rendered within the recall token budget"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleMemory returns the recalled memory block.
func (h *Handler) HandleMemory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text := h.sess.Recall()
	if text == "" {
		text = "No project memory yet."
	}
	return textResource(req.Params.URI, text), nil
}
