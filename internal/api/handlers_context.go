package api

import (
	"net/http"

	"github.com/HendryAvila/ctxkeeper/internal/session"
	"github.com/HendryAvila/ctxkeeper/internal/tracker"
)

// ContextHandler serves the context tracker queries.
type ContextHandler struct {
	sess *session.Session
}

func NewContextHandler(sess *session.Session) *ContextHandler {
	return &ContextHandler{sess: sess}
}

func (h *ContextHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Status())
}

type seenResponse struct {
	Path string        `json:"path"`
	Seen bool          `json:"seen"`
	Item *tracker.Item `json:"item,omitempty"`
}

func (h *ContextHandler) Seen(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "'path' is required")
		return
	}
	resp := seenResponse{Path: path}
	if item, ok := h.sess.CheckSeen(path); ok {
		resp.Seen = true
		resp.Item = &item
	}
	writeJSON(w, http.StatusOK, resp)
}

type itemsResponse struct {
	Items []tracker.Item `json:"items"`
	Total int            `json:"total"`
}

func (h *ContextHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", tracker.DefaultRecentLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := h.sess.Recent(limit)
	writeJSON(w, http.StatusOK, itemsResponse{Items: nonNil(items), Total: len(items)})
}

func (h *ContextHandler) Important(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", tracker.DefaultRecentLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items := h.sess.Important(limit)
	writeJSON(w, http.StatusOK, itemsResponse{Items: nonNil(items), Total: len(items)})
}

func (h *ContextHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(h.sess.ContextPrompt()))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
