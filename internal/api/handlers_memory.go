package api

import (
	"net/http"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

const maxSearchLimit = 50

// MemoryHandler serves durable memory queries.
type MemoryHandler struct {
	sess *session.Session
}

func NewMemoryHandler(sess *session.Session) *MemoryHandler {
	return &MemoryHandler{sess: sess}
}

type recallResponse struct {
	Text           string `json:"text"`
	TokensEstimate int    `json:"tokens_estimate"`
}

// Recall renders memory for prompt injection. Query parameters override the
// configured limits.
func (h *MemoryHandler) Recall(w http.ResponseWriter, r *http.Request) {
	maxTokens, err := queryInt(r, "max_tokens", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recent, err := queryInt(r, "recent_limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	threshold, err := queryFloat(r, "important_threshold")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text := h.sess.RecallWith(memory.RecallOptions{
		MaxTokens:          maxTokens,
		RecentLimit:        recent,
		ImportantThreshold: threshold,
	})
	writeJSON(w, http.StatusOK, recallResponse{Text: text, TokensEstimate: memory.EstimateTokens(text)})
}

type searchResponse struct {
	Query   string         `json:"query"`
	Entries []memory.Entry `json:"entries"`
	Total   int            `json:"total"`
}

func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "'q' is required")
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	entries := h.sess.SearchMemory(q, limit)
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Entries: nonNil(entries), Total: len(entries)})
}

func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.MemoryStats())
}
