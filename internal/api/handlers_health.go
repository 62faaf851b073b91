package api

import (
	"net/http"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

type HealthHandler struct {
	sess    *session.Session
	version string
}

func NewHealthHandler(sess *session.Session, version string) *HealthHandler {
	return &HealthHandler{sess: sess, version: version}
}

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	SessionID     string `json:"session_id"`
	MemoryPending bool   `json:"memory_pending"`
}

// Health reports "degraded" while memory has changes that failed to persist.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.sess.Status()
	resp := healthResponse{
		Status:        "ok",
		Version:       h.version,
		SessionID:     st.SessionID,
		MemoryPending: st.MemoryPending,
	}
	if st.MemoryPending {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}
