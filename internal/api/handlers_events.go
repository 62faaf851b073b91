package api

import (
	"errors"
	"net/http"

	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// EventHandler ingests tool invocations and lifecycle events from host hooks.
type EventHandler struct {
	sess *session.Session
}

func NewEventHandler(sess *session.Session) *EventHandler {
	return &EventHandler{sess: sess}
}

type toolEventResponse struct {
	Tracked         bool   `json:"tracked"`
	Kind            string `json:"kind,omitempty"`
	Reason          string `json:"reason,omitempty"`
	NeedsCompaction bool   `json:"needs_compaction"`
}

// Tool accepts a RawToolEvent. Hooks forward every tool call, so an
// unsupported tool is a 200 with tracked=false; a supported tool missing its
// argument is a 422.
func (h *EventHandler) Tool(w http.ResponseWriter, r *http.Request) {
	var raw session.RawToolEvent
	if err := decodeJSON(r, &raw); err != nil {
		writeDecodeError(w, err)
		return
	}
	if raw.ToolName == "" {
		writeError(w, http.StatusBadRequest, "'tool_name' is required")
		return
	}

	ev, err := h.sess.HandleRawTool(raw)
	switch {
	case errors.Is(err, session.ErrUnsupportedTool):
		writeJSON(w, http.StatusOK, toolEventResponse{Reason: err.Error()})
		return
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toolEventResponse{
		Tracked:         true,
		Kind:            ev.Kind(),
		NeedsCompaction: h.sess.Status().Context.NeedsCompaction,
	})
}

type sessionEventRequest struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
}

func (h *EventHandler) Session(w http.ResponseWriter, r *http.Request) {
	var req sessionEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Event == "" {
		writeError(w, http.StatusBadRequest, "'event' is required")
		return
	}
	ev, err := session.ParseSessionEvent(req.Event)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.sess.HandleSessionEvent(ev, req.SessionID))
}
