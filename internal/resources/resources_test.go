package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/config"
	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

func newTestHandler(t *testing.T) (*Handler, *session.Session) {
	t.Helper()
	root := t.TempDir()
	sess := session.New(session.Options{
		ID:          "res-test",
		ProjectRoot: root,
		Config:      config.Default(),
		Persister:   memory.NewFileStore(memory.DefaultPath(root)),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { _ = sess.Close() })
	return NewHandler(sess), sess
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func TestStatusResource(t *testing.T) {
	h, sess := newTestHandler(t)
	if got := h.StatusResource().URI; got != StatusURI {
		t.Errorf("URI = %q", got)
	}

	sess.HandleTool(session.FileRead{Path: "a.go", TokenCost: 42})
	contents, err := h.HandleStatus(context.Background(), readReq(StatusURI))
	if err != nil {
		t.Fatalf("HandleStatus: %v", err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.MIMEType != "application/json" {
		t.Fatalf("contents = %+v", contents)
	}

	var st session.Status
	if err := json.Unmarshal([]byte(tc.Text), &st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if st.SessionID != "res-test" || st.Context.TotalTokensEstimate != 42 || len(st.Context.Items) != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestMemoryResource(t *testing.T) {
	h, sess := newTestHandler(t)

	contents, err := h.HandleMemory(context.Background(), readReq(MemoryURI))
	if err != nil {
		t.Fatal(err)
	}
	if text := contents[0].(mcp.TextResourceContents).Text; text != "No project memory yet." {
		t.Errorf("empty = %q", text)
	}

	sess.Remember(memory.KindDecision, "keep handlers thin", 0.9, nil)
	contents, _ = h.HandleMemory(context.Background(), readReq(MemoryURI))
	if text := contents[0].(mcp.TextResourceContents).Text; !strings.Contains(text, "keep handlers thin") {
		t.Errorf("memory = %q", text)
	}
}
