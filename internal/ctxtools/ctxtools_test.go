package ctxtools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ctxkeeper/internal/config"
	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/session"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestSession creates a session over a temp project directory.
func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	s := session.New(session.Options{
		ID:          "sess-test",
		ProjectRoot: root,
		Config:      cfg,
		Persister:   memory.NewFileStore(cfg.MemoryPath(root)),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// call runs a handler and fails the test on a Go error.
func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	return res
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestDefinitions_Names(t *testing.T) {
	s := newTestSession(t)
	tests := []struct {
		def  mcp.Tool
		name string
	}{
		{NewStatusTool(s).Definition(), "ctx_status"},
		{NewCheckSeenTool(s).Definition(), "ctx_check_seen"},
		{NewRecentTool(s).Definition(), "ctx_recent"},
		{NewImportantTool(s).Definition(), "ctx_important"},
		{NewMarkCompactedTool(s).Definition(), "ctx_mark_compacted"},
		{NewPruneContextTool(s).Definition(), "ctx_prune"},
		{NewTrackToolTool(s).Definition(), "ctx_track_tool"},
		{NewSessionEventTool(s).Definition(), "ctx_session_event"},
		{NewRecallTool(s).Definition(), "mem_recall"},
		{NewSearchTool(s).Definition(), "mem_search"},
		{NewSaveTool(s).Definition(), "mem_save"},
		{NewCompressTool(s).Definition(), "mem_compress"},
		{NewPruneMemoryTool(s).Definition(), "mem_prune"},
		{NewStatsTool(s).Definition(), "mem_stats"},
	}
	for _, tt := range tests {
		if tt.def.Name != tt.name {
			t.Errorf("tool name = %q, want %q", tt.def.Name, tt.name)
		}
		if tt.def.Description == "" {
			t.Errorf("%s: empty description", tt.name)
		}
	}
}

func TestCheckSeenTool_PathRequired(t *testing.T) {
	def := NewCheckSeenTool(newTestSession(t)).Definition()
	found := false
	for _, r := range def.InputSchema.Required {
		if r == "path" {
			found = true
		}
	}
	if !found {
		t.Error("'path' should be required")
	}
}

// ─── Context tools ───────────────────────────────────────────────────────────

func TestStatusTool_Empty(t *testing.T) {
	s := newTestSession(t)
	res := call(t, NewStatusTool(s).Handle, nil)
	text := resultText(res)
	if !strings.Contains(text, "Nothing tracked yet") || !strings.Contains(text, "sess-test") {
		t.Errorf("status = %q", text)
	}
}

func TestStatusTool_AfterTracking(t *testing.T) {
	s := newTestSession(t)
	s.HandleTool(session.FileRead{Path: "main.go", TokenCost: 120})

	text := resultText(call(t, NewStatusTool(s).Handle, nil))
	if !strings.Contains(text, "Tracked: 1 items") || !strings.Contains(text, "main.go") {
		t.Errorf("status = %q", text)
	}
}

func TestCheckSeenTool(t *testing.T) {
	s := newTestSession(t)
	tool := NewCheckSeenTool(s)

	res := call(t, tool.Handle, map[string]interface{}{})
	if !res.IsError || !strings.Contains(resultText(res), "'path' is required") {
		t.Errorf("missing path: %+v", res)
	}

	res = call(t, tool.Handle, map[string]interface{}{"path": "a.go"})
	if res.IsError || !strings.HasPrefix(resultText(res), "Not seen") {
		t.Errorf("unseen = %q", resultText(res))
	}

	s.HandleTool(session.FileRead{Path: "a.go", TokenCost: 10})
	res = call(t, tool.Handle, map[string]interface{}{"path": "a.go"})
	if !strings.HasPrefix(resultText(res), "Seen: a.go (file") {
		t.Errorf("seen = %q", resultText(res))
	}
}

func TestRecentAndImportantTools(t *testing.T) {
	s := newTestSession(t)
	for i := 0; i < 4; i++ {
		s.HandleTool(session.FileRead{Path: fmt.Sprintf("f%d.go", i), TokenCost: 10})
	}

	text := resultText(call(t, NewRecentTool(s).Handle, map[string]interface{}{"limit": float64(2)}))
	if !strings.Contains(text, "Recently viewed (2)") || !strings.Contains(text, "f3.go") {
		t.Errorf("recent = %q", text)
	}

	text = resultText(call(t, NewImportantTool(s).Handle, map[string]interface{}{"limit": float64(1)}))
	if !strings.Contains(text, "Most important (1)") || !strings.Contains(text, "f3.go") {
		t.Errorf("important = %q", text)
	}
}

func TestRecentTool_Empty(t *testing.T) {
	text := resultText(call(t, NewRecentTool(newTestSession(t)).Handle, nil))
	if !strings.Contains(text, "Nothing viewed yet") {
		t.Errorf("recent = %q", text)
	}
}

func TestMarkCompactedTool(t *testing.T) {
	s := newTestSession(t)
	s.HandleTool(session.FileRead{Path: "a.go", TokenCost: 10})
	text := resultText(call(t, NewMarkCompactedTool(s).Handle, nil))
	if !strings.Contains(text, "Compaction recorded. 1 items still tracked") {
		t.Errorf("text = %q", text)
	}
	if s.Status().Context.LastCompactionAt == nil {
		t.Error("LastCompactionAt not set")
	}
}

func TestPruneContextTool(t *testing.T) {
	s := newTestSession(t)
	s.HandleTool(session.Search{Query: "x", ResultCount: 1})
	s.HandleTool(session.FileRead{Path: "keep.go", TokenCost: 10})
	tool := NewPruneContextTool(s)

	res := call(t, tool.Handle, map[string]interface{}{"threshold": float64(1.5)})
	if !res.IsError {
		t.Error("threshold 1.5 should be rejected")
	}

	text := resultText(call(t, tool.Handle, map[string]interface{}{"threshold": float64(0.6)}))
	if !strings.Contains(text, "Pruned 1 items. 1 remain") {
		t.Errorf("text = %q", text)
	}
	text = resultText(call(t, tool.Handle, map[string]interface{}{"threshold": float64(0.6)}))
	if !strings.Contains(text, "Nothing to prune") {
		t.Errorf("second prune = %q", text)
	}
}

// ─── Event tools ─────────────────────────────────────────────────────────────

func TestTrackToolTool(t *testing.T) {
	s := newTestSession(t)
	tool := NewTrackToolTool(s)

	res := call(t, tool.Handle, map[string]interface{}{
		"tool_name": "read",
		"args":      map[string]interface{}{"filePath": "cmd/main.go"},
		"result":    strings.Repeat("x", 400),
	})
	if res.IsError || !strings.Contains(resultText(res), "Tracked file. ~100/100000 tokens") {
		t.Errorf("track = %q", resultText(res))
	}
	if _, ok := s.CheckSeen("cmd/main.go"); !ok {
		t.Error("file not tracked")
	}

	res = call(t, tool.Handle, map[string]interface{}{"tool_name": "edit", "args": map[string]interface{}{}})
	if res.IsError || !strings.HasPrefix(resultText(res), "Ignored") {
		t.Errorf("unsupported = %q", resultText(res))
	}

	res = call(t, tool.Handle, map[string]interface{}{"tool_name": "grep", "args": map[string]interface{}{}})
	if !res.IsError || !strings.Contains(resultText(res), "missing field") {
		t.Errorf("missing field = %q", resultText(res))
	}

	res = call(t, tool.Handle, map[string]interface{}{})
	if !res.IsError {
		t.Error("missing tool_name should error")
	}
}

func TestSessionEventTool(t *testing.T) {
	s := newTestSession(t)
	tool := NewSessionEventTool(s)

	res := call(t, tool.Handle, map[string]interface{}{"event": "reboot"})
	if !res.IsError {
		t.Error("unknown event should error")
	}

	s.HandleTool(session.FileRead{Path: "a.go", TokenCost: 10})
	text := resultText(call(t, tool.Handle, map[string]interface{}{"event": "start", "session_id": "host-42"}))
	if !strings.Contains(text, "Session host-42: start handled. Tracker reset.") {
		t.Errorf("start = %q", text)
	}

	s.Remember(memory.KindFinding, "x", 0.5, nil)
	text = resultText(call(t, tool.Handle, map[string]interface{}{"event": "idle"}))
	if !strings.Contains(text, "Memory saved.") {
		t.Errorf("idle = %q", text)
	}
}

// ─── Memory tools ────────────────────────────────────────────────────────────

func TestSaveTool(t *testing.T) {
	s := newTestSession(t)
	tool := NewSaveTool(s)

	res := call(t, tool.Handle, map[string]interface{}{})
	if !res.IsError || !strings.Contains(resultText(res), "'content' is required") {
		t.Errorf("missing content: %q", resultText(res))
	}

	res = call(t, tool.Handle, map[string]interface{}{"content": "x", "kind": "gossip"})
	if !res.IsError || !strings.Contains(resultText(res), "invalid 'kind'") {
		t.Errorf("bad kind: %q", resultText(res))
	}

	res = call(t, tool.Handle, map[string]interface{}{"content": "x", "importance": float64(2)})
	if !res.IsError {
		t.Error("importance 2 should be rejected")
	}

	res = call(t, tool.Handle, map[string]interface{}{
		"content": "Use FTS5 for memory search",
		"kind":    "decision",
		"file":    "internal/memory/index.go",
	})
	if res.IsError || !strings.Contains(resultText(res), "Memory saved: [decision]") {
		t.Fatalf("save = %q", resultText(res))
	}
	if !strings.Contains(resultText(res), "importance 0.80") {
		t.Errorf("decision default importance missing: %q", resultText(res))
	}
	if st := s.MemoryStats(); st.ByKind[memory.KindDecision] != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRecallTool(t *testing.T) {
	s := newTestSession(t)
	tool := NewRecallTool(s)

	if text := resultText(call(t, tool.Handle, nil)); !strings.Contains(text, "No project memory yet") {
		t.Errorf("empty recall = %q", text)
	}

	s.Remember(memory.KindPreference, "always run gofmt", 0.9, nil)
	text := resultText(call(t, tool.Handle, nil))
	if !strings.HasPrefix(text, memory.ContextHeader) || !strings.Contains(text, "- [preference] always run gofmt") {
		t.Errorf("recall = %q", text)
	}
	if !strings.Contains(text, "tokens") {
		t.Errorf("missing token footer: %q", text)
	}
}

func TestSearchTool(t *testing.T) {
	s := newTestSession(t)
	tool := NewSearchTool(s)

	res := call(t, tool.Handle, map[string]interface{}{"query": "  "})
	if !res.IsError {
		t.Error("blank query should error")
	}

	if text := resultText(call(t, tool.Handle, map[string]interface{}{"query": "nothing"})); !strings.Contains(text, "No memories found") {
		t.Errorf("no results = %q", text)
	}

	for i := 0; i < 5; i++ {
		s.Remember(memory.KindFinding, fmt.Sprintf("router finding %d %s", i, strings.Repeat("detail ", 40)), 0.5, nil)
	}
	text := resultText(call(t, tool.Handle, map[string]interface{}{"query": "router"}))
	if !strings.Contains(text, "Found 5 memories") || !strings.Contains(text, "[5]") {
		t.Errorf("search = %q", text)
	}

	text = resultText(call(t, tool.Handle, map[string]interface{}{"query": "router", "max_tokens": float64(100)}))
	if !strings.Contains(text, "Budget:") {
		t.Errorf("budgeted search should carry a budget footer: %q", text)
	}
}

func TestCompressPruneAndStatsTools(t *testing.T) {
	s := newTestSession(t)

	text := resultText(call(t, NewCompressTool(s).Handle, nil))
	if !strings.Contains(text, "Nothing to compress") {
		t.Errorf("compress empty = %q", text)
	}

	for i := 0; i < 10; i++ {
		s.Remember(memory.KindDecision, fmt.Sprintf("decision %d", i), 0.5, nil)
	}
	text = resultText(call(t, NewCompressTool(s).Handle, map[string]interface{}{"session_id": "sess-test"}))
	if !strings.Contains(text, "Memory now holds 1 entries") {
		t.Errorf("compress = %q", text)
	}

	res := call(t, NewPruneMemoryTool(s).Handle, map[string]interface{}{"max_age_days": float64(-1)})
	if !res.IsError {
		t.Error("negative age should error")
	}
	text = resultText(call(t, NewPruneMemoryTool(s).Handle, nil))
	if !strings.Contains(text, "Pruned 0 entries. 1 remain") {
		t.Errorf("prune = %q", text)
	}

	text = resultText(call(t, NewStatsTool(s).Handle, nil))
	if !strings.Contains(text, "**Entries**: 1") || !strings.Contains(text, "**summary**: 1") {
		t.Errorf("stats = %q", text)
	}
}
