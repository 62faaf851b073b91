package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if r == nil || len(r.Messages) == 0 {
		t.Fatal("empty prompt result")
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T", r.Messages[0].Content)
	}
	return tc.Text
}

func TestStartPrompt(t *testing.T) {
	p := NewStartPrompt()
	if p.Definition().Name != "ctx-start" {
		t.Errorf("name = %q", p.Definition().Name)
	}

	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := promptText(t, res)
	if !strings.Contains(text, "event='start'") || !strings.Contains(text, "mem_recall") {
		t.Errorf("text = %q", text)
	}
	if strings.Contains(text, "mem_search") {
		t.Error("no focus given, search step should be omitted")
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"session_id": "abc", "focus": "auth"}
	res, _ = p.Handle(context.Background(), req)
	text = promptText(t, res)
	if !strings.Contains(text, "session_id='abc'") || !strings.Contains(text, "query='auth'") {
		t.Errorf("text = %q", text)
	}
}

func TestStatusPrompt(t *testing.T) {
	p := NewStatusPrompt()
	if p.Definition().Name != "ctx-status" {
		t.Errorf("name = %q", p.Definition().Name)
	}
	res, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if text := promptText(t, res); !strings.Contains(text, "ctx_status") || !strings.Contains(text, "ctx_mark_compacted") {
		t.Errorf("text = %q", text)
	}
}
