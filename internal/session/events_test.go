package session

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeToolEvent_FileRead(t *testing.T) {
	for _, name := range []string{"read", "Read", "view", "read_file"} {
		for _, key := range []string{"filePath", "file_path", "path"} {
			ev, err := DecodeToolEvent(RawToolEvent{
				ToolName: name,
				Args:     map[string]any{key: "main.go"},
				Result:   "package main\n", // 13 chars
			})
			if err != nil {
				t.Fatalf("%s/%s: %v", name, key, err)
			}
			fr, ok := ev.(FileRead)
			if !ok {
				t.Fatalf("%s/%s: got %T, want FileRead", name, key, ev)
			}
			if fr.Path != "main.go" || fr.TokenCost != 4 {
				t.Errorf("%s/%s: %+v", name, key, fr)
			}
		}
	}
}

func TestDecodeToolEvent_CostCountsCharacters(t *testing.T) {
	ev, err := DecodeToolEvent(RawToolEvent{
		ToolName: "read",
		Args:     map[string]any{"path": "README.ja.md"},
		Result:   strings.Repeat("日本", 10), // 20 characters, 60 bytes
	})
	if err != nil {
		t.Fatal(err)
	}
	if fr := ev.(FileRead); fr.TokenCost != 5 {
		t.Errorf("TokenCost = %d, want 5", fr.TokenCost)
	}
}

func TestDecodeToolEvent_Search(t *testing.T) {
	ev, err := DecodeToolEvent(RawToolEvent{
		ToolName: "grep",
		Args:     map[string]any{"pattern": "TODO"},
		Result:   "a.go:1: TODO\n\nb.go:9: TODO\n   \nc.go:3: TODO",
	})
	if err != nil {
		t.Fatal(err)
	}
	s, ok := ev.(Search)
	if !ok {
		t.Fatalf("got %T", ev)
	}
	if s.Query != "TODO" || s.ResultCount != 3 {
		t.Errorf("search = %+v, want 3 non-empty lines", s)
	}

	ev, err = DecodeToolEvent(RawToolEvent{ToolName: "codesearch", Args: map[string]any{"query": "func main"}})
	if err != nil {
		t.Fatal(err)
	}
	if s := ev.(Search); s.Query != "func main" || s.ResultCount != 0 {
		t.Errorf("search = %+v", s)
	}
}

func TestDecodeToolEvent_SearchEmptyResultBanners(t *testing.T) {
	tests := map[string]int{
		"No files found":                      0,
		"No matches found for pattern TODO\n": 0,
		"Found 0 files":                       0,
		"(no output)":                         0,
		"a.go:1: no results here":             1,
		"No files found\nb.go":                1,
	}
	for result, want := range tests {
		ev, err := DecodeToolEvent(RawToolEvent{ToolName: "glob", Args: map[string]any{"pattern": "*.go"}, Result: result})
		if err != nil {
			t.Fatal(err)
		}
		if got := ev.(Search).ResultCount; got != want {
			t.Errorf("ResultCount(%q) = %d, want %d", result, got, want)
		}
	}
}

func TestDecodeToolEvent_Command(t *testing.T) {
	for _, key := range []string{"command", "cmd"} {
		ev, err := DecodeToolEvent(RawToolEvent{
			ToolName: "bash",
			Args:     map[string]any{key: "go test ./..."},
			Result:   "ok",
		})
		if err != nil {
			t.Fatal(err)
		}
		c := ev.(Command)
		if c.Command != "go test ./..." || c.TokenCost != 1 {
			t.Errorf("%s: %+v", key, c)
		}
	}
}

func TestDecodeToolEvent_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  RawToolEvent
		want error
	}{
		{"unknown tool", RawToolEvent{ToolName: "edit", Args: map[string]any{"path": "x"}}, ErrUnsupportedTool},
		{"read without path", RawToolEvent{ToolName: "read", Args: map[string]any{}}, ErrMissingField},
		{"read with non-string path", RawToolEvent{ToolName: "read", Args: map[string]any{"path": 42}}, ErrMissingField},
		{"grep without pattern", RawToolEvent{ToolName: "grep"}, ErrMissingField},
		{"bash with blank command", RawToolEvent{ToolName: "bash", Args: map[string]any{"command": "  "}}, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToolEvent(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRawToolEvent_UnmarshalHookShape(t *testing.T) {
	data := `{"tool_name":"Read","tool_input":{"file_path":"/src/app.go"},"tool_response":{"content":"abc"}}`
	var raw RawToolEvent
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatal(err)
	}
	if raw.ToolName != "Read" || raw.Args["file_path"] != "/src/app.go" {
		t.Errorf("raw = %+v", raw)
	}
	if raw.Result != `{"content":"abc"}` {
		t.Errorf("Result = %q", raw.Result)
	}
}

func TestRawToolEvent_UnmarshalNativeShape(t *testing.T) {
	data := `{"tool_name":"grep","args":{"pattern":"x"},"result":"a\nb"}`
	var raw RawToolEvent
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatal(err)
	}
	if raw.Result != "a\nb" || raw.Args["pattern"] != "x" {
		t.Errorf("raw = %+v", raw)
	}
}

func TestParseSessionEvent(t *testing.T) {
	tests := map[string]Event{
		"start":        EventStart,
		"IDLE":         EventIdle,
		"session.end":  EventEnd,
		"SessionStart": EventStart,
		"session_idle": EventIdle,
	}
	for in, want := range tests {
		got, err := ParseSessionEvent(in)
		if err != nil || got != want {
			t.Errorf("ParseSessionEvent(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSessionEvent("restart"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("err = %v, want ErrUnknownEvent", err)
	}
}
