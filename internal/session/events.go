package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
)

var (
	// ErrUnsupportedTool is returned for tool names that carry no context
	// worth tracking.
	ErrUnsupportedTool = errors.New("unsupported tool")
	// ErrMissingField is returned when a tool payload lacks a required
	// argument.
	ErrMissingField = errors.New("missing field")
	// ErrUnknownEvent is returned by ParseSessionEvent for unknown names.
	ErrUnknownEvent = errors.New("unknown session event")
)

// ─── Tool events ────────────────────────────────────────────────────────────

// ToolEvent is one decoded tool invocation: a FileRead, a Search or a
// Command. The set is closed.
type ToolEvent interface {
	// Kind is a short label for logs and metrics.
	Kind() string
	toolEvent()
}

// FileRead is a file read by the agent.
type FileRead struct {
	Path      string
	TokenCost int
}

// Search is a grep/glob style lookup.
type Search struct {
	Query       string
	ResultCount int
}

// Command is a shell command run by the agent.
type Command struct {
	Command   string
	TokenCost int
}

func (FileRead) Kind() string { return "file" }
func (Search) Kind() string   { return "search" }
func (Command) Kind() string  { return "command" }

func (FileRead) toolEvent() {}
func (Search) toolEvent()   {}
func (Command) toolEvent()  {}

// RawToolEvent is an undecoded tool invocation as reported by a host.
type RawToolEvent struct {
	ToolName string         `json:"tool_name"`
	Args     map[string]any `json:"args"`
	Result   string         `json:"result"`
}

// UnmarshalJSON also accepts the hook payload shape, where arguments arrive
// as tool_input and the output as tool_response (a string or any JSON
// value).
func (r *RawToolEvent) UnmarshalJSON(data []byte) error {
	var aux struct {
		ToolName     string          `json:"tool_name"`
		Tool         string          `json:"tool"`
		Args         map[string]any  `json:"args"`
		ToolInput    map[string]any  `json:"tool_input"`
		Result       json.RawMessage `json:"result"`
		ToolResponse json.RawMessage `json:"tool_response"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ToolName = aux.ToolName
	if r.ToolName == "" {
		r.ToolName = aux.Tool
	}
	r.Args = aux.Args
	if r.Args == nil {
		r.Args = aux.ToolInput
	}
	raw := aux.Result
	if len(raw) == 0 {
		raw = aux.ToolResponse
	}
	r.Result = rawText(raw)
	return nil
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var (
	readTools    = []string{"read", "view", "read_file"}
	searchTools  = []string{"grep", "glob", "search", "find", "codesearch"}
	commandTools = []string{"bash", "shell", "run", "exec"}
)

// DecodeToolEvent classifies a raw invocation and extracts its typed fields.
// Token costs are estimated from the result text.
func DecodeToolEvent(raw RawToolEvent) (ToolEvent, error) {
	name := strings.ToLower(strings.TrimSpace(raw.ToolName))
	switch {
	case contains(readTools, name):
		path := stringArg(raw.Args, "filePath", "file_path", "path")
		if path == "" {
			return nil, fmt.Errorf("%s: %w: filePath", raw.ToolName, ErrMissingField)
		}
		return FileRead{Path: path, TokenCost: memory.EstimateTokens(raw.Result)}, nil

	case contains(searchTools, name):
		query := stringArg(raw.Args, "pattern", "query")
		if query == "" {
			return nil, fmt.Errorf("%s: %w: pattern", raw.ToolName, ErrMissingField)
		}
		return Search{Query: query, ResultCount: countLines(raw.Result)}, nil

	case contains(commandTools, name):
		cmd := stringArg(raw.Args, "command", "cmd")
		if cmd == "" {
			return nil, fmt.Errorf("%s: %w: command", raw.ToolName, ErrMissingField)
		}
		return Command{Command: cmd, TokenCost: memory.EstimateTokens(raw.Result)}, nil
	}
	return nil, fmt.Errorf("%q: %w", raw.ToolName, ErrUnsupportedTool)
}

func stringArg(args map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := args[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// emptyResultMarkers are the banners hosts print instead of hits when a
// search finds nothing.
var emptyResultMarkers = []string{
	"no files found",
	"no matches",
	"no results",
	"0 results",
	"found 0 ",
	"(no output)",
	"(no content)",
}

// countLines counts non-blank result lines, one per hit. Lines that start
// with an empty-result banner are not hits. Anything else counts, so
// headers or context lines in a host's output still inflate the count.
func countLines(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" || isEmptyResultMarker(line) {
			continue
		}
		n++
	}
	return n
}

func isEmptyResultMarker(line string) bool {
	for _, m := range emptyResultMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ─── Session events ─────────────────────────────────────────────────────────

// Event is a session lifecycle event.
type Event string

const (
	EventStart Event = "start"
	EventIdle  Event = "idle"
	EventEnd   Event = "end"
)

// ParseSessionEvent maps a name to an Event. Host spellings such as
// "session.start" or "SessionEnd" are accepted.
func ParseSessionEvent(s string) (Event, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "session.")
	name = strings.TrimPrefix(name, "session")
	name = strings.TrimPrefix(name, "_")
	switch Event(name) {
	case EventStart, EventIdle, EventEnd:
		return Event(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}
