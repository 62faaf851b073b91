package memory

import (
	"strings"
	"testing"
)

// lineOf builds an entry whose rendered line "- [decision] ..." is n chars.
func lineOf(id string, n int) Entry {
	prefix := len("- [decision] ")
	return Entry{ID: id, Kind: KindDecision, Content: id + strings.Repeat("x", n-prefix-len(id))}
}

func TestFormatForContext_Empty(t *testing.T) {
	if got := FormatForContext(nil, 100); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestFormatForContext_BudgetPrefix(t *testing.T) {
	// Each line is 40 chars = 10 tokens; header costs 10.
	entries := []Entry{lineOf("a", 40), lineOf("b", 40), lineOf("c", 40)}

	got := FormatForContext(entries, 35)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 entries:\n%s", len(lines), got)
	}
	if lines[0] != ContextHeader {
		t.Errorf("header = %q", lines[0])
	}
	if strings.Contains(got, "- [decision] c") {
		t.Error("third entry should not fit")
	}

	// Exactly at the budget still fits.
	if got := FormatForContext(entries, 40); strings.Count(got, "\n") != 3 {
		t.Errorf("budget 40 should fit all three:\n%s", got)
	}
}

func TestFormatForContext_StopsAtFirstOverflow(t *testing.T) {
	entries := []Entry{lineOf("a", 40), lineOf("big", 400), lineOf("c", 40)}
	got := FormatForContext(entries, 50)
	if strings.Contains(got, "- [decision] c") {
		t.Errorf("rendering must stop at the first entry over budget:\n%s", got)
	}
	if !strings.Contains(got, "- [decision] a") {
		t.Errorf("first entry missing:\n%s", got)
	}
}

func TestFormatForContext_HeaderOnly(t *testing.T) {
	got := FormatForContext([]Entry{lineOf("a", 40)}, 12)
	if got != ContextHeader {
		t.Errorf("got %q, want header only", got)
	}
}

func TestFormatForContext_MultibyteChargedByCharacters(t *testing.T) {
	// "- [decision] " plus 40 CJK characters is 52 characters, 132 bytes.
	e := Entry{ID: "cjk", Kind: KindDecision, Content: strings.Repeat("中", 40), Importance: 0.5}
	got := FormatForContext([]Entry{e}, 23)
	if !strings.Contains(got, e.Content) {
		t.Errorf("entry costing 13 tokens dropped under a 23 token budget: %q", got)
	}
	if got := FormatForContext([]Entry{e}, 22); got != ContextHeader {
		t.Errorf("budget 22: got %q, want header only", got)
	}
}

func TestFormatForContext_DefaultBudget(t *testing.T) {
	var entries []Entry
	for i := 0; i < 300; i++ {
		entries = append(entries, lineOf("e", 40))
	}
	got := FormatForContext(entries, 0)
	// (2000 - 10) / 10 = 199 entries fit.
	if n := strings.Count(got, "\n"); n != 199 {
		t.Errorf("entries rendered = %d, want 199", n)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
		{strings.Repeat("中", 40), 10},
		{"héllo", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%d chars) = %d, want %d", len(tt.in), got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := Truncate("héllo", 10); got != "héllo" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("日本語テキスト", 3); got != "日本語..." {
		t.Errorf("got %q", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567"}
	for in, want := range tests {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestProjectID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/Users/Me/src/app", "users-me-src-app"},
		{`C:\Work\App`, "c--work-app"},
		{"  relative/dir/  ", "relative-dir"},
	}
	for _, tt := range tests {
		if got := ProjectID(tt.in); got != tt.want {
			t.Errorf("ProjectID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if ProjectID("/a/b") != ProjectID("/a/b") {
		t.Error("ProjectID must be deterministic")
	}
}
