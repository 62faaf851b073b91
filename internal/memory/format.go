package memory

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// ContextHeader opens every FormatForContext block.
	ContextHeader = "## Project Memory"
	// headerTokenCost is the fixed budget charged for the header line.
	headerTokenCost = 10
)

// FormatForContext renders entries as a markdown block for the agent, in the
// order given. Each line is charged EstimateTokens(line) against maxTokens,
// starting from the header cost; rendering stops before the first entry that
// would push the total over the budget.
func FormatForContext(entries []Entry, maxTokens int) string {
	if len(entries) == 0 {
		return ""
	}
	if maxTokens <= 0 {
		maxTokens = DefaultContextTokens
	}

	lines := []string{ContextHeader}
	used := headerTokenCost
	for _, e := range entries {
		line := fmt.Sprintf("- [%s] %s", e.Kind, e.Content)
		cost := EstimateTokens(line)
		if used+cost > maxTokens {
			break
		}
		lines = append(lines, line)
		used += cost
	}
	return strings.Join(lines, "\n")
}

// FormatEntries renders entries with their IDs and scores for listings
// (search results, stats), without a budget.
func FormatEntries(entries []Entry, contentMax int) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "[%d] %s (%s, importance %.2f, %s)\n    %s\n",
			i+1, shortID(e.ID), e.Kind, e.Importance,
			e.Timestamp.UTC().Format("2006-01-02 15:04"),
			Truncate(e.Content, contentMax),
		)
	}
	return b.String()
}

// ─── Token Estimation ───────────────────────────────────────────────────────

// EstimateTokens approximates the token count of text as ceil(chars/4),
// counting characters, not bytes.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// TokenFooter returns a one-line footer with the estimated token count
// for a tool response.
func TokenFooter(estimatedTokens int) string {
	return fmt.Sprintf("\n📏 ~%s tokens", formatNumber(estimatedTokens))
}

// BudgetFooter returns a footer indicating that a response was truncated
// due to a token budget constraint.
func BudgetFooter(tokensUsed, budget, shown, total int) string {
	return fmt.Sprintf("\n⚡ Budget: ~%s/%s tokens used. %d of %d entries shown. Increase max_tokens for more.",
		formatNumber(tokensUsed), formatNumber(budget), shown, total)
}

// Truncate shortens s to max runes, adding an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// formatNumber formats an integer with comma separators for readability.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
