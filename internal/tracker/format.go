package tracker

import (
	"fmt"
	"strings"
)

// promptSectionSize caps each section of FormatForPrompt.
const promptSectionSize = 5

// FormatForPrompt renders the tracker as a compact block for an LLM prompt:
// the most recently viewed items, the most important items and, when the
// budget threshold is crossed, a trailing compaction warning.
func (t *Tracker) FormatForPrompt() string {
	if len(t.items) == 0 && !t.needsCompaction {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Session Context\n\n")
	fmt.Fprintf(&b, "Tracked: %d items, ~%d/%d tokens (%.0f%%)\n",
		len(t.items), t.totalTokens, t.cfg.MaxTokens, t.ratio()*100)

	if recent := t.Recent(promptSectionSize); len(recent) > 0 {
		b.WriteString("\n### Recently viewed\n")
		for _, it := range recent {
			b.WriteString(formatItemLine(it, false))
		}
	}

	if important := t.Important(promptSectionSize); len(important) > 0 {
		b.WriteString("\n### Most important\n")
		for _, it := range important {
			b.WriteString(formatItemLine(it, true))
		}
	}

	if t.needsCompaction {
		fmt.Fprintf(&b, "\n⚠️ Context usage is at %.0f%% of the budget. Consider compacting: summarize findings and drop stale context.\n",
			t.ratio()*100)
	}

	return b.String()
}

func formatItemLine(it Item, withScore bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] %s", it.Kind, it.Path)
	if withScore {
		fmt.Fprintf(&b, " (%.2f)", it.Importance)
	}
	if it.Summary != "" {
		fmt.Fprintf(&b, ": %s", it.Summary)
	}
	b.WriteString("\n")
	return b.String()
}

func (t *Tracker) ratio() float64 {
	return float64(t.totalTokens) / float64(t.cfg.MaxTokens)
}
