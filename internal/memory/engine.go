package memory

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultRecentLimit        = 50
	DefaultImportantThreshold = 0.7
	DefaultMaxAgeDays         = 30
	DefaultContextTokens      = 2000

	// RetentionExemptImportance is the importance above which an entry is
	// kept regardless of age.
	RetentionExemptImportance = 0.8
	// MinCompressEntries is the smallest number of non-summary entries a
	// session needs before CompressSession rewrites it.
	MinCompressEntries = 10
	// SummaryImportance is the importance of a synthesized session summary.
	SummaryImportance = 0.9
)

// NewStore returns an empty store for a project.
func NewStore(projectID string) Store {
	return Store{
		Version:     SchemaVersion,
		ProjectID:   projectID,
		LastUpdated: timeNow(),
		Entries:     []Entry{},
	}
}

// NewEntry builds an entry with a fresh ID and timestamp. Importance is
// clamped to [0,1].
func NewEntry(sessionID string, kind Kind, content string, importance float64, metadata map[string]any) Entry {
	return Entry{
		ID:         uuid.New().String(),
		Timestamp:  timeNow(),
		SessionID:  sessionID,
		Kind:       kind,
		Content:    content,
		Importance: clamp01(importance),
		Metadata:   metadata,
	}
}

// AddEntry returns a copy of s with e appended.
func AddEntry(s Store, e Entry) Store {
	return s.withEntries(append(copyEntries(s.Entries), e))
}

// Recent returns up to limit entries, newest first.
func Recent(s Store, limit int) []Entry {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	entries := copyEntries(s.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Important returns entries with importance >= threshold, most important
// first.
func Important(s Store, threshold float64) []Entry {
	if threshold <= 0 {
		threshold = DefaultImportantThreshold
	}
	var out []Entry
	for _, e := range s.Entries {
		if e.Importance >= threshold {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}

// PruneOld drops entries older than maxAgeDays unless their importance
// exceeds RetentionExemptImportance.
func PruneOld(s Store, maxAgeDays int) Store {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	cutoff := timeNow().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)

	kept := make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if !e.Timestamp.Before(cutoff) || e.Importance > RetentionExemptImportance {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.Entries) {
		return s
	}
	return s.withEntries(kept)
}

// CompressSession replaces all of a session's entries with one summary entry
// built from its decisions and findings. Sessions with fewer than
// MinCompressEntries non-summary entries are returned unchanged. Errors,
// preferences and context notes of the session are dropped. Earlier
// summaries of the session are folded into the new report under
// "Earlier:".
func CompressSession(s Store, sessionID string) Store {
	var decisions, findings, earlier []string
	var originals, removed int
	for _, e := range s.Entries {
		if e.SessionID != sessionID {
			continue
		}
		removed++
		if e.Kind == KindSummary {
			earlier = append(earlier, e.Content)
			continue
		}
		originals++
		switch e.Kind {
		case KindDecision:
			decisions = append(decisions, e.Content)
		case KindFinding:
			findings = append(findings, e.Content)
		}
	}
	if originals < MinCompressEntries {
		return s
	}

	kept := make([]Entry, 0, len(s.Entries)-removed+1)
	for _, e := range s.Entries {
		if e.SessionID == sessionID {
			continue
		}
		kept = append(kept, e)
	}

	summary := NewEntry(sessionID, KindSummary,
		sessionReport(sessionID, originals, decisions, findings, earlier),
		SummaryImportance,
		map[string]any{
			"compressedEntries": originals,
			"decisions":         len(decisions),
			"findings":          len(findings),
		},
	)
	return s.withEntries(append(kept, summary))
}

func sessionReport(sessionID string, total int, decisions, findings, earlier []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s summary (%d entries compressed).", sessionID, total)
	if len(decisions) > 0 {
		fmt.Fprintf(&b, "\nDecisions: %s", strings.Join(decisions, "; "))
	}
	if len(findings) > 0 {
		fmt.Fprintf(&b, "\nFindings: %s", strings.Join(findings, "; "))
	}
	if len(decisions) == 0 && len(findings) == 0 {
		b.WriteString("\nNo decisions or findings were recorded.")
	}
	if len(earlier) > 0 {
		fmt.Fprintf(&b, "\nEarlier: %s", strings.Join(earlier, " | "))
	}
	return b.String()
}

// RecallOptions tunes Recall. Zero values use the package defaults, except
// RecentLimit which defaults to 20.
type RecallOptions struct {
	ImportantThreshold float64
	RecentLimit        int
	MaxTokens          int
}

// Recall selects the entries worth handing to the agent (important ones plus
// the most recent ones, deduplicated by ID) and renders them within the
// token budget.
func Recall(s Store, opts RecallOptions) string {
	return FormatForContext(RecallEntries(s, opts), opts.MaxTokens)
}

// RecallEntries returns the deduplicated union used by Recall. The first
// occurrence of an ID wins.
func RecallEntries(s Store, opts RecallOptions) []Entry {
	recentLimit := opts.RecentLimit
	if recentLimit <= 0 {
		recentLimit = 20
	}

	seen := make(map[string]bool)
	var out []Entry
	for _, group := range [][]Entry{Important(s, opts.ImportantThreshold), Recent(s, recentLimit)} {
		for _, e := range group {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}

// Search is the in-memory fallback used when no full-text index is
// available: a case-insensitive match of every query word, newest first.
func Search(s Store, query string, limit int) []Entry {
	if limit <= 0 {
		limit = 10
	}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return Recent(s, limit)
	}

	var out []Entry
	for _, e := range Recent(s, len(s.Entries)) {
		content := strings.ToLower(e.Content)
		match := true
		for _, w := range words {
			if !strings.Contains(content, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// StatsOf computes aggregate counts for a store.
func StatsOf(s Store) Stats {
	st := Stats{TotalEntries: len(s.Entries), ByKind: make(map[Kind]int)}
	sessions := make(map[string]bool)
	for _, e := range s.Entries {
		st.ByKind[e.Kind]++
		sessions[e.SessionID] = true
		ts := e.Timestamp
		if st.Oldest == nil || ts.Before(*st.Oldest) {
			st.Oldest = &ts
		}
		if st.Newest == nil || ts.After(*st.Newest) {
			t := ts
			st.Newest = &t
		}
	}
	st.Sessions = len(sessions)
	return st
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s Store) withEntries(entries []Entry) Store {
	s.Entries = entries
	s.LastUpdated = timeNow()
	return s
}

func copyEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries), len(entries)+1)
	copy(out, entries)
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
