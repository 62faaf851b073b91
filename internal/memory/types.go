// Package memory implements the durable, per-project session memory.
//
// Memory is a log of typed entries (decisions, findings, errors, ...) kept in
// a single JSON document per project. The engine functions in this package
// are pure: every mutation takes a Store value and returns a new one. Manager
// owns the current snapshot for a session and decides when to persist it.
package memory

import (
	"fmt"
	"strings"
	"time"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// SchemaVersion is the only on-disk layout this package reads and writes.
const SchemaVersion = 1

// Kind classifies a memory entry.
type Kind string

const (
	KindDecision   Kind = "decision"
	KindFinding    Kind = "finding"
	KindError      Kind = "error"
	KindPreference Kind = "preference"
	KindContext    Kind = "context"
	KindSummary    Kind = "summary"
)

// Kinds lists every valid entry kind, in display order.
var Kinds = []Kind{KindDecision, KindFinding, KindError, KindPreference, KindContext, KindSummary}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// ParseKind normalizes and validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown memory kind %q", s)
	}
	return k, nil
}

// KindValues returns the kind names as strings, for tool schemas.
func KindValues() []string {
	out := make([]string, len(Kinds))
	for i, k := range Kinds {
		out[i] = string(k)
	}
	return out
}

// Entry is one durable unit of learned information.
type Entry struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"sessionId"`
	Kind       Kind           `json:"kind"`
	Content    string         `json:"content"`
	Importance float64        `json:"importance"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Store is the persisted memory of one project.
type Store struct {
	Version     int       `json:"version"`
	ProjectID   string    `json:"projectId"`
	LastUpdated time.Time `json:"lastUpdated"`
	Entries     []Entry   `json:"entries"`
}

// Stats holds aggregate counts over a store.
type Stats struct {
	TotalEntries int          `json:"total_entries"`
	ByKind       map[Kind]int `json:"by_kind"`
	Sessions     int          `json:"sessions"`
	Oldest       *time.Time   `json:"oldest,omitempty"`
	Newest       *time.Time   `json:"newest,omitempty"`
}
