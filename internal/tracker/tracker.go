// Package tracker keeps an in-memory record of what a coding session has
// looked at (files, symbols, searches, commands), scores each item by
// importance, and decides when the accumulated context should be compacted.
//
// A Tracker has no internal locking. It is owned by exactly one session,
// which serializes access to it.
package tracker

import (
	"sort"
	"strconv"
	"time"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Kind classifies a tracked item.
type Kind string

const (
	KindFile     Kind = "file"
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindSearch   Kind = "search"
	KindCommand  Kind = "command"
)

// baseImportance is the importance a freshly observed item starts with.
var baseImportance = map[Kind]float64{
	KindFile:     0.7,
	KindFunction: 0.8,
	KindClass:    0.8,
	KindSearch:   0.5,
	KindCommand:  0.6,
}

// defaultTokenCost is the estimate used when the caller supplies no cost,
// and when Prune recomputes the running total.
var defaultTokenCost = map[Kind]int{
	KindFile:     500,
	KindFunction: 200,
	KindClass:    300,
	KindSearch:   100,
	KindCommand:  200,
}

const (
	// repeatBoost is added to an item's importance each time it is re-observed.
	repeatBoost = 0.1
	// commandKeyLen bounds the command text used in a command item's key.
	commandKeyLen = 50
	// searchCostPerResult is the token estimate for one search hit.
	searchCostPerResult = 20

	DefaultRecentLimit    = 10
	DefaultPruneThreshold = 0.1
)

// BaseImportance returns the starting importance for a kind.
func BaseImportance(k Kind) float64 { return baseImportance[k] }

// DefaultTokenCost returns the default token estimate for a kind.
func DefaultTokenCost(k Kind) int { return defaultTokenCost[k] }

// Item is one observed unit of working context.
type Item struct {
	Path       string    `json:"path"`
	Kind       Kind      `json:"kind"`
	ViewedAt   time.Time `json:"viewed_at"`
	Importance float64   `json:"importance"`
	Summary    string    `json:"summary,omitempty"`
	TokenCost  int       `json:"token_cost"`
}

// State is an immutable snapshot of a tracker.
type State struct {
	Items               []Item     `json:"items"`
	TotalTokensEstimate int        `json:"total_tokens_estimate"`
	MaxTokens           int        `json:"max_tokens"`
	NeedsCompaction     bool       `json:"needs_compaction"`
	LastCompactionAt    *time.Time `json:"last_compaction_at,omitempty"`
}

// Ratio returns the fraction of the token budget in use.
func (s State) Ratio() float64 {
	if s.MaxTokens <= 0 {
		return 0
	}
	return float64(s.TotalTokensEstimate) / float64(s.MaxTokens)
}

// Config controls the tracker's budget and scoring policy.
type Config struct {
	MaxTokens           int
	CompactionThreshold float64
	DecayRate           float64
	// ExactPruneAccounting makes Prune recompute the running total from the
	// cost each item was added with instead of the per-kind default.
	ExactPruneAccounting bool
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:           100000,
		CompactionThreshold: 0.8,
		DecayRate:           0.95,
	}
}

// normalize replaces unusable values with their defaults so that every
// tracker operation stays total.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.CompactionThreshold <= 0 || c.CompactionThreshold > 1 {
		c.CompactionThreshold = def.CompactionThreshold
	}
	if c.DecayRate <= 0 || c.DecayRate > 1 {
		c.DecayRate = def.DecayRate
	}
	return c
}

// Tracker records observed items and the running token estimate.
type Tracker struct {
	cfg Config

	items []*Item
	index map[string]*Item

	totalTokens      int
	needsCompaction  bool
	lastCompactionAt *time.Time
}

// New creates an empty tracker.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:   cfg.normalize(),
		index: make(map[string]*Item),
	}
}

// Config returns the effective configuration.
func (t *Tracker) Config() Config { return t.cfg }

// TrackFile records a file read. A non-positive tokenCost uses the default.
func (t *Tracker) TrackFile(path string, tokenCost int, summary string) {
	t.track(path, KindFile, tokenCost, summary)
}

// TrackSymbol records a function-level symbol inside a file.
func (t *Tracker) TrackSymbol(path, symbol string, tokenCost int) {
	t.track(symbolKey(path, symbol), KindFunction, tokenCost, "")
}

// TrackClass records a class or type-level symbol inside a file.
func (t *Tracker) TrackClass(path, symbol string, tokenCost int) {
	t.track(symbolKey(path, symbol), KindClass, tokenCost, "")
}

// TrackSearch records a search query and how many hits it returned.
func (t *Tracker) TrackSearch(query string, resultCount int) {
	cost := 0
	summary := ""
	if resultCount > 0 {
		cost = resultCount * searchCostPerResult
		summary = pluralResults(resultCount)
	}
	t.track(SearchKey(query), KindSearch, cost, summary)
}

// TrackCommand records a shell command execution.
func (t *Tracker) TrackCommand(command string, tokenCost int) {
	t.track(CommandKey(command), KindCommand, tokenCost, truncate(command, 100))
}

// track applies the merge rule: a known key is refreshed and boosted without
// charging its cost again; a new key is appended and charged.
func (t *Tracker) track(key string, kind Kind, tokenCost int, summary string) {
	now := timeNow()

	if existing, ok := t.index[key]; ok {
		existing.ViewedAt = now
		existing.Importance = clamp01(existing.Importance + repeatBoost)
		if summary != "" {
			existing.Summary = summary
		}
		t.updateCompaction()
		return
	}

	if tokenCost <= 0 {
		tokenCost = defaultTokenCost[kind]
	}
	item := &Item{
		Path:       key,
		Kind:       kind,
		ViewedAt:   now,
		Importance: clamp01(baseImportance[kind]),
		Summary:    summary,
		TokenCost:  tokenCost,
	}
	t.items = append(t.items, item)
	t.index[key] = item
	t.totalTokens += tokenCost
	t.updateCompaction()
}

// State returns a snapshot that shares no memory with the tracker.
func (t *Tracker) State() State {
	st := State{
		Items:               t.copyItems(),
		TotalTokensEstimate: t.totalTokens,
		MaxTokens:           t.cfg.MaxTokens,
		NeedsCompaction:     t.needsCompaction,
	}
	if t.lastCompactionAt != nil {
		ts := *t.lastCompactionAt
		st.LastCompactionAt = &ts
	}
	return st
}

// HasSeen reports whether an item with exactly this key is tracked.
func (t *Tracker) HasSeen(path string) bool {
	_, ok := t.index[path]
	return ok
}

// Get returns a copy of the item stored under key.
func (t *Tracker) Get(path string) (Item, bool) {
	it, ok := t.index[path]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

// Len returns the number of tracked items.
func (t *Tracker) Len() int { return len(t.items) }

// Recent returns up to limit items, most recently viewed first.
func (t *Tracker) Recent(limit int) []Item {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	items := t.copyItems()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ViewedAt.After(items[j].ViewedAt)
	})
	return head(items, limit)
}

// ByImportance returns all items, most important first. Ties keep
// insertion order.
func (t *Tracker) ByImportance() []Item {
	items := t.copyItems()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Importance > items[j].Importance
	})
	return items
}

// Important returns the limit most important items. A non-positive limit
// returns all of them.
func (t *Tracker) Important(limit int) []Item {
	items := t.ByImportance()
	if limit <= 0 {
		return items
	}
	return head(items, limit)
}

// ApplyDecay fades every item's importance by the configured rate.
func (t *Tracker) ApplyDecay() {
	for _, it := range t.items {
		it.Importance = clamp01(it.Importance * t.cfg.DecayRate)
	}
	t.updateCompaction()
}

// Prune drops items whose importance is strictly below threshold and returns
// them. The running total is recomputed from the survivors.
func (t *Tracker) Prune(threshold float64) []Item {
	if threshold <= 0 {
		threshold = DefaultPruneThreshold
	}

	var kept []*Item
	var removed []Item
	total := 0
	for _, it := range t.items {
		if it.Importance < threshold {
			removed = append(removed, *it)
			delete(t.index, it.Path)
			continue
		}
		kept = append(kept, it)
		if t.cfg.ExactPruneAccounting {
			total += it.TokenCost
		} else {
			total += defaultTokenCost[it.Kind]
		}
	}

	t.items = kept
	t.totalTokens = total
	t.updateCompaction()
	return removed
}

// MarkCompacted acknowledges that an external compaction happened. Items are
// left in place.
func (t *Tracker) MarkCompacted() {
	now := timeNow()
	t.needsCompaction = false
	t.lastCompactionAt = &now
}

// Reset forgets every item and the compaction history.
func (t *Tracker) Reset() {
	t.items = nil
	t.index = make(map[string]*Item)
	t.totalTokens = 0
	t.needsCompaction = false
	t.lastCompactionAt = nil
}

func (t *Tracker) updateCompaction() {
	ratio := float64(t.totalTokens) / float64(t.cfg.MaxTokens)
	t.needsCompaction = ratio >= t.cfg.CompactionThreshold
}

func (t *Tracker) copyItems() []Item {
	out := make([]Item, len(t.items))
	for i, it := range t.items {
		out[i] = *it
	}
	return out
}

// ─── Keys ───────────────────────────────────────────────────────────────────

// SearchKey returns the tracker key for a search query.
func SearchKey(query string) string { return "search:" + query }

// CommandKey returns the tracker key for a shell command.
func CommandKey(command string) string {
	return "cmd:" + truncateRunes(command, commandKeyLen)
}

func symbolKey(path, symbol string) string { return path + "#" + symbol }

// ─── Helpers ────────────────────────────────────────────────────────────────

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func head(items []Item, n int) []Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func pluralResults(n int) string {
	if n == 1 {
		return "1 result"
	}
	return strconv.Itoa(n) + " results"
}
