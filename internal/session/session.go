// Package session ties one agent session's context tracker and durable
// memory together.
//
// A Session is the single owner of both components. Neither the tracker nor
// the memory manager locks, so every exported method here takes the
// session's mutex; the MCP server and the HTTP API may call in concurrently.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/HendryAvila/ctxkeeper/internal/config"
	"github.com/HendryAvila/ctxkeeper/internal/memory"
	"github.com/HendryAvila/ctxkeeper/internal/metrics"
	"github.com/HendryAvila/ctxkeeper/internal/tracker"
)

// Options configures a new Session. Persister is required; the rest have
// usable zero values.
type Options struct {
	ID          string
	ProjectRoot string
	Config      config.Config
	Persister   memory.Persister
	Index       *memory.Index
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Session is one agent session bound to a project.
type Session struct {
	ProjectRoot string

	mu      sync.Mutex
	id      string
	cfg     config.Config
	tracker *tracker.Tracker
	memory  *memory.Manager
	index   *memory.Index
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New opens the project's memory and starts an empty tracker.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	projectID := memory.ProjectID(opts.ProjectRoot)
	mgr := memory.Open(opts.Persister, projectID, logger.With("component", "memory"))
	if opts.Index != nil {
		mgr.AttachIndex(opts.Index)
	}

	s := &Session{
		ProjectRoot: opts.ProjectRoot,
		id:          id,
		cfg:         opts.Config,
		tracker:     tracker.New(opts.Config.TrackerOptions()),
		memory:      mgr,
		index:       opts.Index,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "session"),
	}
	s.observe()
	s.logger.Info("session opened", "session", id, "project", projectID, "memory_entries", len(mgr.Snapshot().Entries))
	return s
}

// ID returns the current session ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// ─── Event handling ─────────────────────────────────────────────────────────

// HandleTool applies decay to what is already tracked and then records ev.
func (s *Session) HandleTool(ev ToolEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.tracker.State().NeedsCompaction
	s.tracker.ApplyDecay()

	switch e := ev.(type) {
	case FileRead:
		s.tracker.TrackFile(e.Path, e.TokenCost, "")
	case Search:
		s.tracker.TrackSearch(e.Query, e.ResultCount)
	case Command:
		s.tracker.TrackCommand(e.Command, e.TokenCost)
	}
	s.metrics.ToolEvent(ev.Kind())

	if st := s.tracker.State(); st.NeedsCompaction && !before {
		s.metrics.CompactionSignaled()
		s.logger.Warn("context budget threshold crossed",
			"session", s.id, "tokens", st.TotalTokensEstimate, "max_tokens", st.MaxTokens)
	}
	s.observe()
}

// HandleRawTool decodes raw and handles the result.
func (s *Session) HandleRawTool(raw RawToolEvent) (ToolEvent, error) {
	ev, err := DecodeToolEvent(raw)
	if err != nil {
		return nil, err
	}
	s.HandleTool(ev)
	return ev, nil
}

// EventReport describes what a lifecycle event did.
type EventReport struct {
	Event      Event  `json:"event"`
	SessionID  string `json:"session_id"`
	Reset      bool   `json:"reset,omitempty"`
	Compressed bool   `json:"compressed,omitempty"`
	Pruned     int    `json:"pruned,omitempty"`
	Flushed    bool   `json:"flushed,omitempty"`
	// Pending is true when memory still has unsaved changes after the event.
	Pending bool `json:"pending,omitempty"`
}

// HandleSessionEvent applies a lifecycle event. A non-empty sessionID on
// start adopts that ID for the new session.
func (s *Session) HandleSessionEvent(ev Event, sessionID string) EventReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := EventReport{Event: ev}
	switch ev {
	case EventStart:
		if sessionID != "" {
			s.id = sessionID
		}
		s.tracker.Reset()
		rep.Reset = true

	case EventIdle:
		rep.Flushed = s.flush()

	case EventEnd:
		if s.cfg.Memory.CompressOnEnd {
			rep.Compressed = s.memory.Compress(s.id)
		}
		if s.cfg.Memory.PruneOnEnd {
			rep.Pruned = s.memory.Prune(s.cfg.Memory.RetentionDays)
		}
		rep.Flushed = s.flush()
	}
	rep.SessionID = s.id
	rep.Pending = s.memory.Dirty()

	s.metrics.SessionEvent(string(ev))
	s.logger.Info("session event", "event", ev, "session", s.id,
		"compressed", rep.Compressed, "pruned", rep.Pruned, "pending", rep.Pending)
	s.observe()
	return rep
}

// flush persists memory and reports whether anything was written. Callers
// hold s.mu.
func (s *Session) flush() bool {
	if !s.memory.Dirty() {
		return false
	}
	err := s.memory.FlushErr()
	s.metrics.Flushed(err)
	return err == nil
}

// Flush persists pending memory changes.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush()
}

// Close flushes memory and releases the search index.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush()
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return fmt.Errorf("session: close index: %w", err)
		}
		s.index = nil
	}
	return nil
}

// ─── Context queries ────────────────────────────────────────────────────────

// Status is a point-in-time view of the session.
type Status struct {
	SessionID     string        `json:"session_id"`
	ProjectRoot   string        `json:"project_root"`
	Context       tracker.State `json:"context"`
	UsageRatio    float64       `json:"usage_ratio"`
	MemoryEntries int           `json:"memory_entries"`
	MemoryPending bool          `json:"memory_pending"`
}

// Status returns the current session status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.tracker.State()
	return Status{
		SessionID:     s.id,
		ProjectRoot:   s.ProjectRoot,
		Context:       st,
		UsageRatio:    st.Ratio(),
		MemoryEntries: len(s.memory.Snapshot().Entries),
		MemoryPending: s.memory.Dirty(),
	}
}

// ContextPrompt renders the tracker for an LLM prompt.
func (s *Session) ContextPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.FormatForPrompt()
}

// CheckSeen looks up a tracked path.
func (s *Session) CheckSeen(path string) (tracker.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Get(path)
}

// Recent returns the most recently viewed items.
func (s *Session) Recent(limit int) []tracker.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Recent(limit)
}

// Important returns the highest scoring items.
func (s *Session) Important(limit int) []tracker.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Important(limit)
}

// MarkCompacted records that the host compacted its context.
func (s *Session) MarkCompacted() tracker.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.MarkCompacted()
	s.observe()
	return s.tracker.State()
}

// PruneContext drops low-importance items from the tracker. A threshold
// <= 0 uses the configured prune threshold.
func (s *Session) PruneContext(threshold float64) []tracker.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if threshold <= 0 {
		threshold = s.cfg.Tracker.PruneThreshold
	}
	removed := s.tracker.Prune(threshold)
	s.observe()
	return removed
}

// ─── Memory queries ─────────────────────────────────────────────────────────

// Recall renders durable memory for the agent using the configured limits.
func (s *Session) Recall() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Recall(s.cfg.RecallOptions())
}

// RecallWith renders durable memory with explicit limits. Zero fields fall
// back to the configured values.
func (s *Session) RecallWith(opts memory.RecallOptions) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	def := s.cfg.RecallOptions()
	if opts.ImportantThreshold <= 0 {
		opts.ImportantThreshold = def.ImportantThreshold
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = def.RecentLimit
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	return s.memory.Recall(opts)
}

// SearchMemory finds memory entries matching query.
func (s *Session) SearchMemory(query string, limit int) []memory.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Search(query, limit)
}

// Remember adds an entry to durable memory under the current session ID.
// It is persisted on the next flush.
func (s *Session) Remember(kind memory.Kind, content string, importance float64, metadata map[string]any) memory.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.memory.Add(s.id, kind, content, importance, metadata)
	s.observe()
	return e
}

// CompressMemory folds a session's entries into a summary. An empty
// sessionID means the current session.
func (s *Session) CompressMemory(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID == "" {
		sessionID = s.id
	}
	ok := s.memory.Compress(sessionID)
	s.observe()
	return ok
}

// PruneMemory applies the retention policy. maxAgeDays <= 0 uses the
// configured retention.
func (s *Session) PruneMemory(maxAgeDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxAgeDays <= 0 {
		maxAgeDays = s.cfg.Memory.RetentionDays
	}
	n := s.memory.Prune(maxAgeDays)
	s.observe()
	return n
}

// MemoryStats returns aggregate counts over durable memory.
func (s *Session) MemoryStats() memory.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Stats()
}

// observe pushes gauges. Callers hold s.mu.
func (s *Session) observe() {
	st := s.tracker.State()
	s.metrics.ObserveTracker(len(st.Items), st.TotalTokensEstimate, st.MaxTokens)
	s.metrics.ObserveMemory(len(s.memory.Snapshot().Entries))
}
