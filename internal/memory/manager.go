package memory

import (
	"errors"
	"io/fs"
	"log/slog"
)

// Manager owns the current memory snapshot of one session. Engine results
// replace the snapshot; Flush hands it to the Persister when it changed.
//
// Manager does no locking. The session that owns it serializes access.
type Manager struct {
	persister Persister
	index     *Index
	logger    *slog.Logger

	store      Store
	dirty      bool
	indexStale bool
}

// Open loads the project's store through p. Any load failure leaves the
// manager with an empty store; only damage is logged, a missing file is the
// normal first run.
func Open(p Persister, projectID string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{persister: p, logger: logger}

	s, err := p.Load(projectID)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("no memory file yet, starting fresh", "project", projectID)
		s = NewStore(projectID)
	default:
		logger.Warn("memory load failed, starting with empty store", "project", projectID, "error", err)
		s = NewStore(projectID)
	}
	m.store = s
	return m
}

// AttachIndex makes m keep ix in sync with its snapshot. The index is
// rebuilt immediately.
func (m *Manager) AttachIndex(ix *Index) {
	m.index = ix
	m.refreshIndex()
}

// Snapshot returns the current store value.
func (m *Manager) Snapshot() Store {
	return m.store
}

// Dirty reports whether the snapshot has unsaved changes.
func (m *Manager) Dirty() bool {
	return m.dirty
}

func (m *Manager) replace(s Store) {
	m.store = s
	m.dirty = true
	m.indexStale = true
}

// Add records a new entry and returns it.
func (m *Manager) Add(sessionID string, kind Kind, content string, importance float64, metadata map[string]any) Entry {
	e := NewEntry(sessionID, kind, content, importance, metadata)
	m.replace(AddEntry(m.store, e))
	return e
}

// Compress folds the session's entries into a summary. It reports whether
// the store changed.
func (m *Manager) Compress(sessionID string) bool {
	before := len(m.store.Entries)
	next := CompressSession(m.store, sessionID)
	if len(next.Entries) == before {
		return false
	}
	m.replace(next)
	return true
}

// Prune applies the retention policy and returns how many entries were
// removed.
func (m *Manager) Prune(maxAgeDays int) int {
	before := len(m.store.Entries)
	next := PruneOld(m.store, maxAgeDays)
	removed := before - len(next.Entries)
	if removed > 0 {
		m.replace(next)
	}
	return removed
}

// Flush persists the snapshot if it changed. A failed save is logged and
// the snapshot stays dirty so a later flush retries; Flush itself never
// fails.
func (m *Manager) Flush() {
	_ = m.FlushErr()
}

// FlushErr is Flush for callers that want to see the save error.
func (m *Manager) FlushErr() error {
	if !m.dirty {
		return nil
	}
	if err := m.persister.Save(m.store); err != nil {
		m.logger.Error("memory flush failed", "project", m.store.ProjectID, "entries", len(m.store.Entries), "error", err)
		return err
	}
	m.dirty = false
	m.logger.Debug("memory flushed", "project", m.store.ProjectID, "entries", len(m.store.Entries))
	m.refreshIndex()
	return nil
}

// Recall renders the entries worth handing to the agent.
func (m *Manager) Recall(opts RecallOptions) string {
	return Recall(m.store, opts)
}

// Search finds entries matching query, through the full-text index when one
// is attached and the in-memory scan otherwise. An index answer is final,
// including an empty one. The scan is used when the index is missing, stale
// after a failed rebuild, errors, or gets a query with no searchable words.
func (m *Manager) Search(query string, limit int) []Entry {
	if m.index != nil {
		if m.indexStale {
			m.refreshIndex()
		}
		if !m.indexStale {
			results, err := m.index.Search(query, limit)
			switch {
			case err != nil:
				m.logger.Warn("index search failed, using scan", "query", query, "error", err)
			case results != nil:
				return results
			}
		}
	}
	return Search(m.store, query, limit)
}

// Stats returns aggregate counts over the snapshot.
func (m *Manager) Stats() Stats {
	return StatsOf(m.store)
}

func (m *Manager) refreshIndex() {
	if m.index == nil {
		return
	}
	if err := m.index.Rebuild(m.store); err != nil {
		m.logger.Warn("index rebuild failed", "error", err)
		return
	}
	m.indexStale = false
}
