package memory_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/ctxkeeper/internal/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePersister records saves and can be told to fail.
type fakePersister struct {
	loaded  memory.Store
	loadErr error
	saveErr error
	saves   int
	saved   memory.Store
}

func (f *fakePersister) Load(projectID string) (memory.Store, error) {
	if f.loadErr != nil {
		return memory.NewStore(projectID), f.loadErr
	}
	if f.loaded.Version == 0 {
		return memory.NewStore(projectID), nil
	}
	return f.loaded, nil
}

func (f *fakePersister) Save(s memory.Store) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = s
	return nil
}

func TestManager_OpenMissingFile(t *testing.T) {
	m := memory.Open(memory.NewFileStore(filepath.Join(t.TempDir(), "memory.json")), "p", quietLogger())
	if n := len(m.Snapshot().Entries); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
	if m.Dirty() {
		t.Error("fresh manager should be clean")
	}
}

func TestManager_OpenCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := memory.Open(memory.NewFileStore(path), "p", quietLogger())
	if n := len(m.Snapshot().Entries); n != 0 {
		t.Errorf("entries = %d, want 0", n)
	}
}

func TestManager_FlushPersistsOnlyWhenDirty(t *testing.T) {
	p := &fakePersister{}
	m := memory.Open(p, "p", quietLogger())

	m.Flush()
	if p.saves != 0 {
		t.Fatalf("clean flush saved %d times", p.saves)
	}

	e := m.Add("s1", memory.KindDecision, "use sqlite", 0.8, nil)
	if !m.Dirty() {
		t.Fatal("Add should mark dirty")
	}
	m.Flush()
	if p.saves != 1 || m.Dirty() {
		t.Fatalf("saves = %d, dirty = %v", p.saves, m.Dirty())
	}
	if len(p.saved.Entries) != 1 || p.saved.Entries[0].ID != e.ID {
		t.Errorf("saved = %+v", p.saved.Entries)
	}

	m.Flush()
	if p.saves != 1 {
		t.Errorf("second flush saved again")
	}
}

func TestManager_FailedFlushKeepsStateAndRetries(t *testing.T) {
	p := &fakePersister{saveErr: errors.New("disk full")}
	m := memory.Open(p, "p", quietLogger())
	m.Add("s1", memory.KindFinding, "important thing", 0.5, nil)

	if err := m.FlushErr(); err == nil {
		t.Fatal("expected save error")
	}
	m.Flush() // must not panic or report
	if !m.Dirty() {
		t.Error("failed flush must leave manager dirty")
	}
	if n := len(m.Snapshot().Entries); n != 1 {
		t.Errorf("entries = %d, want 1 retained", n)
	}

	p.saveErr = nil
	if err := m.FlushErr(); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if m.Dirty() || len(p.saved.Entries) != 1 {
		t.Errorf("retry did not persist: dirty=%v saved=%d", m.Dirty(), len(p.saved.Entries))
	}
}

func TestManager_FileRoundTrip(t *testing.T) {
	path := memory.DefaultPath(t.TempDir())
	m := memory.Open(memory.NewFileStore(path), "p", quietLogger())
	e := m.Add("s1", memory.KindPreference, "tabs over spaces", 0.9, nil)
	if err := m.FlushErr(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened := memory.Open(memory.NewFileStore(path), "p", quietLogger())
	got := reopened.Snapshot().Entries
	if len(got) != 1 || got[0].ID != e.ID {
		t.Errorf("reopened entries = %+v", got)
	}
}

func TestManager_CompressAndPrune(t *testing.T) {
	p := &fakePersister{}
	m := memory.Open(p, "p", quietLogger())
	for i := 0; i < 9; i++ {
		m.Add("s1", memory.KindDecision, "d", 0.5, nil)
	}
	if m.Compress("s1") {
		t.Error("9 entries should not compress")
	}
	m.Add("s1", memory.KindFinding, "f", 0.5, nil)
	if !m.Compress("s1") {
		t.Fatal("10 entries should compress")
	}
	if n := len(m.Snapshot().Entries); n != 1 {
		t.Errorf("entries after compress = %d, want 1", n)
	}

	if removed := m.Prune(30); removed != 0 {
		t.Errorf("pruned %d fresh entries", removed)
	}
}

func TestManager_RecallAndStats(t *testing.T) {
	m := memory.Open(&fakePersister{}, "p", quietLogger())
	m.Add("s1", memory.KindDecision, "adopt chi router", 0.9, nil)
	m.Add("s2", memory.KindContext, "repo uses go 1.23", 0.3, nil)

	out := m.Recall(memory.RecallOptions{})
	if !strings.Contains(out, "adopt chi router") || !strings.Contains(out, "repo uses go 1.23") {
		t.Errorf("recall = %q", out)
	}
	st := m.Stats()
	if st.TotalEntries != 2 || st.Sessions != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestManager_SearchUsesIndex(t *testing.T) {
	ix, err := memory.OpenIndex("")
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { ix.Close() })

	m := memory.Open(&fakePersister{}, "p", quietLogger())
	m.AttachIndex(ix)
	m.Add("s1", memory.KindFinding, "the sqlite driver is pure Go", 0.5, nil)
	m.Add("s1", memory.KindFinding, "chi handles routing", 0.5, nil)

	got := m.Search("sqlite", 10)
	if len(got) != 1 || !strings.Contains(got[0].Content, "sqlite") {
		t.Errorf("search = %+v", got)
	}
	if ix.Len() != 2 {
		t.Errorf("index len = %d, want 2 after stale rebuild", ix.Len())
	}
}

func TestManager_SearchEmptyIndexResultIsFinal(t *testing.T) {
	ix, err := memory.OpenIndex("")
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { ix.Close() })

	m := memory.Open(&fakePersister{}, "p", quietLogger())
	m.AttachIndex(ix)
	m.Add("s1", memory.KindFinding, "the pointer receiver matters", 0.5, nil)

	// "point" is a substring of "pointer" but not an FTS token of it.
	if got := m.Search("point", 10); len(got) != 0 {
		t.Errorf("index miss fell through to substring scan: %+v", got)
	}
	// Punctuation-only queries have no tokens and use the scan.
	m.Add("s1", memory.KindError, "segfault at -> deref", 0.5, nil)
	if got := m.Search("->", 10); len(got) != 1 {
		t.Errorf("search(->) = %+v, want scan hit", got)
	}
}

func TestManager_SearchFallbackWithoutIndex(t *testing.T) {
	m := memory.Open(&fakePersister{}, "p", quietLogger())
	m.Add("s1", memory.KindError, "nil pointer in handler", 0.5, nil)
	got := m.Search("POINTER", 10)
	if len(got) != 1 {
		t.Errorf("search = %+v", got)
	}
}
