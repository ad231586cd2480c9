package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sciencetwins/twins/internal/types"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), ".session.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.Mode() != types.DefaultMode {
		t.Errorf("Mode() = %s, want %s", m.Mode(), types.DefaultMode)
	}
	if !m.IsHistoryEnabled() {
		t.Error("history should default to enabled")
	}
}

func TestSetMode_PersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session.json")

	m := NewManagerAt(path)
	if err := m.SetMode(types.ModeDoppelganger); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}
	if err := m.SetHistoryEnabled(false); err != nil {
		t.Fatalf("SetHistoryEnabled() error = %v", err)
	}

	reloaded := NewManagerAt(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if reloaded.Mode() != types.ModeDoppelganger {
		t.Errorf("Mode() = %s, want doppelganger", reloaded.Mode())
	}
	if reloaded.IsHistoryEnabled() {
		t.Error("history should stay disabled")
	}
}

func TestSetMode_RejectsUnknown(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), ".session.json"))
	if err := m.SetMode("summary"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if m.Mode() != types.DefaultMode {
		t.Errorf("Mode() = %s", m.Mode())
	}
}

func TestLoad_InvalidModeFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session.json")
	os.WriteFile(path, []byte(`{"mode":"summary"}`), 0644)

	m := NewManagerAt(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Mode() != types.DefaultMode {
		t.Errorf("Mode() = %s, want default", m.Mode())
	}
	if !m.IsHistoryEnabled() {
		t.Error("missing historyEnabled should default to true")
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".session.json")
	os.WriteFile(path, []byte(`{not json`), 0644)

	if err := NewManagerAt(path).Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAddRecentFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerAt(filepath.Join(dir, ".session.json"))

	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.pdf")
	m.AddRecentFile(a)
	m.AddRecentFile(b)
	m.AddRecentFile(a)

	recent := m.GetRecentFiles()
	if len(recent) != 2 || recent[0] != a || recent[1] != b {
		t.Errorf("GetRecentFiles() = %v", recent)
	}

	for i := 0; i < maxRecentFiles+5; i++ {
		m.AddRecentFile(filepath.Join(dir, "many", string(rune('a'+i))+".pdf"))
	}
	if len(m.GetRecentFiles()) != maxRecentFiles {
		t.Errorf("len = %d, want %d", len(m.GetRecentFiles()), maxRecentFiles)
	}

	if got := m.CompleteRecent(filepath.Join(dir, "many")); len(got) != maxRecentFiles {
		t.Errorf("CompleteRecent() = %d matches", len(got))
	}
}
