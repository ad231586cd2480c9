package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/keybinds"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/session"
	"github.com/sciencetwins/twins/internal/types"
)

func TestNew_RestoresSessionMode(t *testing.T) {
	mgr := session.NewManagerAt(filepath.Join(t.TempDir(), ".session.json"))
	if err := mgr.SetMode(types.ModeDoppelganger); err != nil {
		t.Fatal(err)
	}

	m, err := New(Options{
		Settings:  config.DefaultSettings(),
		Session:   mgr,
		Submitter: &fakeSubmitter{},
		Keybinds:  keybinds.NewDefaultRegistry(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := m.ctrl.Snapshot().Input.Mode; got != types.ModeDoppelganger {
		t.Errorf("mode = %s, want doppelganger", got)
	}
	if got := m.currentView().Kind(); got != results.KindPrompt {
		t.Errorf("initial view = %s, want prompt", got)
	}
}

func TestToggleMode_Persists(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{resp: noPlagiarism()})

	tm.press("tab")
	if got := tm.ctrl.Snapshot().Input.Mode; got != types.ModeDoppelganger {
		t.Fatalf("mode after tab = %s", got)
	}
	if tm.session.Mode() != types.ModeDoppelganger {
		t.Error("mode not saved to the session")
	}
	if !strings.Contains(tm.View(), types.ModeDoppelganger.Hint()) {
		t.Error("view does not show the doppelganger hint")
	}

	tm.press("tab")
	if got := tm.ctrl.Snapshot().Input.Mode; got != types.ModePlagiarism {
		t.Errorf("mode after second tab = %s", got)
	}
}

func TestSubmit_DisabledWithoutInput(t *testing.T) {
	sub := &fakeSubmitter{resp: noPlagiarism()}
	tm := CreateTestModel(t, sub)

	tm.typeText("   ")
	tm.press("ctrl+s")

	if tm.ctrl.State().Phase != lifecycle.Idle {
		t.Errorf("phase = %s, want idle", tm.ctrl.State().Phase)
	}
	if sub.calls != 0 {
		t.Errorf("submitter called %d times", sub.calls)
	}
	if !strings.Contains(tm.renderActionLine(), "to enable") {
		t.Errorf("action line = %q", tm.renderActionLine())
	}
}

func TestSubmit_Success(t *testing.T) {
	sub := &fakeSubmitter{resp: noPlagiarism()}
	tm := CreateTestModel(t, sub)

	tm.typeText("A sentence worth checking.")
	if got := tm.ctrl.Snapshot().Input.Text; got != "A sentence worth checking." {
		t.Fatalf("controller text = %q", got)
	}

	cmd := tm.press("ctrl+s")
	if !tm.ctrl.State().Loading() {
		t.Fatal("not loading after submit")
	}
	if !strings.Contains(tm.renderActionLine(), types.ModePlagiarism.ActionLabel(true)) {
		t.Errorf("action line while loading = %q", tm.renderActionLine())
	}

	tm.deliver(t, runCmd(cmd))

	if tm.ctrl.State().Phase != lifecycle.Succeeded {
		t.Fatalf("phase = %s", tm.ctrl.State().Phase)
	}
	if !strings.Contains(tm.resultView.View(), results.NoPlagiarismText) {
		t.Errorf("result panel = %q", tm.resultView.View())
	}
	if count, _ := tm.history.GetCount(); count != 1 {
		t.Errorf("history count = %d, want 1", count)
	}
	if tm.requestState.Active() {
		t.Error("cancel function kept after completion")
	}
}

func TestSubmit_FailureShowsGenericMessage(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{err: &executor.RequestFailed{Status: 502}})

	tm.typeText("text")
	tm.analyze(t)

	if tm.ctrl.State().Phase != lifecycle.Failed {
		t.Fatalf("phase = %s", tm.ctrl.State().Phase)
	}
	view := tm.resultView.View()
	if !strings.Contains(view, lifecycle.GenericFailureMessage) {
		t.Errorf("result panel = %q", view)
	}
	if strings.Contains(view, "502") {
		t.Error("status code leaked into the message")
	}
}

func TestCancelRequest(t *testing.T) {
	sub := &fakeSubmitter{block: make(chan struct{})}
	tm := CreateTestModel(t, sub)

	tm.typeText("long text")
	cmd := tm.press("ctrl+s")

	done := make(chan []tea.Msg)
	go func() {
		done <- runCmd(cmd)
	}()

	tm.press("esc")
	tm.deliver(t, <-done)

	if tm.ctrl.State().Phase != lifecycle.Failed {
		t.Errorf("phase after cancel = %s, want failed", tm.ctrl.State().Phase)
	}
}

func TestInputsLockedWhileLoading(t *testing.T) {
	sub := &fakeSubmitter{block: make(chan struct{})}
	tm := CreateTestModel(t, sub)

	tm.typeText("draft")
	cmd := tm.press("ctrl+s")

	tm.typeText(" more")
	tm.press("tab")

	snap := tm.ctrl.Snapshot()
	if snap.Input.Text != "draft" || tm.editor.Value() != "draft" {
		t.Errorf("text changed while loading: %q / %q", snap.Input.Text, tm.editor.Value())
	}
	if snap.Input.Mode != types.ModePlagiarism {
		t.Error("mode changed while loading")
	}

	close(sub.block)
	tm.deliver(t, runCmd(cmd))
	if tm.ctrl.State().Loading() {
		t.Error("still loading")
	}
}

func TestStaleResultIgnored(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{})

	tm.Update(analysisDoneMsg{id: "not-current", resp: noPlagiarism()})
	if tm.ctrl.State().Phase != lifecycle.Idle {
		t.Errorf("phase = %s, want idle", tm.ctrl.State().Phase)
	}
}

func TestCopyResult(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{resp: noPlagiarism()})

	tm.press("shift+tab")
	tm.press("y")
	if len(tm.copied) != 0 {
		t.Fatal("copied before any result")
	}

	tm.press("shift+tab")
	tm.typeText("text")
	tm.analyze(t)
	tm.press("shift+tab")
	if tm.focus != FocusResults {
		t.Fatal("focus did not move to results")
	}
	tm.press("y")

	if len(tm.copied) != 1 {
		t.Fatalf("copied %d times", len(tm.copied))
	}
	if !strings.Contains(tm.copied[0], results.NoPlagiarismText) || strings.Contains(tm.copied[0], "\x1b[") {
		t.Errorf("copied = %q", tm.copied[0])
	}
}

func TestCopyResult_ClipboardError(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{resp: noPlagiarism()})
	tm.copyText = func(string) error { return errors.New("no clipboard utility") }

	tm.typeText("text")
	tm.analyze(t)
	tm.press("shift+tab")
	tm.press("y")

	if !strings.Contains(tm.errorMsg, "no clipboard utility") {
		t.Errorf("errorMsg = %q", tm.errorMsg)
	}
}

func TestFilePrompt(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "paper.pdf")
	txtPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4\n%%EOF\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(txtPath, []byte("plain notes"), 0644); err != nil {
		t.Fatal(err)
	}

	tm := CreateTestModel(t, &fakeSubmitter{resp: noPlagiarism()})

	tests := []struct {
		name     string
		path     string
		wantFile bool
	}{
		{"non-PDF is ignored", txtPath, false},
		{"PDF is selected", pdfPath, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm.press("ctrl+o")
			if tm.screen != ScreenFilePrompt {
				t.Fatalf("screen = %d", tm.screen)
			}
			tm.typeText(tt.path)
			tm.press("enter")

			if tm.screen != ScreenMain {
				t.Errorf("prompt still open")
			}
			file := tm.ctrl.Snapshot().Input.File
			if (file != nil) != tt.wantFile {
				t.Errorf("file = %+v, want selected %v", file, tt.wantFile)
			}
			if tm.errorMsg != "" {
				t.Errorf("errorMsg = %q", tm.errorMsg)
			}
		})
	}

	if recent := tm.session.GetRecentFiles(); len(recent) != 1 || recent[0] != pdfPath {
		t.Errorf("recent files = %v", recent)
	}
	if !tm.ctrl.CanSubmit() {
		t.Error("a selected PDF should enable submit")
	}

	tm.press("ctrl+x")
	if tm.ctrl.Snapshot().Input.File != nil {
		t.Error("ctrl+x did not clear the file")
	}
}

func TestFilePrompt_MissingFile(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{})

	tm.press("ctrl+o")
	tm.typeText(filepath.Join(t.TempDir(), "gone.pdf"))
	tm.press("enter")

	if tm.errorMsg == "" {
		t.Error("expected an error for a missing file")
	}
	if tm.ctrl.Snapshot().Input.File != nil {
		t.Error("file selected despite the error")
	}
}

func TestHistoryOverlay(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{resp: noPlagiarism()})

	tm.typeText("first text")
	tm.analyze(t)
	tm.editor.Reset()
	tm.typeText("second text")
	tm.analyze(t)

	tm.press("f2")
	if tm.screen != ScreenHistory {
		t.Fatalf("screen = %d, want history", tm.screen)
	}
	if got := len(tm.historyState.GetEntries()); got != 2 {
		t.Fatalf("entries = %d, want 2", got)
	}
	if !strings.Contains(tm.View(), "History (2)") {
		t.Error("history title missing")
	}

	// search narrows the list
	tm.press("/")
	tm.typeText("first")
	tm.press("enter")
	entries := tm.historyState.GetEntries()
	if len(entries) != 1 || !strings.Contains(entries[0].TextExcerpt, "first") {
		t.Fatalf("search results = %+v", entries)
	}

	// replay shows the entry in the result panel
	tm.press("enter")
	if tm.screen != ScreenMain || tm.replayed == nil {
		t.Fatal("replay did not return to the main screen")
	}
	if !strings.Contains(tm.resultView.View(), results.NoPlagiarismText) {
		t.Errorf("replayed panel = %q", tm.resultView.View())
	}

	// delete the newest entry; the replayed one stays on screen
	tm.press("H")
	tm.press("d")
	if count, _ := tm.history.GetCount(); count != 1 {
		t.Errorf("count after delete = %d", count)
	}
	if tm.replayed == nil {
		t.Error("replayed entry dropped by an unrelated delete")
	}

	tm.press("C")
	if tm.screen != ScreenHistoryClearConfirm {
		t.Fatalf("screen = %d, want confirm", tm.screen)
	}
	tm.press("y")
	if count, _ := tm.history.GetCount(); count != 0 {
		t.Errorf("count after clear = %d", count)
	}
	if tm.replayed != nil {
		t.Error("cleared entry still shown")
	}

	tm.press("esc")
	if tm.screen != ScreenMain {
		t.Errorf("esc did not close history")
	}
}

func TestStatsOverlay(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{resp: noPlagiarism()})

	tm.typeText("text")
	tm.analyze(t)

	tm.press("f3")
	if tm.screen != ScreenStats {
		t.Fatalf("screen = %d, want stats", tm.screen)
	}
	content := tm.analyticsState.GetView().View()
	if !strings.Contains(content, types.ModePlagiarism.Label()) || !strings.Contains(content, "no_plagiarism=1") {
		t.Errorf("stats view = %q", content)
	}

	tm.press("C")
	tm.press("n")
	if tm.screen != ScreenStats || len(tm.analyticsState.GetStats()) != 1 {
		t.Fatal("declined clear changed the stats")
	}

	tm.press("C")
	tm.press("y")
	if len(tm.analyticsState.GetStats()) != 0 {
		t.Error("stats not cleared")
	}
}

func TestHelpOverlay(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{})

	tm.press("f1")
	if tm.screen != ScreenHelp {
		t.Fatalf("screen = %d, want help", tm.screen)
	}
	content := tm.helpView.View()
	for _, want := range []string{"ctrl+s", keybinds.Describe(keybinds.ActionSubmit), "Everywhere"} {
		if !strings.Contains(content, want) {
			t.Errorf("help missing %q", want)
		}
	}

	tm.press("q")
	if tm.screen != ScreenMain {
		t.Error("q did not close help")
	}
}

func TestQuitKeys(t *testing.T) {
	tm := CreateTestModel(t, &fakeSubmitter{})

	// q is plain text in the text area
	tm.press("q")
	if tm.editor.Value() != "q" {
		t.Errorf("editor = %q", tm.editor.Value())
	}

	quit := false
	for _, msg := range runCmd(tm.press("ctrl+c")) {
		if _, ok := msg.(tea.QuitMsg); ok {
			quit = true
		}
	}
	if !quit {
		t.Error("ctrl+c did not quit")
	}
}
