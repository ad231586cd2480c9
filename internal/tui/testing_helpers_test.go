package tui

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sciencetwins/twins/internal/analytics"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/keybinds"
	"github.com/sciencetwins/twins/internal/session"
	"github.com/sciencetwins/twins/internal/types"
)

// fakeSubmitter answers with a fixed outcome. With block set it waits for
// the channel or the request context.
type fakeSubmitter struct {
	resp  *types.AnalysisResponse
	err   error
	block chan struct{}
	calls int
}

func (f *fakeSubmitter) Submit(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResponse, error) {
	f.calls++
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, &executor.RequestFailed{Cause: ctx.Err()}
		}
	}
	return f.resp, f.err
}

func noPlagiarism() *types.AnalysisResponse {
	return &types.AnalysisResponse{Mode: "plagiarism", Result: json.RawMessage(`{"type":"no_plagiarism"}`)}
}

// testModel bundles the model with what the tests inspect
type testModel struct {
	*Model
	session   *session.Manager
	history   *history.Manager
	analytics *analytics.Manager
	copied    []string
}

// CreateTestModel creates a Model on temporary stores, sized 100x40
func CreateTestModel(t *testing.T, submitter *fakeSubmitter) *testModel {
	t.Helper()

	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	originalDBPath := config.DatabasePath
	config.DatabasePath = dbPath
	t.Cleanup(func() {
		config.DatabasePath = originalDBPath
	})

	h, err := history.NewManager(dbPath)
	if err != nil {
		t.Fatalf("history.NewManager() error = %v", err)
	}
	a, err := analytics.NewManager(dbPath)
	if err != nil {
		t.Fatalf("analytics.NewManager() error = %v", err)
	}
	t.Cleanup(func() {
		h.Close()
		a.Close()
	})

	tm := &testModel{
		session:   session.NewManagerAt(filepath.Join(tempDir, ".session.json")),
		history:   h,
		analytics: a,
	}

	m, err := New(Options{
		Settings:  config.DefaultSettings(),
		Session:   tm.session,
		History:   h,
		Analytics: a,
		Version:   "test-version",
		Submitter: submitter,
		Keybinds:  keybinds.NewDefaultRegistry(),
		Clipboard: func(s string) error {
			tm.copied = append(tm.copied, s)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Failed to create test model: %v", err)
	}
	tm.Model = m
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return tm
}

// press sends one key and returns the resulting command
func (tm *testModel) press(key string) tea.Cmd {
	_, cmd := tm.Update(keyMsg(key))
	return cmd
}

// typeText sends text as a single paste into the focused widget
func (tm *testModel) typeText(text string) {
	tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// analyze submits and feeds the client's outcome back
func (tm *testModel) analyze(t *testing.T) {
	t.Helper()
	cmd := tm.press("ctrl+s")
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	tm.deliver(t, runCmd(cmd))
}

// deliver feeds the analysis outcome among msgs to the model
func (tm *testModel) deliver(t *testing.T, msgs []tea.Msg) {
	t.Helper()
	for _, msg := range msgs {
		if done, ok := msg.(analysisDoneMsg); ok {
			tm.Update(done)
			return
		}
	}
	t.Fatalf("no analysis result among %d messages", len(msgs))
}

func keyMsg(key string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"ctrl+c":    tea.KeyCtrlC,
		"ctrl+s":    tea.KeyCtrlS,
		"ctrl+o":    tea.KeyCtrlO,
		"ctrl+x":    tea.KeyCtrlX,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"esc":       tea.KeyEsc,
		"enter":     tea.KeyEnter,
		"backspace": tea.KeyBackspace,
		"f1":        tea.KeyF1,
		"f2":        tea.KeyF2,
		"f3":        tea.KeyF3,
	}
	if kt, ok := special[key]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// runCmd executes a command and any batched commands, collecting their
// messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}
