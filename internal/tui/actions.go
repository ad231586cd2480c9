package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/files"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/results"
)

func (m *Model) quit() tea.Cmd {
	m.requestState.Cancel()
	return tea.Quit
}

// submit starts an analysis when the input is ready and nothing is running
func (m *Model) submit() tea.Cmd {
	snap := m.ctrl.Snapshot()
	if !snap.CanSubmit() {
		if snap.State.Loading() {
			return m.setStatusMessage("An analysis is already running")
		}
		return m.setStatusMessage("Paste a text or select a PDF first")
	}

	m.replayed = nil
	sub, ok := m.ctrl.Begin()
	m.refreshResult()
	if !ok {
		// the builder failed; the error state is already shown
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = executor.WithSubmissionID(ctx, sub.ID)
	m.requestState.SetCancel(cancel)
	m.statusMsg, m.errorMsg = "", ""

	submitter := m.submitter
	id, req := sub.ID, sub.Request
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		resp, err := submitter.Submit(ctx, req)
		return analysisDoneMsg{id: id, resp: resp, err: err}
	})
}

// finishAnalysis hands the client's outcome to the controller
func (m *Model) finishAnalysis(msg analysisDoneMsg) tea.Cmd {
	m.requestState.Clear()
	if !m.ctrl.Complete(msg.id, msg.resp, msg.err) {
		m.logger.Debug("dropping stale result", "submission_id", msg.id)
		return nil
	}
	m.resultView.GotoTop()
	m.refreshResult()

	if m.ctrl.State().Phase == lifecycle.Failed {
		return nil
	}
	return m.setStatusMessage("Analysis complete")
}

func (m *Model) cancelRequest() tea.Cmd {
	if !m.requestState.Cancel() {
		return nil
	}
	m.logger.Info("analysis cancelled by user", "submission_id", m.ctrl.State().SubmissionID)
	return m.setStatusMessage("Cancelling analysis…")
}

func (m *Model) toggleMode() tea.Cmd {
	mode := m.ctrl.Snapshot().Input.Mode.Toggle()
	if !m.ctrl.SetMode(mode) {
		return m.setStatusMessage("The mode is locked while an analysis is running")
	}
	if err := m.sessionMgr.SetMode(mode); err != nil {
		m.logger.Warn("failed to save mode", "error", err)
	}
	return nil
}

// updateEditor forwards a key to the text area, which is read-only while
// an analysis runs
func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	if m.ctrl.State().Loading() {
		return nil
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if text := m.editor.Value(); text != before {
		m.ctrl.SetText(text)
		if m.replayed != nil {
			m.replayed = nil
			m.refreshResult()
		}
	}
	return cmd
}

func (m *Model) switchFocus() tea.Cmd {
	if m.focus == FocusCompose {
		m.focus = FocusResults
		m.editor.Blur()
		return nil
	}
	m.focus = FocusCompose
	return m.editor.Focus()
}

func (m *Model) openFilePrompt() tea.Cmd {
	if m.ctrl.State().Loading() {
		return m.setStatusMessage("The file is locked while an analysis is running")
	}
	m.screen = ScreenFilePrompt
	m.fileInput.SetValue("")
	m.fileInput.SetSuggestions(m.sessionMgr.GetRecentFiles())
	m.editor.Blur()
	return m.fileInput.Focus()
}

func (m *Model) closeFilePrompt() tea.Cmd {
	m.screen = ScreenMain
	m.fileInput.Blur()
	if m.focus == FocusCompose {
		return m.editor.Focus()
	}
	return nil
}

// submitFilePrompt selects the typed path. Anything that is not a PDF is
// ignored without a message.
func (m *Model) submitFilePrompt() tea.Cmd {
	path := expandHome(strings.TrimSpace(m.fileInput.Value()))
	closeCmd := m.closeFilePrompt()
	if path == "" {
		return closeCmd
	}

	file, ok, err := files.Select(path)
	if err != nil {
		return tea.Batch(closeCmd, m.setErrorMessage(err.Error()))
	}
	if !ok {
		m.logger.Debug("ignoring non-PDF file", "path", path)
		return closeCmd
	}

	if !m.ctrl.SetFile(file) {
		return tea.Batch(closeCmd, m.setStatusMessage("The file is locked while an analysis is running"))
	}
	m.replayed = nil
	m.refreshResult()
	if err := m.sessionMgr.AddRecentFile(path); err != nil {
		m.logger.Warn("failed to save recent file", "path", path, "error", err)
	}
	return tea.Batch(closeCmd, m.setStatusMessage("Selected "+file.Name))
}

func (m *Model) clearFile() tea.Cmd {
	if m.ctrl.Snapshot().Input.File == nil {
		return nil
	}
	if !m.ctrl.ClearFile() {
		return m.setStatusMessage("The file is locked while an analysis is running")
	}
	return m.setStatusMessage("PDF cleared")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// copyResult copies the result as plain text
func (m *Model) copyResult() tea.Cmd {
	view := m.currentView()
	if view.Kind() == results.KindEmpty || view.Kind() == results.KindPrompt || view.Kind() == results.KindProgress {
		return m.setStatusMessage("Nothing to copy yet")
	}

	text := results.Render(view, m.plainTheme, 0)
	if err := m.copyText(text); err != nil {
		return m.setErrorMessage(fmt.Sprintf("Copy failed: %v", err))
	}
	return m.setStatusMessage("Result copied to clipboard")
}

func (m *Model) openHistory() tea.Cmd {
	if m.historyManager == nil {
		return m.setErrorMessage("History is unavailable: the database could not be opened")
	}
	entries, err := m.historyManager.Load(history.Filter{Limit: historyLoadLimit})
	if err != nil {
		return m.setErrorMessage(fmt.Sprintf("Failed to load history: %v", err))
	}
	m.historyState.Load(entries)
	m.screen = ScreenHistory
	m.updateHistoryPreview()
	return nil
}

// replaySelected shows the selected entry in the result panel
func (m *Model) replaySelected() tea.Cmd {
	entry := m.historyState.GetCurrentEntry()
	if entry == nil {
		return nil
	}
	m.replayed = entry
	m.screen = ScreenMain
	m.focus = FocusResults
	m.editor.Blur()
	m.resultView.GotoTop()
	m.refreshResult()
	return m.setStatusMessage(fmt.Sprintf("Showing history #%d from %s", entry.ID, entry.Timestamp.Format("2006-01-02 15:04")))
}

func (m *Model) deleteSelected() tea.Cmd {
	entry := m.historyState.GetCurrentEntry()
	if entry == nil {
		return nil
	}
	if err := m.historyManager.Delete(entry.ID); err != nil {
		return m.setErrorMessage(fmt.Sprintf("Failed to delete entry: %v", err))
	}
	if m.replayed != nil && m.replayed.ID == entry.ID {
		m.replayed = nil
		m.refreshResult()
	}

	index := m.historyState.GetIndex()
	query := m.historyState.GetSearchQuery()
	if cmd := m.openHistory(); cmd != nil {
		return cmd
	}
	if query != "" {
		m.historyState.SetSearchQuery(query)
	}
	m.historyState.SetIndex(index)
	m.updateHistoryPreview()
	return m.setStatusMessage(fmt.Sprintf("Deleted history #%d", entry.ID))
}

func (m *Model) clearHistory() tea.Cmd {
	if err := m.historyManager.Clear(); err != nil {
		return m.setErrorMessage(fmt.Sprintf("Failed to clear history: %v", err))
	}
	m.historyState.Load(nil)
	m.updateHistoryPreview()
	if m.replayed != nil {
		m.replayed = nil
		m.refreshResult()
	}
	return m.setStatusMessage("History cleared")
}

func (m *Model) openStats() tea.Cmd {
	if err := m.analyticsState.Refresh(); err != nil {
		return m.setErrorMessage(err.Error())
	}
	m.screen = ScreenStats
	m.updateStatsView()
	return nil
}

func (m *Model) refreshStats() tea.Cmd {
	if err := m.analyticsState.Refresh(); err != nil {
		return m.setErrorMessage(err.Error())
	}
	m.updateStatsView()
	return m.setStatusMessage("Statistics refreshed")
}

func (m *Model) clearStats() tea.Cmd {
	if err := m.analyticsState.Clear(); err != nil {
		return m.setErrorMessage(fmt.Sprintf("Failed to clear statistics: %v", err))
	}
	m.updateStatsView()
	return m.setStatusMessage("Statistics cleared")
}

func (m *Model) openHelp() tea.Cmd {
	m.screen = ScreenHelp
	m.updateHelpView()
	m.helpView.GotoTop()
	return nil
}

func (m *Model) checkVersion() tea.Cmd {
	checker, current := m.checker, m.version
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), checker.Client.Timeout)
		defer cancel()
		update, err := checker.Check(ctx, current)
		return versionCheckMsg{update: update, err: err}
	}
}

// currentView is the replayed entry if any, else the live state
func (m *Model) currentView() results.View {
	if m.replayed != nil {
		return results.Interpret(history.Replay(*m.replayed))
	}
	return results.Interpret(m.ctrl.State())
}
