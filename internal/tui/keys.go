package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sciencetwins/twins/internal/keybinds"
)

// keyContext maps the current screen to its keybinding context
func (m *Model) keyContext() keybinds.Context {
	switch m.screen {
	case ScreenFilePrompt:
		return keybinds.ContextTextInput
	case ScreenHistory:
		if m.historyState.GetSearchActive() {
			return keybinds.ContextTextInput
		}
		return keybinds.ContextHistory
	case ScreenHistoryClearConfirm, ScreenStatsClearConfirm:
		return keybinds.ContextConfirm
	case ScreenStats:
		return keybinds.ContextStats
	case ScreenHelp:
		return keybinds.ContextHelp
	}
	if m.focus == FocusResults {
		return keybinds.ContextResults
	}
	return keybinds.ContextCompose
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	context := m.keyContext()

	// Text inputs take every key except their own bindings
	if context == keybinds.ContextTextInput {
		return m.handleTextInputKeys(msg)
	}

	action, ok, partial := m.keybinds.MatchMultiKey(context, msg.String())
	if partial {
		return nil
	}
	if !ok {
		if context == keybinds.ContextCompose {
			return m.updateEditor(msg)
		}
		return nil
	}

	if action == keybinds.ActionQuitForce {
		return m.quit()
	}

	switch m.screen {
	case ScreenHistory:
		return m.handleHistoryAction(action)
	case ScreenHistoryClearConfirm, ScreenStatsClearConfirm:
		return m.handleConfirmAction(action)
	case ScreenStats:
		return m.handleStatsAction(action)
	case ScreenHelp:
		return m.handleHelpAction(action)
	default:
		return m.handleMainAction(action)
	}
}

func (m *Model) handleTextInputKeys(msg tea.KeyMsg) tea.Cmd {
	action, _ := m.keybinds.Match(keybinds.ContextTextInput, msg.String())

	if m.screen == ScreenHistory {
		switch action {
		case keybinds.ActionQuitForce:
			return m.quit()
		case keybinds.ActionTextSubmit:
			m.historyState.DeactivateSearch()
			m.updateHistoryPreview()
			return nil
		case keybinds.ActionTextCancel:
			m.historyState.ClearSearch()
			m.updateHistoryPreview()
			return nil
		}
		m.editHistorySearch(msg)
		return nil
	}

	switch action {
	case keybinds.ActionQuitForce:
		return m.quit()
	case keybinds.ActionTextSubmit:
		return m.submitFilePrompt()
	case keybinds.ActionTextCancel:
		return m.closeFilePrompt()
	}

	var cmd tea.Cmd
	m.fileInput, cmd = m.fileInput.Update(msg)
	return cmd
}

// editHistorySearch applies a key to the search query
func (m *Model) editHistorySearch(msg tea.KeyMsg) {
	query := []rune(m.historyState.GetSearchQuery())
	switch msg.Type {
	case tea.KeyBackspace:
		if len(query) == 0 {
			return
		}
		query = query[:len(query)-1]
	case tea.KeyRunes, tea.KeySpace:
		query = append(query, msg.Runes...)
	default:
		return
	}
	m.historyState.SetSearchQuery(string(query))
	m.updateHistoryPreview()
}

func (m *Model) handleMainAction(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionQuit:
		return m.quit()
	case keybinds.ActionSubmit:
		return m.submit()
	case keybinds.ActionToggleMode:
		return m.toggleMode()
	case keybinds.ActionCancelRequest:
		return m.cancelRequest()
	case keybinds.ActionOpenFile:
		return m.openFilePrompt()
	case keybinds.ActionClearFile:
		return m.clearFile()
	case keybinds.ActionSwitchFocus:
		return m.switchFocus()
	case keybinds.ActionCopyResult:
		return m.copyResult()
	case keybinds.ActionOpenHistory:
		return m.openHistory()
	case keybinds.ActionOpenStats:
		return m.openStats()
	case keybinds.ActionOpenHelp:
		return m.openHelp()
	default:
		scrollViewport(&m.resultView, action)
	}
	return nil
}

func (m *Model) handleHistoryAction(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionCloseModal:
		m.screen = ScreenMain
	case keybinds.ActionNavigateUp:
		m.historyState.Navigate(-1)
	case keybinds.ActionNavigateDown:
		m.historyState.Navigate(1)
	case keybinds.ActionPageUp:
		m.historyState.Navigate(-m.historyPageSize())
	case keybinds.ActionPageDown:
		m.historyState.Navigate(m.historyPageSize())
	case keybinds.ActionGoToTop:
		m.historyState.SetIndex(0)
	case keybinds.ActionGoToBottom:
		m.historyState.SetIndex(len(m.historyState.GetEntries()) - 1)
	case keybinds.ActionHistorySearch:
		m.historyState.ActivateSearch()
	case keybinds.ActionHistoryReplay:
		return m.replaySelected()
	case keybinds.ActionHistoryDelete:
		return m.deleteSelected()
	case keybinds.ActionHistoryClear:
		if m.historyState.Total() > 0 {
			m.screen = ScreenHistoryClearConfirm
		}
	default:
		return nil
	}
	m.updateHistoryPreview()
	return nil
}

func (m *Model) handleConfirmAction(action keybinds.Action) tea.Cmd {
	confirmed := action == keybinds.ActionConfirmYes
	if !confirmed && action != keybinds.ActionConfirmNo {
		return nil
	}

	if m.screen == ScreenHistoryClearConfirm {
		m.screen = ScreenHistory
		if confirmed {
			return m.clearHistory()
		}
		return nil
	}

	m.screen = ScreenStats
	if confirmed {
		return m.clearStats()
	}
	return nil
}

func (m *Model) handleStatsAction(action keybinds.Action) tea.Cmd {
	switch action {
	case keybinds.ActionCloseModal:
		m.screen = ScreenMain
	case keybinds.ActionStatsRefresh:
		return m.refreshStats()
	case keybinds.ActionStatsClear:
		if len(m.analyticsState.GetStats()) > 0 {
			m.screen = ScreenStatsClearConfirm
		}
	default:
		view := m.analyticsState.GetView()
		scrollViewport(&view, action)
		m.analyticsState.SetView(view)
	}
	return nil
}

func (m *Model) handleHelpAction(action keybinds.Action) tea.Cmd {
	if action == keybinds.ActionCloseModal {
		m.screen = ScreenMain
		return nil
	}
	scrollViewport(&m.helpView, action)
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.screen != ScreenMain || msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.resultView.LineUp(3)
	case tea.MouseButtonWheelDown:
		m.resultView.LineDown(3)
	}
	return nil
}

// scrollViewport applies a navigation action to a viewport
func scrollViewport(v *viewport.Model, action keybinds.Action) {
	switch action {
	case keybinds.ActionNavigateUp:
		v.LineUp(1)
	case keybinds.ActionNavigateDown:
		v.LineDown(1)
	case keybinds.ActionPageUp:
		v.ViewUp()
	case keybinds.ActionPageDown:
		v.ViewDown()
	case keybinds.ActionGoToTop:
		v.GotoTop()
	case keybinds.ActionGoToBottom:
		v.GotoBottom()
	}
}
