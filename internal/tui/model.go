package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/keybinds"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/session"
	"github.com/sciencetwins/twins/internal/types"
	"github.com/sciencetwins/twins/internal/version"
)

// Screen is what currently owns the keyboard
type Screen int

const (
	ScreenMain Screen = iota
	ScreenFilePrompt
	ScreenHistory
	ScreenHistoryClearConfirm
	ScreenStats
	ScreenStatsClearConfirm
	ScreenHelp
)

// Focus is the panel of the main screen receiving keys
type Focus int

const (
	FocusCompose Focus = iota
	FocusResults
)

// Model represents the TUI state
type Model struct {
	// Core state
	ctrl           *lifecycle.Controller
	submitter      lifecycle.Submitter
	sessionMgr     *session.Manager
	historyManager *history.Manager
	keybinds       *keybinds.Registry
	logger         *slog.Logger
	copyText       func(string) error

	version         string
	checker         *version.Checker // nil disables the release check
	updateAvailable bool
	latestVersion   string
	updateURL       string

	screen Screen
	focus  Focus

	// Widgets
	editor     textarea.Model
	fileInput  textinput.Model
	spinner    spinner.Model
	resultView viewport.Model
	helpView   viewport.Model

	// Sub-states
	requestState   *RequestState
	historyState   *HistoryState
	analyticsState *AnalyticsState

	// replayed is a history entry shown in place of the live result until
	// the next analysis or edit
	replayed *types.HistoryEntry

	theme      results.Theme
	plainTheme results.Theme

	// UI state
	width     int
	height    int
	statusMsg string
	errorMsg  string
	// statusSeq invalidates older clear timers
	statusSeq int
}

// analysisDoneMsg carries the client's outcome back to the update loop
type analysisDoneMsg struct {
	id   string
	resp *types.AnalysisResponse
	err  error
}

type versionCheckMsg struct {
	update version.Update
	err    error
}

type clearStatusMsg struct{ seq int }

// Init starts the cursor blink and the release check
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.checker != nil {
		cmds = append(cmds, m.checkVersion())
	}
	return tea.Batch(cmds...)
}

// Cleanup cancels an in-flight analysis
func (m *Model) Cleanup() {
	m.requestState.Cancel()
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case analysisDoneMsg:
		return m, m.finishAnalysis(msg)

	case spinner.TickMsg:
		if !m.ctrl.State().Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case versionCheckMsg:
		if msg.err != nil {
			m.logger.Debug("release check failed", "error", msg.err)
			return m, nil
		}
		m.updateAvailable = msg.update.Available
		m.latestVersion = msg.update.Latest
		m.updateURL = msg.update.URL
		return m, nil

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.statusMsg = ""
		}
		return m, nil
	}

	// Cursor blink and other widget messages
	var cmd tea.Cmd
	switch m.screen {
	case ScreenFilePrompt:
		m.fileInput, cmd = m.fileInput.Update(msg)
	case ScreenMain:
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

// View renders the current screen
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.screen {
	case ScreenHistory, ScreenHistoryClearConfirm:
		return m.renderHistory()
	case ScreenStats, ScreenStatsClearConfirm:
		return m.renderStats()
	case ScreenHelp:
		return m.renderHelp()
	default:
		return m.renderMain()
	}
}

// setStatusMessage shows an informational message that clears itself
func (m *Model) setStatusMessage(msg string) tea.Cmd {
	m.errorMsg = ""
	m.statusMsg = truncate(msg, statusMaxLen)
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// setErrorMessage shows an error until the next message
func (m *Model) setErrorMessage(msg string) tea.Cmd {
	m.statusMsg = ""
	m.errorMsg = truncate(msg, statusMaxLen)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
