package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sciencetwins/twins/internal/analytics"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/keybinds"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/types"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff5f5f"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorIndigo = lipgloss.AdaptiveColor{Light: "#3730a3", Dark: "#a5b4fc"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorIndigo)

	styleAccent = lipgloss.NewStyle().
			Foreground(colorIndigo)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleModeActive = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#1e1b4b"}).
			Background(colorIndigo)

	styleModeInactive = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(colorGray)

	styleButton = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#1e1b4b"}).
			Background(colorIndigo)

	styleDisabled = lipgloss.NewStyle().
			Foreground(colorGray).
			Strikethrough(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)
)

// resize lays out the main screen for a terminal of w x h cells
func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	inner := max(w-BoxBorderWidth-BoxPadding, 10)

	free := max(h-MainChromeLines-2*BoxBorderWidth, MinEditorLines+3)
	editorLines := min(max(free/3, MinEditorLines), MaxEditorLines)

	m.editor.SetWidth(inner)
	m.editor.SetHeight(editorLines)
	m.fileInput.Width = max(inner-len(m.fileInput.Prompt), 10)

	m.resultView.Width = inner
	m.resultView.Height = max(free-editorLines, 3)

	m.helpView.Width = max(w-ModalWidthMargin-BoxPadding, 10)
	m.helpView.Height = max(h-ModalHeightMargin-3, 3)

	stats := m.analyticsState.GetView()
	stats.Width = m.helpView.Width
	stats.Height = m.helpView.Height
	m.analyticsState.SetView(stats)

	m.refreshResult()
	if m.screen == ScreenStats {
		m.updateStatsView()
	}
	if m.screen == ScreenHelp {
		m.updateHelpView()
	}
}

// refreshResult re-renders the result panel
func (m *Model) refreshResult() {
	m.resultView.SetContent(results.Render(m.currentView(), m.theme, m.resultView.Width))
}

func (m *Model) renderMain() string {
	snap := m.ctrl.Snapshot()
	mode := snap.Input.Mode

	var modes []string
	for _, candidate := range types.Modes {
		if candidate == mode {
			modes = append(modes, styleModeActive.Render(candidate.Label()))
		} else {
			modes = append(modes, styleModeInactive.Render(candidate.Label()))
		}
	}

	editorBox := styleBox.Width(m.width - BoxBorderWidth)
	resultBox := styleBox.Width(m.width - BoxBorderWidth)
	if m.screen == ScreenMain && m.focus == FocusCompose {
		editorBox = editorBox.BorderForeground(colorIndigo)
	} else if m.screen == ScreenMain {
		resultBox = resultBox.BorderForeground(colorIndigo)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		strings.Join(modes, " ")+"  "+styleSubtle.Render(m.hint(keybinds.ContextCompose, keybinds.ActionToggleMode, "switch")),
		styleSubtle.Render(mode.Hint()),
		editorBox.Render(m.editor.View()),
		m.renderFileLine(),
		m.renderActionLine(),
		resultBox.Render(m.resultView.View()),
		m.renderStatusBar(),
	)
}

func (m *Model) renderHeader() string {
	left := styleTitle.Render("twins") + styleSubtle.Render(" · plagiarism and conceptual twin finder")
	right := ""
	if m.updateAvailable {
		right = styleWarning.Render(fmt.Sprintf("update available: v%s", m.latestVersion))
	} else if m.version != "" {
		right = styleSubtle.Render(m.version)
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) renderFileLine() string {
	if m.screen == ScreenFilePrompt {
		return m.fileInput.View() + styleSubtle.Render("  enter select · tab complete · esc cancel")
	}

	if f := m.ctrl.Snapshot().Input.File; f != nil {
		details := executor.FormatSize(f.Size())
		if f.Pages > 0 {
			details += fmt.Sprintf(", %d pages", f.Pages)
		}
		return styleSuccess.Render("PDF: "+f.Name) +
			styleSubtle.Render(fmt.Sprintf(" (%s) is sent instead of the text · %s", details,
				m.hint(keybinds.ContextCompose, keybinds.ActionClearFile, "clear")))
	}
	return styleSubtle.Render("No PDF selected · " + m.hint(keybinds.ContextCompose, keybinds.ActionOpenFile, "choose one"))
}

// renderActionLine is the submit control. It is disabled while the input
// is empty or an analysis runs.
func (m *Model) renderActionLine() string {
	snap := m.ctrl.Snapshot()
	mode := snap.Input.Mode
	submitKey := m.keybinds.GetBindingString(keybinds.ContextCompose, keybinds.ActionSubmit)

	switch {
	case snap.State.Loading():
		return m.spinner.View() + " " + styleAccent.Render(mode.ActionLabel(true)) +
			styleSubtle.Render("  "+m.hint(keybinds.ContextCompose, keybinds.ActionCancelRequest, "cancel"))
	case !snap.CanSubmit():
		return styleDisabled.Render(mode.ActionLabel(false)) +
			styleSubtle.Render("  paste a text or select a PDF to enable")
	default:
		return styleButton.Render(" "+submitKey+" ") + " " + styleAccent.Render(mode.ActionLabel(false))
	}
}

func (m *Model) renderStatusBar() string {
	switch {
	case m.errorMsg != "":
		return styleError.Render(m.errorMsg)
	case m.statusMsg != "":
		return styleSuccess.Render(m.statusMsg)
	}

	context := m.keyContext()
	var hints []string
	if context == keybinds.ContextResults {
		hints = append(hints,
			m.hint(context, keybinds.ActionCopyResult, "copy"),
			m.hint(context, keybinds.ActionOpenHistory, "history"),
			m.hint(context, keybinds.ActionOpenStats, "stats"),
			m.hint(context, keybinds.ActionSwitchFocus, "edit"),
			m.hint(context, keybinds.ActionQuit, "quit"),
		)
	} else {
		hints = append(hints,
			m.hint(context, keybinds.ActionSwitchFocus, "results"),
			m.hint(context, keybinds.ActionOpenHistory, "history"),
			m.hint(context, keybinds.ActionOpenHelp, "help"),
			m.hint(context, keybinds.ActionQuit, "quit"),
		)
	}
	return styleSubtle.Render(truncate(strings.Join(hints, " · "), max(m.width, 20)))
}

// hint renders "keys label" for an action
func (m *Model) hint(context keybinds.Context, action keybinds.Action, label string) string {
	keys := m.keybinds.GetBinding(context, action)
	if len(keys) == 0 {
		return label
	}
	return keys[0] + " " + label
}

// renderOverlay draws a full-screen box with a title and a footer
func (m *Model) renderOverlay(title, body, footer string) string {
	box := styleBox.
		BorderForeground(colorIndigo).
		Width(max(m.width-ModalWidthMargin, 20)).
		Height(max(m.height-ModalHeightMargin, 5))

	content := lipgloss.JoinVertical(lipgloss.Left, styleTitle.Render(title), "", body)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, box.Render(content), footer))
}

func (m *Model) historyPageSize() int {
	return max(m.height-ModalHeightMargin-6, 3)
}

func (m *Model) renderHistory() string {
	entries := m.historyState.GetEntries()
	index := m.historyState.GetIndex()
	innerWidth := max(m.width-ModalWidthMargin-BoxPadding, 20)
	listWidth := innerWidth
	if m.historyState.GetPreviewVisible() {
		listWidth = int(float64(innerWidth) * HistoryListWidthRatio)
	}
	height := m.historyPageSize()

	var lines []string
	if query := m.historyState.GetSearchQuery(); query != "" || m.historyState.GetSearchActive() {
		cursor := ""
		if m.historyState.GetSearchActive() {
			cursor = "█"
		}
		lines = append(lines, styleAccent.Render("/"+query+cursor), "")
	}
	if len(entries) == 0 {
		lines = append(lines, styleSubtle.Render("No analyses recorded."))
	}

	offset := 0
	if index >= height {
		offset = index - height + 1
	}
	for i := offset; i < len(entries) && i < offset+height; i++ {
		line := truncate(historyLine(entries[i]), listWidth)
		if i == index {
			line = styleSelected.Render(line)
		}
		lines = append(lines, line)
	}
	list := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))

	body := list
	if m.historyState.GetPreviewVisible() {
		preview := lipgloss.NewStyle().
			Width(innerWidth - listWidth - 3).
			MaxHeight(height + 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(colorGray).
			PaddingLeft(1).
			Render(m.historyPreview(innerWidth - listWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, preview)
	}

	footer := styleSubtle.Render(strings.Join([]string{
		m.hint(keybinds.ContextHistory, keybinds.ActionHistoryReplay, "show"),
		m.hint(keybinds.ContextHistory, keybinds.ActionHistorySearch, "search"),
		m.hint(keybinds.ContextHistory, keybinds.ActionHistoryDelete, "delete"),
		m.hint(keybinds.ContextHistory, keybinds.ActionHistoryClear, "clear"),
		m.hint(keybinds.ContextHistory, keybinds.ActionCloseModal, "close"),
	}, " · "))
	if m.screen == ScreenHistoryClearConfirm {
		footer = styleWarning.Render(fmt.Sprintf("Delete all %d history entries? (y/n)", m.historyState.Total()))
	} else if m.errorMsg != "" {
		footer = styleError.Render(m.errorMsg)
	}

	title := fmt.Sprintf("History (%d)", m.historyState.Total())
	return m.renderOverlay(title, body, footer)
}

// updateHistoryPreview keeps the selection visible after list changes
func (m *Model) updateHistoryPreview() {
	entries := m.historyState.GetEntries()
	if m.historyState.GetIndex() >= len(entries) {
		m.historyState.SetIndex(len(entries) - 1)
	}
}

func (m *Model) historyPreview(width int) string {
	entry := m.historyState.GetCurrentEntry()
	if entry == nil {
		return ""
	}

	status := strconv.Itoa(entry.Status)
	if entry.Status == 0 {
		status = "no response"
	}
	meta := []string{
		styleSubtle.Render(entry.Timestamp.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("%s · %s · %s · %s", entry.Mode.Label(), entry.Encoding, status, executor.FormatDuration(entry.Duration)),
		historyInput(*entry),
		"",
	}
	view := results.Interpret(history.Replay(*entry))
	return strings.Join(meta, "\n") + results.Render(view, m.theme, width)
}

// historyLine is one row of the history list
func historyLine(e types.HistoryEntry) string {
	return fmt.Sprintf("#%-4d %s  %-12s %-18s %s",
		e.ID, e.Timestamp.Format("01-02 15:04"), e.Mode, entryOutcome(e), historyInput(e))
}

func historyInput(e types.HistoryEntry) string {
	if e.FileName != "" {
		return "PDF " + e.FileName
	}
	return strconv.Quote(e.TextExcerpt)
}

// entryOutcome names how a recorded analysis ended
func entryOutcome(e types.HistoryEntry) string {
	if e.ResponseBody == "" {
		return "failed"
	}
	return results.Interpret(history.Replay(e)).Kind().String()
}

func (m *Model) renderStats() string {
	view := m.analyticsState.GetView()

	footer := styleSubtle.Render(strings.Join([]string{
		m.hint(keybinds.ContextStats, keybinds.ActionStatsRefresh, "refresh"),
		m.hint(keybinds.ContextStats, keybinds.ActionStatsClear, "clear"),
		m.hint(keybinds.ContextStats, keybinds.ActionCloseModal, "close"),
	}, " · "))
	if m.screen == ScreenStatsClearConfirm {
		footer = styleWarning.Render("Delete all recorded statistics? (y/n)")
	} else if m.errorMsg != "" {
		footer = styleError.Render(m.errorMsg)
	}

	title := "Statistics"
	if at := m.analyticsState.LoadedAt(); !at.IsZero() {
		title += styleSubtle.Render(" as of " + at.Format("15:04:05"))
	}
	return m.renderOverlay(title, view.View(), footer)
}

// updateStatsView renders the per-mode table into the stats viewport
func (m *Model) updateStatsView() {
	view := m.analyticsState.GetView()
	view.SetContent(renderStatsTable(m.analyticsState.GetStats(), view.Width))
	m.analyticsState.SetView(view)
}

func renderStatsTable(stats []analytics.Stats, width int) string {
	if len(stats) == 0 {
		return styleSubtle.Render("No analyses recorded yet.")
	}

	t := table.New().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleSubtle).
		Headers("Mode", "Calls", "OK", "Errors", "Network", "Avg", "Min", "Max", "Sent", "Received", "Last call")

	var outcomes []string
	for _, s := range stats {
		last := "-"
		if !s.LastCalled.IsZero() {
			last = s.LastCalled.Format("2006-01-02 15:04")
		}
		t.Row(
			s.Mode.Label(),
			strconv.Itoa(s.TotalCalls),
			strconv.Itoa(s.SuccessCount),
			strconv.Itoa(s.ErrorCount),
			strconv.Itoa(s.NetworkErrors),
			executor.FormatDuration(int64(s.AvgDurationMs)),
			executor.FormatDuration(s.MinDurationMs),
			executor.FormatDuration(s.MaxDurationMs),
			executor.FormatSize(int(s.TotalReqSize)),
			executor.FormatSize(int(s.TotalRespSize)),
			last,
		)
		if len(s.Outcomes) > 0 {
			outcomes = append(outcomes, fmt.Sprintf("%s: %s", s.Mode.Label(), analytics.FormatOutcomes(s.Outcomes)))
		}
	}

	out := t.Render()
	if len(outcomes) > 0 {
		out += "\n\n" + styleTitle.Render("Outcomes") + "\n" + strings.Join(outcomes, "\n")
	}
	return out
}

func (m *Model) renderHelp() string {
	footer := styleSubtle.Render(m.hint(keybinds.ContextHelp, keybinds.ActionCloseModal, "close"))
	return m.renderOverlay("Keys", m.helpView.View(), footer)
}

var contextLabels = map[keybinds.Context]string{
	keybinds.ContextGlobal:    "Everywhere",
	keybinds.ContextCompose:   "Text area",
	keybinds.ContextResults:   "Result panel",
	keybinds.ContextTextInput: "PDF path and history search",
	keybinds.ContextHistory:   "History",
	keybinds.ContextStats:     "Statistics",
	keybinds.ContextHelp:      "Help",
	keybinds.ContextConfirm:   "Confirmations",
}

// updateHelpView lists the active bindings, grouped by context
func (m *Model) updateHelpView() {
	var sb strings.Builder

	if m.version != "" {
		sb.WriteString(styleSubtle.Render("twins " + m.version))
		sb.WriteString("\n")
	}
	if m.updateAvailable {
		sb.WriteString(styleWarning.Render(fmt.Sprintf("Version %s is available: %s", m.latestVersion, m.updateURL)))
		sb.WriteString("\n")
	}

	for _, context := range keybinds.Contexts {
		bindings := m.keybinds.ListBindings(context)
		if len(bindings) == 0 {
			continue
		}

		sb.WriteString("\n")
		sb.WriteString(styleTitle.Render(contextLabels[context]))
		sb.WriteString("\n")

		var order []keybinds.Action
		keys := make(map[keybinds.Action][]string)
		for _, b := range bindings {
			if _, seen := keys[b.Action]; !seen {
				order = append(order, b.Action)
			}
			keys[b.Action] = append(keys[b.Action], b.Key)
		}
		for _, action := range order {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", strings.Join(keys[action], "/"), keybinds.Describe(action)))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(styleSubtle.Render("Bindings can be changed in ~/.twins/" + keybinds.FileName))
	m.helpView.SetContent(sb.String())
}
