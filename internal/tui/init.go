package tui

import (
	"io"
	"log/slog"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sciencetwins/twins/internal/analytics"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/keybinds"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/logging"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/session"
	"github.com/sciencetwins/twins/internal/types"
	"github.com/sciencetwins/twins/internal/version"
)

// Options wires the TUI to the stores opened by the caller
type Options struct {
	Settings  config.Settings
	Session   *session.Manager
	History   *history.Manager   // nil disables history
	Analytics *analytics.Manager // nil disables statistics
	Logger    *slog.Logger
	Version   string

	Submitter       lifecycle.Submitter // nil builds an executor client from Settings
	Keybinds        *keybinds.Registry  // nil loads keybinds.json from the config directory
	Clipboard       func(string) error  // nil uses the system clipboard
	CheckForUpdates bool
}

// New creates a new TUI model
func New(opts Options) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mode := opts.Session.Mode()
	if !mode.Valid() {
		mode = types.DefaultMode
	}

	ctrl := lifecycle.New(lifecycle.WithMode(mode))
	ctrl.OnTransition(lifecycle.LogTransitions(logger))
	if opts.History != nil && opts.Settings.HistoryEnabled() && opts.Session.IsHistoryEnabled() {
		ctrl.OnTransition(history.Recorder(opts.History, logger))
	}
	if opts.Analytics != nil {
		ctrl.OnTransition(analytics.Recorder(opts.Analytics, logger))
	}

	submitter := opts.Submitter
	if submitter == nil {
		cfg := opts.Settings.ClientConfig()
		cfg.Logger = logger
		if opts.Version != "" {
			cfg.UserAgent = "twins/" + opts.Version
		}
		client, err := executor.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		submitter = client
	}

	registry := opts.Keybinds
	if registry == nil {
		registry = loadKeybinds(logger)
	}

	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	editor := textarea.New()
	editor.Placeholder = "Paste or type the text to analyze…"
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Focus()

	fileInput := textinput.New()
	fileInput.Prompt = "PDF path: "
	fileInput.Placeholder = "~/papers/draft.pdf"
	fileInput.ShowSuggestions = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleAccent

	plain := lipgloss.NewRenderer(io.Discard)
	plain.SetColorProfile(termenv.Ascii)

	m := &Model{
		ctrl:           ctrl,
		submitter:      submitter,
		sessionMgr:     opts.Session,
		historyManager: opts.History,
		keybinds:       registry,
		logger:         logger,
		copyText:       copyText,
		version:        opts.Version,
		screen:         ScreenMain,
		focus:          FocusCompose,
		editor:         editor,
		fileInput:      fileInput,
		spinner:        sp,
		resultView:     viewport.New(80, 20),
		helpView:       viewport.New(80, 20),
		requestState:   &RequestState{},
		historyState:   NewHistoryState(),
		analyticsState: NewAnalyticsState(opts.Analytics),
		theme:          results.DefaultTheme(nil),
		plainTheme:     results.DefaultTheme(plain),
	}
	if opts.CheckForUpdates {
		m.checker = version.NewChecker()
	}
	m.refreshResult()
	return m, nil
}

// loadKeybinds reads the user's bindings, falling back to the defaults
func loadKeybinds(logger *slog.Logger) *keybinds.Registry {
	path := filepath.Join(config.ConfigDir, keybinds.FileName)
	registry, err := keybinds.LoadOrDefault(path)
	if err != nil {
		logger.Warn("ignoring keybindings", "path", path, "error", err)
		return keybinds.NewDefaultRegistry()
	}

	result := keybinds.NewValidator().ValidateRegistry(registry)
	if result.HasErrors() {
		logger.Warn("keybinding errors, using defaults", "path", path, "report", result.String())
		return keybinds.NewDefaultRegistry()
	}
	if result.HasWarnings() {
		logger.Debug("keybinding warnings", "report", result.String())
	}
	return registry
}

// Run starts the TUI and blocks until the user quits
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Cleanup()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
