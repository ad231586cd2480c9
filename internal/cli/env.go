package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/sciencetwins/twins/internal/analytics"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/session"
)

const defaultWidth = 80

// Streams are the process streams. Tests substitute buffers.
type Streams struct {
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
	InPiped  bool // stdin is a pipe or file, not a terminal
	OutIsTTY bool
	Width    int
}

// StdStreams inspects the real process streams
func StdStreams() Streams {
	s := Streams{
		In:       os.Stdin,
		Out:      os.Stdout,
		Err:      os.Stderr,
		InPiped:  !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()),
		OutIsTTY: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
		Width:    defaultWidth,
	}
	if s.OutIsTTY {
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
			s.Width = w
		}
	}
	return s
}

// Env is everything a command needs besides its flags
type Env struct {
	Settings  config.Settings
	Session   *session.Manager
	History   *history.Manager   // nil when the database could not be opened
	Analytics *analytics.Manager // nil when the database could not be opened
	Logger    *slog.Logger
	Streams   Streams
}

// OpenEnv loads the session and opens the history and analytics stores.
// A broken database only costs history; the analysis itself still runs.
func OpenEnv(settings config.Settings, logger *slog.Logger, streams Streams) (*Env, error) {
	mgr := session.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	env := &Env{
		Settings: settings,
		Session:  mgr,
		Logger:   logger,
		Streams:  streams,
	}

	if h, err := history.NewManager(config.DatabasePath); err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		env.History = h
	}

	if a, err := analytics.NewManager(config.DatabasePath); err != nil {
		logger.Warn("analytics disabled", "error", err)
	} else {
		env.Analytics = a
	}

	return env, nil
}

// Close closes the stores
func (e *Env) Close() error {
	var errs []error
	if e.History != nil {
		errs = append(errs, e.History.Close())
	}
	if e.Analytics != nil {
		errs = append(errs, e.Analytics.Close())
	}
	return errors.Join(errs...)
}
