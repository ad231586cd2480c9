package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sciencetwins/twins/internal/analytics"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/files"
	"github.com/sciencetwins/twins/internal/filter"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/lifecycle"
	"github.com/sciencetwins/twins/internal/types"
)

var (
	// ErrNothingToAnalyze means neither text nor a PDF was supplied
	ErrNothingToAnalyze = errors.New("nothing to analyze: provide --text, pipe text on stdin, or --file with a PDF")
	// ErrAnalysisFailed is returned after the failure message has been shown
	ErrAnalysisFailed = errors.New("analysis failed")
)

// AnalyzeOptions contains options for the analyze command
type AnalyzeOptions struct {
	Mode         string
	Text         string
	FilePath     string
	Recent       bool   // pick the file from the recent list
	OutputFormat string // text, json, yaml, raw
	SavePath     string
	Filter       string // JMESPath filter expression
	Query        string // JMESPath query or $(shell command)
	Endpoint     string
	Timeout      string
	NoHistory    bool
	Verbose      bool
	UserAgent    string
}

// Analyze submits one text or PDF and prints the outcome
func Analyze(ctx context.Context, env *Env, opts AnalyzeOptions) error {
	exprs := filter.Expressions{Filter: opts.Filter, Query: opts.Query}
	if err := filter.Validate(exprs); err != nil {
		return err
	}

	format, err := resolveFormat(opts.OutputFormat, env.Settings.Output, env.Streams.OutIsTTY)
	if err != nil {
		return err
	}

	mode, err := resolveMode(opts.Mode, env)
	if err != nil {
		return err
	}

	clientCfg, err := clientConfig(env, opts)
	if err != nil {
		return err
	}

	text := opts.Text
	if text == "" && opts.FilePath == "" && !opts.Recent && env.Streams.InPiped {
		data, err := io.ReadAll(env.Streams.In)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	file, err := selectFile(env, opts)
	if err != nil {
		return err
	}

	ctrl := lifecycle.New(lifecycle.WithMode(mode))
	ctrl.SetText(text)
	if file != nil {
		ctrl.SetFile(file)
	}
	if !ctrl.CanSubmit() {
		return ErrNothingToAnalyze
	}

	ctrl.OnTransition(lifecycle.LogTransitions(env.Logger))
	if env.History != nil && !opts.NoHistory && env.Settings.HistoryEnabled() && env.Session.IsHistoryEnabled() {
		ctrl.OnTransition(history.Recorder(env.History, env.Logger))
	}
	if env.Analytics != nil {
		ctrl.OnTransition(analytics.Recorder(env.Analytics, env.Logger))
	}
	if opts.Verbose {
		ctrl.OnTransition(func(t lifecycle.Transition) {
			if t.To == lifecycle.Loading {
				fmt.Fprintf(env.Streams.Err, "%s (%s)\n", mode.ActionLabel(true), clientCfg.Endpoint)
			}
		})
	}

	client, err := executor.NewClient(clientCfg)
	if err != nil {
		return err
	}

	state, _ := ctrl.Run(ctx, client)

	if state.Phase == lifecycle.Failed {
		fmt.Fprintln(env.Streams.Err, state.Message)
		if opts.Verbose {
			fmt.Fprintf(env.Streams.Err, "Details were logged to %s\n", config.LogFile)
		}
		return ErrAnalysisFailed
	}

	highlight := env.Streams.OutIsTTY && opts.SavePath == ""
	output, err := FormatState(state, format, exprs, OutputStyle{
		Renderer:  newRenderer(env.Streams.Out, highlight),
		Width:     env.Streams.Width,
		Highlight: highlight,
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if opts.SavePath != "" {
		if err := os.WriteFile(opts.SavePath, []byte(output), config.FilePermissions); err != nil {
			return fmt.Errorf("failed to save response: %w", err)
		}
		fmt.Fprintf(env.Streams.Err, "Response saved to %s\n", opts.SavePath)
		return nil
	}

	fmt.Fprint(env.Streams.Out, output)
	return nil
}

// resolveMode picks the flag value, else the last mode used. An explicit
// mode is remembered for the next run.
func resolveMode(flag string, env *Env) (types.Mode, error) {
	if flag == "" {
		if mode := env.Session.Mode(); mode.Valid() {
			return mode, nil
		}
		return types.DefaultMode, nil
	}

	mode, err := types.ParseMode(flag)
	if err != nil {
		return "", err
	}
	if err := env.Session.SetMode(mode); err != nil {
		env.Logger.Warn("failed to save mode", "error", err)
	}
	return mode, nil
}

func clientConfig(env *Env, opts AnalyzeOptions) (executor.ClientConfig, error) {
	cfg := env.Settings.ClientConfig()
	cfg.Logger = env.Logger
	cfg.UserAgent = opts.UserAgent
	if opts.Endpoint != "" {
		cfg.Endpoint = opts.Endpoint
	}
	if opts.Timeout != "" {
		d, err := config.ParseDuration(opts.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

// selectFile applies the file-selection boundary. Non-PDFs are dropped
// without an error; --verbose says so.
func selectFile(env *Env, opts AnalyzeOptions) (*types.File, error) {
	path := opts.FilePath
	if opts.Recent {
		if env.Streams.InPiped {
			return nil, fmt.Errorf("--recent needs an interactive terminal")
		}
		picked, err := promptForRecentFile(env.Session.GetRecentFiles())
		if err != nil {
			return nil, err
		}
		path = picked
	}
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	file, ok, err := files.Select(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		if opts.Verbose {
			fmt.Fprintf(env.Streams.Err, "Ignoring %s: not a PDF\n", path)
		}
		return nil, nil
	}

	if err := env.Session.AddRecentFile(path); err != nil {
		env.Logger.Warn("failed to save recent file", "path", path, "error", err)
	}
	if opts.Verbose {
		fmt.Fprintf(env.Streams.Err, "Selected: %s (%s, %d pages)\n", file.Name, executor.FormatSize(file.Size()), file.Pages)
	}
	return file, nil
}
