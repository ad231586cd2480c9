package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sciencetwins/twins/internal/executor"
	"github.com/sciencetwins/twins/internal/filter"
	"github.com/sciencetwins/twins/internal/history"
	"github.com/sciencetwins/twins/internal/results"
	"github.com/sciencetwins/twins/internal/types"
	"gopkg.in/yaml.v3"
)

var errHistoryUnavailable = errors.New("history database is not available")

// HistoryOptions contains options for the history command
type HistoryOptions struct {
	Mode         string
	Search       string
	Limit        int
	OutputFormat string
}

// ListHistory prints saved analyses, newest first
func ListHistory(env *Env, opts HistoryOptions) error {
	if env.History == nil {
		return errHistoryUnavailable
	}

	f := history.Filter{Limit: opts.Limit}
	if opts.Mode != "" {
		mode, err := types.ParseMode(opts.Mode)
		if err != nil {
			return err
		}
		f.Mode = mode
	}
	if opts.Search != "" {
		// fuzzy ranking needs the whole candidate set
		f.Limit = 0
	}

	entries, err := env.History.Load(f)
	if err != nil {
		return err
	}
	if opts.Search != "" {
		entries = history.Search(entries, opts.Search)
		if opts.Limit > 0 && len(entries) > opts.Limit {
			entries = entries[:opts.Limit]
		}
	}

	switch opts.OutputFormat {
	case FormatJSON:
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Streams.Out, string(data))
		return nil
	case FormatYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		fmt.Fprint(env.Streams.Out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(env.Streams.Out, "No history entries")
		return nil
	}

	w := tabwriter.NewWriter(env.Streams.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tMODE\tOUTCOME\tDURATION\tINPUT")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Mode,
			Outcome(e),
			executor.FormatDuration(e.Duration),
			inputSummary(e),
		)
	}
	return w.Flush()
}

// ShowHistory replays one entry through the result views
func ShowHistory(env *Env, id int64, format string, exprs filter.Expressions) error {
	if env.History == nil {
		return errHistoryUnavailable
	}

	entry, err := env.History.Get(id)
	if err != nil {
		return err
	}

	format, err = resolveFormat(format, "", env.Streams.OutIsTTY)
	if err != nil {
		return err
	}

	state := history.Replay(entry)
	if format == FormatText && exprs.Empty() {
		fmt.Fprintf(env.Streams.Out, "#%d  %s  %s  %s\n\n", entry.ID, entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Mode.Label(), inputSummary(entry))
	}

	out, err := FormatState(state, format, exprs, OutputStyle{
		Renderer:  newRenderer(env.Streams.Out, env.Streams.OutIsTTY),
		Width:     env.Streams.Width,
		Highlight: env.Streams.OutIsTTY,
	})
	if err != nil {
		return err
	}
	fmt.Fprint(env.Streams.Out, out)
	return nil
}

// ClearHistory deletes every entry
func ClearHistory(env *Env) error {
	if env.History == nil {
		return errHistoryUnavailable
	}
	if err := env.History.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(env.Streams.Err, "History cleared")
	return nil
}

// Outcome names what the user saw for an entry
func Outcome(e types.HistoryEntry) string {
	if e.ResponseBody == "" {
		if e.Status > 0 {
			return fmt.Sprintf("failed (%d)", e.Status)
		}
		return "failed"
	}
	kind := results.Interpret(history.Replay(e)).Kind().String()
	if !e.Succeeded() {
		return kind + " (service error)"
	}
	return kind
}

func inputSummary(e types.HistoryEntry) string {
	if e.FileName != "" {
		return e.FileName
	}
	return strings.ReplaceAll(e.TextExcerpt, "\n", " ")
}
