package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/sciencetwins/twins/internal/analytics"
	"github.com/sciencetwins/twins/internal/executor"
)

// PrintStats prints per-mode analytics
func PrintStats(env *Env) error {
	if env.Analytics == nil {
		return fmt.Errorf("analytics database is not available")
	}

	stats, err := env.Analytics.GetStatsPerMode()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Fprintln(env.Streams.Out, "No analyses recorded yet")
		return nil
	}

	w := tabwriter.NewWriter(env.Streams.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tCALLS\tOK\tERRORS\tNETWORK\tAVG\tMIN\tMAX\tSENT\tRECEIVED\tLAST")
	for _, s := range stats {
		last := "-"
		if !s.LastCalled.IsZero() {
			last = s.LastCalled.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Mode,
			s.TotalCalls,
			s.SuccessCount,
			s.ErrorCount,
			s.NetworkErrors,
			executor.FormatDuration(int64(s.AvgDurationMs)),
			executor.FormatDuration(s.MinDurationMs),
			executor.FormatDuration(s.MaxDurationMs),
			executor.FormatSize(int(s.TotalReqSize)),
			executor.FormatSize(int(s.TotalRespSize)),
			last,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, s := range stats {
		if len(s.Outcomes) == 0 {
			continue
		}
		fmt.Fprintf(env.Streams.Out, "\n%s outcomes: %s\n", s.Mode, analytics.FormatOutcomes(s.Outcomes))
	}
	return nil
}

// PrintConfig prints the effective settings
func PrintConfig(env *Env) error {
	data, err := env.Settings.Marshal()
	if err != nil {
		return err
	}
	highlight := env.Streams.OutIsTTY
	fmt.Fprint(env.Streams.Out, decorate(string(data), "yaml", OutputStyle{Highlight: highlight}))
	return nil
}
