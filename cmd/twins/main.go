package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sciencetwins/twins/internal/cli"
	"github.com/sciencetwins/twins/internal/config"
	"github.com/sciencetwins/twins/internal/filter"
	"github.com/sciencetwins/twins/internal/logging"
	"github.com/sciencetwins/twins/internal/mock"
	"github.com/sciencetwins/twins/internal/tui"
	"github.com/sciencetwins/twins/internal/version"
)

// appVersion is set at build time with -ldflags "-X main.appVersion=..."
var appVersion = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// the analysis outcome was already printed
		if !errors.Is(err, cli.ErrAnalysisFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "twins",
	Short: "twins - plagiarism and conceptual-twin checker for scientific texts",
	Long: `twins sends a text or a PDF to the analysis service and shows what it found.

Two modes are available:
  plagiarism    highly similar wording and overlapping passages
  doppelganger  papers that share the same core idea, even if worded differently

Run without arguments to start the interactive TUI.

Examples:
  twins                                      # Start interactive TUI
  twins analyze --text "..."                 # Plagiarism check from the shell
  twins analyze -m doppelganger -f paper.pdf # Conceptual twins of a PDF
  cat abstract.txt | twins analyze -o json   # Text from stdin, JSON output
  twins history --search protein             # Past analyses
  twins mock                                 # Local stand-in for the service`,
	Version:      appVersion,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "tui", func(env *cli.Env) error {
			return tui.Run(tui.Options{
				Settings:        env.Settings,
				Session:         env.Session,
				History:         env.History,
				Analytics:       env.Analytics,
				Logger:          env.Logger,
				Version:         appVersion,
				CheckForUpdates: true,
			})
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a text or a PDF and print the result",
	Long: `Analyze a text or a PDF and print the result.

The text comes from --text, or from stdin when it is piped. --file sends a PDF
instead; the text is then ignored. Without -o the result is rendered as text on
a terminal and printed raw when piped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "cli", func(env *cli.Env) error {
			return cli.Analyze(cmd.Context(), env, cli.AnalyzeOptions{
				Mode:         flagMode,
				Text:         flagText,
				FilePath:     flagFile,
				Recent:       flagRecent,
				OutputFormat: flagOutput,
				SavePath:     flagSave,
				Filter:       flagFilter,
				Query:        flagQuery,
				Endpoint:     flagEndpoint,
				Timeout:      flagTimeout,
				NoHistory:    flagNoHistory,
				Verbose:      flagVerbose,
				UserAgent:    "twins/" + appVersion,
			})
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "cli", func(env *cli.Env) error {
			return cli.ListHistory(env, cli.HistoryOptions{
				Mode:         flagMode,
				Search:       flagSearch,
				Limit:        flagLimit,
				OutputFormat: flagOutput,
			})
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the result of a past analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid history id %q", args[0])
		}
		return withEnv(cmd, "cli", func(env *cli.Env) error {
			return cli.ShowHistory(env, id, flagOutput, filter.Expressions{Filter: flagFilter, Query: flagQuery})
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all past analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "cli", cli.ClearHistory)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-mode statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "cli", cli.PrintStats)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "cli", cli.PrintConfig)
	},
}

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local stand-in for the analysis service",
	Long: `Run a local stand-in for the analysis service.

Canned responses come from a YAML or JSON(C) file given with -c; without one
the built-in samples are served. Point the client at it with
TWINS_ENDPOINT=http://127.0.0.1:8000/api/analyze.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMock(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version, optionally checking for a newer release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "twins %s\n", appVersion)
		if !flagCheck {
			return nil
		}

		update, err := version.NewChecker().Check(cmd.Context(), appVersion)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if update.Available {
			fmt.Fprintf(out, "Version %s is available: %s\n", update.Latest, update.URL)
		} else {
			fmt.Fprintln(out, "You are on the latest release")
		}
		return nil
	},
}

// Flags for analyze and history
var (
	flagMode      string
	flagText      string
	flagFile      string
	flagRecent    bool
	flagOutput    string
	flagSave      string
	flagFilter    string
	flagQuery     string
	flagEndpoint  string
	flagTimeout   string
	flagNoHistory bool
	flagVerbose   bool
	flagSearch    string
	flagLimit     int
)

// Flags for mock and version
var (
	mockConfigFile string
	mockPort       int
	flagCheck      bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&flagMode, "mode", "m", "", "Analysis mode (plagiarism/doppelganger); defaults to the last used")
	analyzeCmd.Flags().StringVarP(&flagText, "text", "t", "", "Text to analyze")
	analyzeCmd.Flags().StringVarP(&flagFile, "file", "f", "", "PDF to analyze instead of the text")
	analyzeCmd.Flags().BoolVarP(&flagRecent, "recent", "r", false, "Pick the PDF from recently used files")
	analyzeCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml/raw)")
	analyzeCmd.Flags().StringVarP(&flagSave, "save", "s", "", "Save the raw response to a file")
	analyzeCmd.Flags().StringVar(&flagFilter, "filter", "", "JMESPath filter applied to the response")
	analyzeCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query, or $(command) to pipe the response")
	analyzeCmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "Analysis service URL")
	analyzeCmd.Flags().StringVar(&flagTimeout, "timeout", "", "Request timeout (e.g. 90s, 0 for none)")
	analyzeCmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this analysis")
	analyzeCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Print request details to stderr")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "recent")

	historyCmd.Flags().StringVarP(&flagMode, "mode", "m", "", "Only this mode")
	historyCmd.Flags().StringVar(&flagSearch, "search", "", "Fuzzy search on file name and text")
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Maximum number of entries")
	historyCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml)")

	historyShowCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output format (text/json/yaml/raw)")
	historyShowCmd.Flags().StringVar(&flagFilter, "filter", "", "JMESPath filter applied to the response")
	historyShowCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath query, or $(command) to pipe the response")

	mockCmd.Flags().StringVarP(&mockConfigFile, "config", "c", "", "Mock configuration file (yaml/json/jsonc)")
	mockCmd.Flags().IntVar(&mockPort, "port", 0, "Port to listen on (overrides the config)")

	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check GitHub for a newer release")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(versionCmd)
}

// withEnv initializes the configuration, logger and stores around fn
func withEnv(cmd *cobra.Command, component string, fn func(env *cli.Env) error) error {
	if err := config.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{
		Path:      config.LogFile,
		Level:     settings.LogLevel,
		Component: component,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	env, err := cli.OpenEnv(settings, logger, cli.StdStreams())
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			logger.Warn("failed to close stores", "error", err)
		}
	}()

	return fn(env)
}

// runMock serves canned responses until interrupted, printing each request
func runMock(cmd *cobra.Command) error {
	cfg := mock.DefaultConfig()
	workdir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if mockConfigFile != "" {
		if cfg, err = mock.LoadConfig(mockConfigFile); err != nil {
			return err
		}
		workdir = filepath.Dir(mockConfigFile)
	}
	if mockPort != 0 {
		cfg.Port = mockPort
	}
	cfg.Logging = true

	logger, closer, err := logging.New(logging.Options{Level: "warn"})
	if err != nil {
		return err
	}
	defer closer.Close()

	server := mock.NewServer(cfg, workdir, logger)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mock analysis service on %s (ctrl+c to stop)\n", server.GetAddress())
	printMockLogs(cmd.Context(), out, server, logger)
	return nil
}

func printMockLogs(ctx context.Context, out io.Writer, server *mock.Server, logger *slog.Logger) {
	seen := 0
	for {
		select {
		case <-ctx.Done():
			logger.Debug("mock server shutting down")
			return
		case <-server.NotifyChannel():
			logs := server.GetLogs()
			for _, l := range logs[min(seen, len(logs)):] {
				fmt.Fprintf(out, "%s  %-9s %-12s %d  %-14s %s\n",
					l.Timestamp.Format("15:04:05"), l.Encoding, l.Mode, l.Status, l.MatchedRule, l.Input)
			}
			seen = len(logs)
		}
	}
}
