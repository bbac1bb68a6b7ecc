package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/sources"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	flagVerbose     bool
	flagFormat      string
	flagConcurrency int
	flagMaxPages    int
	flagEnvFile     string
)

var rootCmd = &cobra.Command{
	Use:   "catalogscrape <source> [output]",
	Short: "Scrape a photobook publisher catalog into CSV",
	Long: `catalogscrape crawls one publisher site, parses every item page into a
catalog record and writes one CSV row per item.

The output path defaults to output/<source>.csv. Configuration is read from
.env and CATALOG_* environment variables; flags override both.

Examples:
  catalogscrape mack
  catalogscrape setanta data/setanta.csv
  catalogscrape all out/
  catalogscrape list`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		output := cfg.OutputPath(args[0])
		if len(args) == 2 {
			output = args[1]
		}
		return runSources(cmd.Context(), cfg, []string{args[0]}, func(string) string { return output })
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sources",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range sources.Names() {
			p, _ := sources.Lookup(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-12s %s\n", name, p.Family, p.BaseURL)
		}
	},
}

var allCmd = &cobra.Command{
	Use:   "all [dir]",
	Short: "Scrape every registered source, one file each",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.OutputDir = args[0]
		}
		return runSources(cmd.Context(), cfg, sources.Names(), cfg.OutputPath)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "Output format: csv, json, or dual")
	rootCmd.PersistentFlags().IntVar(&flagConcurrency, "concurrency", 0, "Detail pages fetched at once (1-5)")
	rootCmd.PersistentFlags().IntVar(&flagMaxPages, "max-pages", 0, "Override the listing pagination bound")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Environment file to load when present")

	rootCmd.AddCommand(listCmd, allCmd)
}

// loadConfig layers flags over .env and CATALOG_* variables and installs
// the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}
	if flags.Changed("format") {
		cfg.OutputFormat = flagFormat
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if flags.Changed("max-pages") {
		cfg.MaxPages = flagMaxPages
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.SetDefault(newLogger(cfg.Verbose))
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: "15:04:05"})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("scrape failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
