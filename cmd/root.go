package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/redraft-cli/internal/config"
	"github.com/KaramelBytes/redraft-cli/internal/logutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile string
	debug   bool
	// Logging flags (override config if set)
	flagLogLevel  string
	flagLogFormat string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
	// Process logger, built from config in loadConfig.
	logger = logutil.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "redraft",
	Short: "Redraft: chapter-aware rewriting of plain-text novels",
	Long: `Redraft splits a plain-text novel into chapters, sends a selected passage
to an OpenAI-compatible chat model for rewriting and splices the result back
into the file, either in place or as a new versioned copy.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadConfig(cmd.Root().PersistentFlags())
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.redraft/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

// loadConfig reads the config file and applies the persistent flag
// overrides in f.
func loadConfig(f *pflag.FlagSet) {
	c, err := cfgpkg.Load(cfgFile)
	var perr *cfgpkg.ParseError
	switch {
	case errors.As(err, &perr):
		// Defaults were returned alongside the parse error.
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v (using defaults)\n", err)
	case err != nil:
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	opts := logutil.FromConfig(cfg.Logging)
	if flagLogLevel != "" {
		opts.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		opts.Format = flagLogFormat
	}
	if debug {
		opts.Level = "debug"
	}
	l, err := logutil.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v (using default logger)\n", err)
		l, _ = logutil.New(logutil.Options{})
	}
	logger = l
	slog.SetDefault(logger)
}

// requireConfig returns the loaded configuration, loading it if a command
// ran without the root pre-run.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	var perr *cfgpkg.ParseError
	if err != nil && !errors.As(err, &perr) {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
