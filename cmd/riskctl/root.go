package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/flightrisk/flightrisk/internal/config"
)

type rootOptions struct {
	envFile   string
	historyDB string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "riskctl",
		Short: "Score flight disruption risk from the command line",
		Long: `riskctl runs the FlightRisk assessment pipeline locally.

Without provider keys it uses climatology weather and deterministic
explanations. Point --history-db at a SQLite file populated with
"riskctl history import" to include historical performance.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.envFile == "" {
				return nil
			}
			return config.LoadDotEnv(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file")
	cmd.PersistentFlags().StringVar(&opts.historyDB, "history-db", "", "SQLite history database (overrides HISTORY_BACKEND)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline activity to stderr")

	cmd.AddCommand(
		newAssessCmd(opts),
		newDurationCmd(),
		newSeasonalCmd(),
		newTierCmd(),
		newHistoryCmd(opts),
	)
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate(fmt.Sprintf("riskctl version %s\n", Version))

	return cmd
}

func (o *rootOptions) logger() zerolog.Logger {
	if !o.verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// loadConfig reads the environment and applies command-line overrides.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv("riskctl", Version)
	if err != nil {
		return config.Config{}, err
	}
	if o.historyDB != "" {
		cfg.HistoryBackend = config.HistorySQLite
		cfg.HistorySQLitePath = o.historyDB
	}
	return cfg, nil
}
