// Package cli implements the sqlscope command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sqlscope/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// errRejected signals that a command already reported its failure on stdout.
var errRejected = errors.New("rejected")

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// app carries what every subcommand needs once flags and environment are
// resolved.
type app struct {
	envFile string
	output  string
	cfg     *config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "sqlscope",
		Short:         "Tenant-scoped SQL query service",
		Long:          "Validates read-only SQL, scopes it to a tenant and runs it on DuckDB.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(a.output); err != nil {
				return err
			}
			if err := config.LoadDotEnv(a.envFile); err != nil {
				return err
			}
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			a.cfg = cfg
			a.logger = newLogger(cfg, cmd.ErrOrStderr())
			for _, w := range cfg.Warnings {
				a.logger.Warn(w)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to a .env file loaded before the environment")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(
		newServeCmd(a),
		newTranspileCmd(a),
		newCatalogCmd(a),
		newAPIKeyCmd(a),
		newTokenCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// newLogger builds the process logger: JSON in production, text otherwise.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
