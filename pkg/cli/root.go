// Package cli implements the tablecmd command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/robert-radu/tablecmd/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// rootOptions carries the flags shared by all subcommands.
type rootOptions struct {
	configPath string
	logLevel   string
}

func (o *rootOptions) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "Path to a YAML config file (default $TABLECMD_CONFIG)")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig resolves configuration with flag > env > file precedence.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "tablecmd",
		Short:         "Table command service",
		Long:          "tablecmd parses and executes table DDL and LOAD DATA statements against a SQLite-backed metastore.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}
