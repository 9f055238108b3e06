package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge"
)

var version = "0.1.0"

type rootOptions struct {
	verbose  bool
	logLevel string

	logger *zap.Logger
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	config := docmerge.GetGlobalConfig()

	cmd := &cobra.Command{
		Use:   "docmerge",
		Short: "Merge CSV rows into DOCX templates",
		Long: `docmerge produces one Word document per CSV row by replacing {PLACEHOLDER}
tokens in a DOCX template with values from the row.

Start with "docmerge init" to write a profile that maps placeholders to
columns, adjust it, then run "docmerge generate".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.logLevel
			if opts.verbose {
				level = "debug"
			}
			effective := *config
			effective.LogLevel = level
			if err := effective.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger, err := docmerge.NewLogger(level, opts.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			docmerge.SetLogger(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", config.LogLevel, "Log level (debug, info, warn, error, off)")

	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newColumnsCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newGenerateCmd(config))
	cmd.AddCommand(newProfileCmd(config))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// defaultStateDB is the profile database used when DOCMERGE_STATE_DB is not
// set. It returns "" when no user config directory is available.
func defaultStateDB(config *docmerge.Config) string {
	if _, ok := os.LookupEnv("DOCMERGE_STATE_DB"); ok {
		return config.StateDB
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docmerge", "state.db")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
