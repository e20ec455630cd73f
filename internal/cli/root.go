// Package cli provides the command-line interface for embedm.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/embedm/internal/cli/commands"
	"github.com/leapstack-labs/embedm/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "embedm",
		Short: "embedm - Markdown embedding compiler",
		Long: `embedm compiles Markdown documents containing embed directives.

Directives are fenced YAML blocks that pull in files, code regions,
symbols, tables, query results, summaries, and tables of contents.
embedm resolves them recursively and writes the compiled documents.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Markdown embedding compiler
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./embedm.yaml)")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "Directory for compiled output (default: stdout)")
	rootCmd.PersistentFlags().BoolP("overwrite", "f", false, "Overwrite existing output files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringSlice("allowed-paths", nil, "Sandbox roots or wildcard patterns for file access")
	rootCmd.PersistentFlags().Int64("max-file-size", 0, "Per-file size limit in bytes")
	rootCmd.PersistentFlags().Int("max-recursion", 0, "Maximum embed nesting depth")
	rootCmd.PersistentFlags().Int64("max-memory", 0, "File cache byte budget")
	rootCmd.PersistentFlags().Int64("max-embed-size", 0, "Per-embed output size limit in bytes")

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewPlanCommand())
	rootCmd.AddCommand(commands.NewDepsCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
