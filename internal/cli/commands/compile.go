// Package commands implements the embedm subcommands.
package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/embedm/internal/config"
	"github.com/leapstack-labs/embedm/internal/engine"
	"github.com/leapstack-labs/embedm/internal/status"
)

// newEngine builds an engine from the command's loaded configuration.
func newEngine(cmd *cobra.Command) (*engine.Engine, *config.Config, error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.LoggerFromContext(cmd.Context())
	eng, err := engine.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "compile [paths...]",
		Short: "Compile Markdown documents with embed directives",
		Long: `Compile resolves every embed directive in the given files or
directories and writes the results.

With --output-dir the compiled documents mirror the input layout under
that directory; without it, compiled text goes to stdout. Problems in a
directive never abort the run: they render as inline caution markers and
are reported in the summary.`,
		Example: `  # Compile a single document to stdout
  embedm compile README.md

  # Compile a directory tree into build/
  embedm compile docs/ --output-dir build

  # Check for directive problems without writing anything
  embedm compile docs/ --dry-run`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan and compile without writing output")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string, dryRun bool) error {
	eng, cfg, err := newEngine(cmd)
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	result, err := eng.Run(cmd.Context(), inputs, dryRun)
	if err != nil {
		return err
	}

	// Stdout mode: the document itself is the output, everything else
	// goes to stderr.
	if cfg.OutputDir == "" && !dryRun {
		for _, f := range result.Files {
			fmt.Fprint(cmd.OutOrStdout(), f.Output)
		}
		printStatuses(cmd, result, true)
	} else {
		printSummary(cmd, result)
		printStatuses(cmd, result, false)
	}

	if result.HasBlocking() {
		return fmt.Errorf("compilation finished with errors")
	}
	return nil
}

// printSummary renders the per-file result table.
func printSummary(cmd *cobra.Command, result *engine.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Status", "Directives", "Output", "Duration"})

	for _, f := range result.Files {
		out := f.OutputPath
		if out == "" {
			out = "-"
		}
		t.AppendRow(table.Row{f.Path, f.Level.String(), f.Directives, out, f.Duration.Round(time.Millisecond)})
	}
	t.Render()

	fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
}

// printStatuses lists warnings and errors per file. With toStderr set
// everything goes to stderr so stdout stays clean document text.
func printStatuses(cmd *cobra.Command, result *engine.Result, toStderr bool) {
	w := cmd.OutOrStdout()
	if toStderr {
		w = cmd.ErrOrStderr()
	}

	for _, f := range result.Files {
		problems := status.Filter(f.Statuses, status.Warning)
		if len(problems) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s:\n", f.Path)
		for _, s := range problems {
			fmt.Fprintf(w, "  %s\n", s.String())
		}
	}
}
