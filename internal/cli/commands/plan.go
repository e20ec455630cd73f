package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Show the compilation plan for a document",
		Long: `Plan validates a document and prints its directive tree without
compiling. Each node shows the directive type, its source, and any
statuses planning raised.`,
		Example: `  embedm plan README.md`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0])
		},
	}
	return cmd
}

func runPlan(cmd *cobra.Command, input string) error {
	eng, _, err := newEngine(cmd)
	if err != nil {
		return err
	}

	root, err := eng.Plan(input)
	if err != nil {
		return err
	}

	printPlanNode(cmd.OutOrStdout(), root, 0)

	level := root.TreeLevel()
	fmt.Fprintf(cmd.OutOrStdout(), "\nPlan: %d directives, overall status %s\n",
		root.CountNodes()-1, level.String())

	if level >= status.Error {
		return fmt.Errorf("plan has errors")
	}
	return nil
}

func printPlanNode(w io.Writer, n *plan.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	label := n.Directive.Type
	if n.Directive.Source != "" {
		label += " " + n.Directive.Source
	}
	fmt.Fprintf(w, "%s%s [%s]\n", indent, label, status.Max(n.Status).String())

	for _, s := range status.Filter(n.Status, status.Warning) {
		fmt.Fprintf(w, "%s  ! %s\n", indent, s.String())
	}

	for _, child := range n.Children {
		printPlanNode(w, child, depth+1)
	}
}
