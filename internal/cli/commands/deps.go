package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	var transitive bool

	cmd := &cobra.Command{
		Use:   "deps [paths...]",
		Short: "Show the embed dependency graph",
		Long: `Deps plans the given documents and prints which files each one
embeds, directly and transitively, plus which documents would need
recompiling when a file changes.`,
		Example: `  # Graph for a whole docs tree
  embedm deps docs/

  # Full transitive closure per document
  embedm deps docs/ --transitive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args, transitive)
		},
	}

	cmd.Flags().BoolVar(&transitive, "transitive", false, "Show the full dependency closure per document")

	return cmd
}

func runDeps(cmd *cobra.Command, args []string, transitive bool) error {
	eng, _, err := newEngine(cmd)
	if err != nil {
		return err
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	graph, err := eng.Graph(inputs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Embed dependency graph:")
	fmt.Fprintln(out)

	for _, node := range graph.AllNodes() {
		if !node.Document {
			continue
		}

		fmt.Fprintf(out, "  %s\n", node.Path)
		if embeds := graph.Embeds(node.Path); len(embeds) > 0 {
			fmt.Fprintf(out, "    embeds: %s\n", strings.Join(embeds, ", "))
		}
		if transitive {
			if deps := graph.Dependencies(node.Path); len(deps) > 0 {
				fmt.Fprintf(out, "    closure: %s\n", strings.Join(deps, ", "))
			}
		}
		if parents := graph.EmbeddedBy(node.Path); len(parents) > 0 {
			fmt.Fprintf(out, "    embedded by: %s\n", strings.Join(parents, ", "))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total: %d files, %d embeds, %d root documents, %d leaf files\n",
		graph.NodeCount(), graph.EdgeCount(), len(graph.Roots()), len(graph.Leaves()))
	return nil
}
