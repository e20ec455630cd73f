package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/embedm/internal/config"
	"github.com/leapstack-labs/embedm/internal/dag"
)

// watchDebounce batches rapid editor save events into one recompile.
const watchDebounce = 200 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Recompile documents when their inputs change",
		Long: `Watch compiles the given documents, then monitors every file they
embed. When a file changes, only the documents that depend on it are
recompiled. Press Ctrl+C to stop.`,
		Example: `  embedm watch docs/ --output-dir build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args)
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	eng, cfg, err := newEngine(cmd)
	if err != nil {
		return err
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("watch requires --output-dir")
	}

	inputs := args
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.LoggerFromContext(cmd.Context())

	// Initial full compile
	result, err := eng.Run(ctx, inputs, false)
	if err != nil {
		return err
	}
	printSummary(cmd, result)

	graph, err := eng.Graph(inputs)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := make(map[string]struct{})
	if err := watchGraphDirs(watcher, graph, inputs, watched); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %d files across %d directories. Press Ctrl+C to stop.\n",
		graph.NodeCount(), len(watched))

	pending := make(map[string]struct{})
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout(), "Stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, absErr := filepath.Abs(event.Name)
			if absErr != nil {
				continue
			}
			if !watchRelevant(graph, abs) {
				continue
			}
			pending[abs] = struct{}{}
			timer.Reset(watchDebounce)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			pending = make(map[string]struct{})

			affected := affectedDocuments(graph, changed)
			if len(affected) == 0 {
				continue
			}

			logger.Info("change detected", "files", changed, "recompiling", len(affected))
			result, runErr := eng.Run(ctx, affected, false)
			if runErr != nil {
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Recompile error: %v\n", runErr)
				continue
			}
			printSummary(cmd, result)

			// Edits can add or remove embeds, so refresh the graph and
			// pick up any new directories.
			if newGraph, graphErr := eng.Graph(inputs); graphErr == nil {
				graph = newGraph
				_ = watchGraphDirs(watcher, graph, inputs, watched)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", watchErr)
		}
	}
}

// watchGraphDirs makes sure every directory holding a graph file or an
// input root is watched. Already watched directories are skipped.
func watchGraphDirs(watcher *fsnotify.Watcher, graph *dag.Graph, inputs []string, watched map[string]struct{}) error {
	add := func(dir string) error {
		if _, ok := watched[dir]; ok {
			return nil
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = struct{}{}
		return nil
	}

	for _, node := range graph.AllNodes() {
		if err := add(filepath.Dir(node.Path)); err != nil {
			return err
		}
	}
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		dir := abs
		if !info.IsDir() {
			dir = filepath.Dir(abs)
		}
		if err := add(dir); err != nil {
			return err
		}
	}
	return nil
}

// watchRelevant reports whether a changed path should trigger work:
// anything already in the graph, or a Markdown file that may be new.
func watchRelevant(graph *dag.Graph, abs string) bool {
	if _, ok := graph.GetNode(abs); ok {
		return true
	}
	return strings.EqualFold(filepath.Ext(abs), ".md")
}

// affectedDocuments maps changed files to the documents to recompile.
// Markdown files unknown to the graph are new documents; they compile
// as themselves.
func affectedDocuments(graph *dag.Graph, changed []string) []string {
	affected := graph.AffectedDocuments(changed)

	known := make(map[string]struct{}, len(affected))
	for _, path := range affected {
		known[path] = struct{}{}
	}
	for _, path := range changed {
		if _, inGraph := graph.GetNode(path); inGraph {
			continue
		}
		if _, dup := known[path]; dup {
			continue
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			affected = append(affected, path)
			known[path] = struct{}{}
		}
	}
	return affected
}
