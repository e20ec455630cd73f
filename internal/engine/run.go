package engine

// run.go - discovery and run orchestration

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/embedm/internal/cache"
	"github.com/leapstack-labs/embedm/internal/compile"
	"github.com/leapstack-labs/embedm/internal/directive"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/status"
)

// inputFile is one discovered document. Rel preserves the position under
// the input root so directory runs mirror their layout into OutputDir.
type inputFile struct {
	Path string // absolute
	Rel  string
}

// FileResult is the outcome of compiling one document.
type FileResult struct {
	// Path is the absolute input path.
	Path string
	// OutputPath is where the result was written; empty for stdout or
	// dry runs.
	OutputPath string
	// Output is the compiled document text.
	Output string
	// Statuses collects every status raised while planning the file.
	Statuses []status.Status
	// Level is the highest status level in the plan tree.
	Level status.Level
	// Directives counts planned directive nodes, the root excluded.
	Directives int

	Duration time.Duration
}

// Result is the outcome of a whole run.
type Result struct {
	// ID identifies the run in logs.
	ID    string
	Files []FileResult

	Duration time.Duration
}

// HasBlocking reports whether any file raised an error or worse.
func (r *Result) HasBlocking() bool {
	for _, f := range r.Files {
		if f.Level >= status.Error {
			return true
		}
	}
	return false
}

// Summary returns a one-line human-readable run summary.
func (r *Result) Summary() string {
	warnings, errors := 0, 0
	for _, f := range r.Files {
		for _, s := range f.Statuses {
			switch {
			case s.Level >= status.Error:
				errors++
			case s.Level == status.Warning:
				warnings++
			}
		}
	}
	return fmt.Sprintf("Files: %d | Warnings: %d | Errors: %d | Duration: %s",
		len(r.Files), warnings, errors, r.Duration.Round(time.Millisecond))
}

// Run compiles every discovered document and, unless dryRun is set,
// writes the results. Compilation failures in one file never stop the
// others; they surface as statuses on that file's result.
func (e *Engine) Run(ctx context.Context, inputs []string, dryRun bool) (*Result, error) {
	runID := uuid.New().String()
	start := time.Now()

	e.logger.Info("starting run", "run_id", runID, "inputs", inputs, "dry_run", dryRun)

	files, err := e.discover(inputs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Markdown files found in %s", strings.Join(inputs, ", "))
	}

	fc := e.newCache(files)
	planCfg := e.planConfig()
	planner := plan.NewPlanner(e.registry, fc, planCfg, e.logger)
	planCtx := plan.NewContext(fc, e.registry, planCfg, e.logger)

	result := &Result{ID: runID}

	for _, in := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fileStart := time.Now()
		fr := e.compileFile(planner, planCtx, in)

		if !dryRun && fr.Level < status.Fatal {
			outPath, writeStatuses := e.writeOutput(fc, in, fr.Output)
			fr.OutputPath = outPath
			fr.Statuses = append(fr.Statuses, writeStatuses...)
			if lvl := status.Max(writeStatuses); lvl > fr.Level {
				fr.Level = lvl
			}
		}

		fr.Duration = time.Since(fileStart)
		result.Files = append(result.Files, fr)

		e.logger.Debug("file compiled",
			"path", in.Path,
			"level", fr.Level.String(),
			"directives", fr.Directives,
			"duration_ms", fr.Duration.Milliseconds())
	}

	result.Duration = time.Since(start)
	if result.HasBlocking() {
		e.logger.Info("run completed with errors", "run_id", runID, "summary", result.Summary())
	} else {
		e.logger.Info("run completed", "run_id", runID, "summary", result.Summary())
	}
	return result, nil
}

// Plan builds the plan tree for a single document without compiling.
func (e *Engine) Plan(input string) (*plan.Node, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve %q: %w", input, err)
	}

	files := []inputFile{{Path: abs, Rel: filepath.Base(abs)}}
	fc := e.newCache(files)
	planner := plan.NewPlanner(e.registry, fc, e.planConfig(), e.logger)

	root := rootDirective(abs)
	content, loadStatuses := fc.GetFile(abs)
	if len(loadStatuses) > 0 {
		return &plan.Node{Directive: root, Status: loadStatuses}, nil
	}
	return planner.CreatePlan(root, content, []string{abs}, 0), nil
}

// compileFile plans and renders one document.
func (e *Engine) compileFile(planner *plan.Planner, planCtx *plan.Context, in inputFile) FileResult {
	root := rootDirective(in.Path)

	content, loadStatuses := planCtx.Cache.GetFile(in.Path)
	if len(loadStatuses) > 0 {
		return FileResult{Path: in.Path, Statuses: loadStatuses, Level: status.Max(loadStatuses)}
	}

	node := planner.CreatePlan(root, content, []string{in.Path}, 0)
	output := compile.Compile(node, planCtx)

	return FileResult{
		Path:       in.Path,
		Output:     output,
		Statuses:   node.TreeStatuses(),
		Level:      node.TreeLevel(),
		Directives: node.CountNodes() - 1,
	}
}

// writeOutput places a compiled document. With no output directory the
// text stays in the result for the caller to print.
func (e *Engine) writeOutput(fc *cache.FileCache, in inputFile, output string) (string, []status.Status) {
	if e.cfg.OutputDir == "" {
		return "", nil
	}

	target := filepath.Join(e.cfg.OutputDir, in.Rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", []status.Status{status.Errorf("cannot create output directory %q: %v", filepath.Dir(target), err)}
	}

	actual, writeStatuses := fc.Write(output, target)
	if len(writeStatuses) > 0 {
		return "", writeStatuses
	}
	return actual, nil
}

// discover expands the input arguments into the list of documents to
// compile. Directories are walked recursively for .md files; hidden
// directories are skipped. Results are absolute paths in stable order.
func (e *Engine) discover(inputs []string) ([]inputFile, error) {
	var files []inputFile
	seen := make(map[string]struct{})

	add := func(path, rel string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, inputFile{Path: path, Rel: rel})
	}

	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %q: %w", input, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot read input %q: %w", input, err)
		}

		if !info.IsDir() {
			add(abs, filepath.Base(abs))
			continue
		}

		walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if name := d.Name(); path != abs && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".md") {
				return nil
			}
			rel, relErr := filepath.Rel(abs, path)
			if relErr != nil {
				rel = filepath.Base(path)
			}
			add(path, rel)
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("cannot walk %q: %w", input, walkErr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// rootDirective synthesizes the plan root for a top-level document.
func rootDirective(absPath string) *directive.Directive {
	return &directive.Directive{
		Type:    "file",
		Source:  absPath,
		BaseDir: filepath.Dir(absPath),
	}
}
