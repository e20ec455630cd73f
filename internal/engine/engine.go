// Package engine orchestrates directive compilation runs. It owns
// discovery of input documents, capability registration, the shared file
// cache, and output placement; planning and rendering themselves live in
// the plan and compile packages.
package engine

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/embedm/internal/cache"
	"github.com/leapstack-labs/embedm/internal/config"
	"github.com/leapstack-labs/embedm/internal/plan"
	"github.com/leapstack-labs/embedm/internal/plugins/comment"
	"github.com/leapstack-labs/embedm/internal/plugins/file"
	"github.com/leapstack-labs/embedm/internal/plugins/querypath"
	"github.com/leapstack-labs/embedm/internal/plugins/recall"
	"github.com/leapstack-labs/embedm/internal/plugins/synopsis"
	"github.com/leapstack-labs/embedm/internal/plugins/tabular"
	"github.com/leapstack-labs/embedm/internal/plugins/toc"
)

// Engine drives compilation of Markdown documents with embedm directives.
type Engine struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *plan.Registry
}

// New creates an engine with the built-in capabilities registered.
// A nil logger discards.
func New(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config must not be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg := plan.NewRegistry()
	reg.MustRegister(comment.New())
	reg.MustRegister(file.New())
	reg.MustRegister(tabular.New())
	reg.MustRegister(querypath.New())
	reg.MustRegister(synopsis.New())
	reg.MustRegister(recall.New())
	reg.MustRegister(toc.New())

	logger.Debug("engine initialized",
		"capabilities", reg.Types(),
		"max_recursion", cfg.Limits.MaxRecursion,
		"max_memory", cfg.Limits.MaxMemory)

	return &Engine{cfg: cfg, logger: logger, registry: reg}, nil
}

// Registry exposes the capability registry, mainly for introspection
// commands.
func (e *Engine) Registry() *plan.Registry { return e.registry }

// newCache builds the file cache for one run. The sandbox covers the
// configured allowed paths plus the directories of the inputs and the
// output directory, so a bare invocation without config can still read
// its own inputs and write its results.
func (e *Engine) newCache(inputs []inputFile) *cache.FileCache {
	allowed := append([]string(nil), e.cfg.AllowedPaths...)
	if len(e.cfg.AllowedPaths) == 0 {
		seen := make(map[string]struct{})
		for _, in := range inputs {
			dir := filepath.Dir(in.Path)
			if _, ok := seen[dir]; ok {
				continue
			}
			seen[dir] = struct{}{}
			allowed = append(allowed, dir)
		}
	}
	if e.cfg.OutputDir != "" {
		allowed = append(allowed, e.cfg.OutputDir)
	}

	mode := cache.CreateNew
	if e.cfg.Overwrite {
		mode = cache.Overwrite
	}

	return cache.New(cache.Config{
		MaxFileSize:  e.cfg.Limits.MaxFileSize,
		MemoryLimit:  e.cfg.Limits.MaxMemory,
		MaxEmbedSize: e.cfg.Limits.MaxEmbedSize,
		AllowedPaths: allowed,
		WriteMode:    mode,
		OnEvent: func(path, event string) {
			e.logger.Debug("cache event", "event", event, "path", path)
		},
	})
}

// planConfig maps the loaded configuration onto the planner/compiler
// shared config.
func (e *Engine) planConfig() *plan.Config {
	return &plan.Config{
		MaxRecursion: e.cfg.Limits.MaxRecursion,
		MaxEmbedSize: e.cfg.Limits.MaxEmbedSize,
		PassOrder:    e.cfg.PassOrder,
		Settings:     e.cfg.Capabilities,
	}
}
