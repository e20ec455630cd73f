package engine

// graph.go - embed dependency graph construction

import (
	"github.com/leapstack-labs/embedm/internal/dag"
	"github.com/leapstack-labs/embedm/internal/plan"
)

// Graph plans every discovered document and folds the plans into one
// embed dependency graph. Planning problems do not fail the build; a
// document that cannot be planned still appears as an isolated node.
func (e *Engine) Graph(inputs []string) (*dag.Graph, error) {
	files, err := e.discover(inputs)
	if err != nil {
		return nil, err
	}

	fc := e.newCache(files)
	planner := plan.NewPlanner(e.registry, fc, e.planConfig(), e.logger)

	g := dag.NewGraph()
	for _, in := range files {
		g.AddNode(in.Path, true)

		content, loadStatuses := fc.GetFile(in.Path)
		if len(loadStatuses) > 0 {
			e.logger.Debug("skipping unreadable document", "path", in.Path)
			continue
		}

		node := planner.CreatePlan(rootDirective(in.Path), content, []string{in.Path}, 0)
		g.AddPlan(node)
	}
	return g, nil
}
