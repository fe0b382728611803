package hooks

import "artifactstager/internal/config"

// FromWorkspace builds a graph of the tasks declared in the workspace file.
func FromWorkspace(file config.WorkspaceFile) *MemoryGraph {
	g := NewMemoryGraph()
	for _, p := range file.Projects {
		for _, task := range p.Tasks {
			g.Create(TaskPath(p.Name, task))
		}
	}
	return g
}

// PlanFor derives the hook plan from the stager configuration.
func PlanFor(cfg *config.StagerConfig) Plan {
	return Plan{
		Producer:  cfg.Project,
		Consumer:  cfg.Consumer,
		Variant:   cfg.Variant,
		StageTask: cfg.TaskName,
	}
}
