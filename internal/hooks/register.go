package hooks

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// Relation is the kind of edge a hook adds.
type Relation string

const (
	RelationDependsOn   Relation = "dependsOn"
	RelationFinalizedBy Relation = "finalizedBy"
)

// Plan describes where the staging task hooks in.
type Plan struct {
	Producer    string // project building the artifact
	Consumer    string // project receiving the staged file
	Variant     string // variant of the producer build, e.g. "debug"
	HookVariant string // consumer variant whose build pulls the staging task in, default "release"
	StageTask   string // staging task name, e.g. "copySkinDebugApk"
}

// StageTaskPath returns the staging task's build path in the consumer project.
func (p Plan) StageTaskPath() string {
	return TaskPath(p.Consumer, p.StageTask)
}

// Hook is one attempted edge.
type Hook struct {
	Task     string
	Relation Relation
	Other    string
	Applied  bool
}

func (h Hook) String() string {
	state := "applied"
	if !h.Applied {
		state = "absent"
	}
	return fmt.Sprintf("%s %s %s (%s)", h.Task, h.Relation, h.Other, state)
}

// Report lists every attempted hook in registration order.
type Report struct {
	StageTask string
	Hooks     []Hook
}

// Applied returns the hooks that were wired.
func (r Report) Applied() []Hook {
	var out []Hook
	for _, h := range r.Hooks {
		if h.Applied {
			out = append(out, h)
		}
	}
	return out
}

// Register creates the staging task in g and attaches it:
//   - the staging task depends on the producer's assemble<Variant>;
//   - the consumer's merge<Hook>Assets (or generate<Hook>Assets when merge is
//     absent), pre<Hook>Build and assemble<Hook> depend on the staging task;
//   - the producer's package<Variant> and assemble<Variant> are finalized by it.
func Register(g Graph, plan Plan) Report {
	hookVariant := plan.HookVariant
	if hookVariant == "" {
		hookVariant = "release"
	}
	variant := capitalize(plan.Variant)
	hook := capitalize(hookVariant)
	stage := plan.StageTaskPath()
	logger := slog.With("stageTask", stage)

	g.Create(stage)
	report := Report{StageTask: stage}
	add := func(task string, rel Relation, other string, ok bool) bool {
		report.Hooks = append(report.Hooks, Hook{Task: task, Relation: rel, Other: other, Applied: ok})
		if ok {
			logger.Debug("Hook registered", "task", task, "relation", string(rel), "other", other)
		} else {
			logger.Debug("Hook target absent", "task", task, "relation", string(rel), "other", other)
		}
		return ok
	}

	producerAssemble := TaskPath(plan.Producer, "assemble"+variant)
	add(stage, RelationDependsOn, producerAssemble, g.DependsOn(stage, producerAssemble))

	for _, name := range []string{"merge" + hook + "Assets", "generate" + hook + "Assets"} {
		task := TaskPath(plan.Consumer, name)
		if add(task, RelationDependsOn, stage, g.DependsOn(task, stage)) {
			break
		}
	}
	for _, name := range []string{"pre" + hook + "Build", "assemble" + hook} {
		task := TaskPath(plan.Consumer, name)
		add(task, RelationDependsOn, stage, g.DependsOn(task, stage))
	}

	for _, name := range []string{"package" + variant, "assemble" + variant} {
		task := TaskPath(plan.Producer, name)
		add(task, RelationFinalizedBy, stage, g.FinalizedBy(task, stage))
	}

	logger.Info("Staging task registered", "applied", len(report.Applied()), "attempted", len(report.Hooks))
	return report
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToTitle(r[0])
	return string(r)
}
