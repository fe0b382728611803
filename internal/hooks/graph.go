// Package hooks wires the staging task into a build task graph. Every hook
// is optional: a task that does not exist is reported, never an error.
package hooks

import (
	"slices"
	"sort"
	"strings"
)

// Graph is the subset of a task graph the stager hooks into. Task names are
// fully qualified build paths (":app:mergeReleaseAssets").
type Graph interface {
	// Create adds task and reports whether it was new.
	Create(task string) bool
	// DependsOn makes task run after dependency. It reports false when either
	// task is absent.
	DependsOn(task, dependency string) bool
	// FinalizedBy schedules finalizer after task. It reports false when either
	// task is absent.
	FinalizedBy(task, finalizer string) bool
}

type node struct {
	deps       map[string]bool
	finalizers map[string]bool
}

// MemoryGraph is an in-memory Graph of declared tasks.
type MemoryGraph struct {
	nodes map[string]*node
}

// NewMemoryGraph creates a graph holding the given tasks.
func NewMemoryGraph(tasks ...string) *MemoryGraph {
	g := &MemoryGraph{nodes: make(map[string]*node)}
	for _, t := range tasks {
		g.Create(t)
	}
	return g
}

// TaskPath joins a project id and a task name into a build path.
// TaskPath("app_skin", "assembleDebug") == ":app_skin:assembleDebug".
func TaskPath(project, task string) string {
	return ":" + strings.TrimPrefix(project, ":") + ":" + task
}

// Create implements Graph.
func (g *MemoryGraph) Create(task string) bool {
	if _, ok := g.nodes[task]; ok {
		return false
	}
	g.nodes[task] = &node{deps: make(map[string]bool), finalizers: make(map[string]bool)}
	return true
}

// Has reports whether task is declared.
func (g *MemoryGraph) Has(task string) bool {
	_, ok := g.nodes[task]
	return ok
}

// DependsOn implements Graph.
func (g *MemoryGraph) DependsOn(task, dependency string) bool {
	n, ok := g.nodes[task]
	if !ok || !g.Has(dependency) {
		return false
	}
	n.deps[dependency] = true
	return true
}

// FinalizedBy implements Graph.
func (g *MemoryGraph) FinalizedBy(task, finalizer string) bool {
	n, ok := g.nodes[task]
	if !ok || !g.Has(finalizer) {
		return false
	}
	n.finalizers[finalizer] = true
	return true
}

// Dependencies returns the sorted direct dependencies of task.
func (g *MemoryGraph) Dependencies(task string) []string {
	n, ok := g.nodes[task]
	if !ok {
		return nil
	}
	return sortedKeys(n.deps)
}

// Finalizers returns the sorted finalizers of task.
func (g *MemoryGraph) Finalizers(task string) []string {
	n, ok := g.nodes[task]
	if !ok {
		return nil
	}
	return sortedKeys(n.finalizers)
}

// Tasks returns every declared task, sorted.
func (g *MemoryGraph) Tasks() []string {
	tasks := make([]string, 0, len(g.nodes))
	for t := range g.nodes {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	return tasks
}

// ExecutionOrder returns the tasks that run when requested is invoked:
// dependencies first, then each task, then its finalizers. Cycles are cut at
// the first revisit.
func (g *MemoryGraph) ExecutionOrder(requested ...string) []string {
	var order []string
	visited := make(map[string]bool)
	var visit func(string)
	visit = func(task string) {
		if visited[task] || !g.Has(task) {
			return
		}
		visited[task] = true
		for _, dep := range g.Dependencies(task) {
			visit(dep)
		}
		order = append(order, task)
		for _, fin := range g.Finalizers(task) {
			visit(fin)
		}
	}
	for _, t := range requested {
		visit(t)
	}
	return slices.Clip(order)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
