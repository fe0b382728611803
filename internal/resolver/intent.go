package resolver

import "strings"

// BuildIntent classifies why the current invocation is running.
type BuildIntent int

const (
	// IntentImplicit means the step runs as a side effect of a lighter action
	// (run, install, deploy) that may not have produced canonical outputs.
	IntentImplicit BuildIntent = iota
	// IntentExplicit means a full assembly, or this staging step, was requested directly.
	IntentExplicit
)

func (i BuildIntent) String() string {
	if i == IntentExplicit {
		return "explicit"
	}
	return "implicit"
}

// explicitMarkers are task name fragments that signal a full build request.
var explicitMarkers = []string{"assemble", "build"}

// ClassifyIntent derives the build intent from the originally requested task
// names. stageTask is the staging step's own task name; requesting it directly
// counts as explicit.
func ClassifyIntent(taskNames []string, stageTask string) BuildIntent {
	for _, name := range taskNames {
		for _, marker := range explicitMarkers {
			if strings.Contains(name, marker) {
				return IntentExplicit
			}
		}
		if stageTask != "" && strings.Contains(name, stageTask) {
			return IntentExplicit
		}
	}
	return IntentImplicit
}
