package hooks

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var plan = Plan{
	Producer:  "app_skin",
	Consumer:  "app",
	Variant:   "debug",
	StageTask: "copySkinDebugApk",
}

func TestRegister_FullGraph(t *testing.T) {
	t.Parallel()
	g := NewMemoryGraph(
		":app_skin:assembleDebug",
		":app_skin:packageDebug",
		":app:mergeReleaseAssets",
		":app:generateReleaseAssets",
		":app:preReleaseBuild",
		":app:assembleRelease",
	)

	report := Register(g, plan)

	const stage = ":app:copySkinDebugApk"
	if report.StageTask != stage {
		t.Errorf("StageTask = %q, want %q", report.StageTask, stage)
	}
	if !g.Has(stage) {
		t.Fatal("staging task was not created")
	}
	want := []Hook{
		{Task: stage, Relation: RelationDependsOn, Other: ":app_skin:assembleDebug", Applied: true},
		{Task: ":app:mergeReleaseAssets", Relation: RelationDependsOn, Other: stage, Applied: true},
		{Task: ":app:preReleaseBuild", Relation: RelationDependsOn, Other: stage, Applied: true},
		{Task: ":app:assembleRelease", Relation: RelationDependsOn, Other: stage, Applied: true},
		{Task: ":app_skin:packageDebug", Relation: RelationFinalizedBy, Other: stage, Applied: true},
		{Task: ":app_skin:assembleDebug", Relation: RelationFinalizedBy, Other: stage, Applied: true},
	}
	if diff := cmp.Diff(want, report.Hooks); diff != "" {
		t.Errorf("Hooks mismatch (-want +got):\n%s", diff)
	}
	if len(g.Dependencies(":app:generateReleaseAssets")) != 0 {
		t.Error("generateReleaseAssets should not be hooked when mergeReleaseAssets exists")
	}
}

func TestRegister_FallsBackToGenerate(t *testing.T) {
	t.Parallel()
	g := NewMemoryGraph(":app_skin:assembleDebug", ":app:generateReleaseAssets")

	report := Register(g, plan)

	if diff := cmp.Diff([]string{":app:copySkinDebugApk"}, g.Dependencies(":app:generateReleaseAssets")); diff != "" {
		t.Errorf("generateReleaseAssets deps mismatch (-want +got):\n%s", diff)
	}
	if len(report.Applied()) != 3 {
		t.Errorf("applied = %v, want stage->assemble, generate, assembleDebug finalizer", report.Applied())
	}
}

func TestRegister_ToleratesEmptyGraph(t *testing.T) {
	t.Parallel()
	g := NewMemoryGraph()

	report := Register(g, plan)

	if len(report.Hooks) != 7 {
		t.Errorf("attempted %d hooks, want 7", len(report.Hooks))
	}
	if applied := report.Applied(); len(applied) != 0 {
		t.Errorf("applied = %v, want none", applied)
	}
	if diff := cmp.Diff([]string{":app:copySkinDebugApk"}, g.Tasks()); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestRegister_ProducerBuildRunsStaging(t *testing.T) {
	t.Parallel()
	g := NewMemoryGraph(":app_skin:assembleDebug", ":app:assembleRelease")
	Register(g, plan)

	want := []string{":app_skin:assembleDebug", ":app:copySkinDebugApk"}
	if diff := cmp.Diff(want, g.ExecutionOrder(":app_skin:assembleDebug")); diff != "" {
		t.Errorf("ExecutionOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestHookString(t *testing.T) {
	t.Parallel()
	h := Hook{Task: ":app:preReleaseBuild", Relation: RelationDependsOn, Other: ":app:copySkinDebugApk"}
	if got := h.String(); got != ":app:preReleaseBuild dependsOn :app:copySkinDebugApk (absent)" {
		t.Errorf("String() = %q", got)
	}
}
