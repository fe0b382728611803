package resolver

import "path/filepath"

// Layout names the directories of a build-output tree.
type Layout struct {
	OutputsDir       string // canonical tree, default "outputs"
	IntermediatesDir string // toolchain-internal tree, default "intermediates"
	Kind             string // artifact kind subdirectory, default "apk"
}

func (l Layout) withDefaults() Layout {
	if l.OutputsDir == "" {
		l.OutputsDir = "outputs"
	}
	if l.IntermediatesDir == "" {
		l.IntermediatesDir = "intermediates"
	}
	if l.Kind == "" {
		l.Kind = "apk"
	}
	return l
}

// CanonicalRoot returns <buildRoot>/outputs/<kind>.
func (l Layout) CanonicalRoot(buildRoot string) string {
	l = l.withDefaults()
	return filepath.Join(buildRoot, l.OutputsDir, l.Kind)
}

// IntermediateRoot returns <buildRoot>/intermediates/<kind>.
func (l Layout) IntermediateRoot(buildRoot string) string {
	l = l.withDefaults()
	return filepath.Join(buildRoot, l.IntermediatesDir, l.Kind)
}

// CandidateRoot is one directory to search, lower Rank first.
type CandidateRoot struct {
	Path      string
	Rank      int
	Canonical bool // walks of canonical roots never descend into intermediates
}

// Prioritize returns the search roots for buildRoot, highest confidence first.
// The intermediate root is only searched directly for implicit builds; explicit
// builds promote intermediate artifacts through materialization instead.
func Prioritize(buildRoot string, intent BuildIntent, layout Layout) []CandidateRoot {
	layout = layout.withDefaults()
	roots := []CandidateRoot{
		{Path: layout.CanonicalRoot(buildRoot), Canonical: true},
		{Path: filepath.Join(buildRoot, layout.OutputsDir), Canonical: true},
	}
	if intent == IntentImplicit {
		roots = append(roots, CandidateRoot{Path: layout.IntermediateRoot(buildRoot)})
	}
	for i := range roots {
		roots[i].Rank = i
	}
	return roots
}
