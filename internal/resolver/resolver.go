// Package resolver finds the freshest build artifact in a build-output tree
// whose shape depends on build intent, toolchain version and caching state.
//
// The search order comes from Prioritize. Resolve walks each root in turn and
// stops at the first root holding a match. Explicit builds that left their
// output only in the intermediate tree get it promoted into the canonical tree
// (materialization) rather than read from the intermediate tree directly.
package resolver

import (
	"context"
	"log/slog"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/fsutil"
)

// Source records how the resolved artifact was obtained.
type Source string

const (
	SourceCanonical         Source = "canonical"
	SourceIntermediate      Source = "intermediate"
	SourceEarlyMaterialized Source = "materialized-early"
	SourceLateMaterialized  Source = "materialized-late"
)

// Resolved is the single artifact chosen for an invocation.
type Resolved struct {
	Candidate
	Source           Source
	Root             string // candidate root that produced the match; empty when materialized
	MaterializedFrom string // intermediate path the artifact was copied from, if any
}

// Options configures a Resolver.
type Options struct {
	Layout      Layout
	Filter      Filter
	ScratchDirs []string // defaults to DefaultScratchDirs
	MaxDepth    int      // 0 disables the cap
	Logger      *slog.Logger
}

// Resolver searches candidate roots for an artifact. It holds no state between
// calls; every Resolve re-walks the file system.
type Resolver struct {
	layout      Layout
	filter      Filter
	scratchDirs []string
	maxDepth    int
	logger      *slog.Logger
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scratch := opts.ScratchDirs
	if len(scratch) == 0 {
		scratch = DefaultScratchDirs
	}
	return &Resolver{
		layout:      opts.Layout.withDefaults(),
		filter:      opts.Filter.withDefaults(),
		scratchDirs: scratch,
		maxDepth:    opts.MaxDepth,
		logger:      logger,
	}
}

// Layout returns the resolver's effective layout.
func (r *Resolver) Layout() Layout {
	return r.layout
}

// Resolve picks the artifact for buildRoot. roots normally come from
// Prioritize(buildRoot, intent, layout). A miss returns an error matching
// apperrors.ErrArtifactNotFound; file system failures while materializing match
// apperrors.ErrFilesystem.
func (r *Resolver) Resolve(ctx context.Context, roots []CandidateRoot, intent BuildIntent, buildRoot string) (*Resolved, error) {
	logger := r.logger.With("buildRoot", buildRoot, "intent", intent.String(), "variant", r.filter.Variant)

	if intent == IntentExplicit {
		canonical, err := fsutil.RealDirExists(r.layout.CanonicalRoot(buildRoot))
		if err != nil {
			logger.Debug("Canonical root unreadable, treating as missing", "error", err)
		}
		if !canonical {
			logger.Debug("Canonical root missing, trying early materialization")
			found, from, err := r.materialize(ctx, buildRoot)
			if err != nil {
				return nil, err
			}
			if found != nil {
				return &Resolved{Candidate: *found, Source: SourceEarlyMaterialized, MaterializedFrom: from}, nil
			}
		}
	}

	for _, root := range roots {
		found, err := r.newest(ctx, walkSpec{
			root:              root.Path,
			buildRoot:         buildRoot,
			skipIntermediates: root.Canonical,
		})
		if err != nil {
			return nil, err
		}
		if found == nil {
			logger.Debug("No match in root", "root", root.Path, "rank", root.Rank)
			continue
		}
		source := SourceIntermediate
		if root.Canonical {
			source = SourceCanonical
		}
		return &Resolved{Candidate: *found, Source: source, Root: root.Path}, nil
	}

	if intent == IntentExplicit {
		logger.Debug("Canonical roots empty, trying late materialization")
		found, from, err := r.materialize(ctx, buildRoot)
		if err != nil {
			return nil, err
		}
		if found != nil {
			return &Resolved{Candidate: *found, Source: SourceLateMaterialized, MaterializedFrom: from}, nil
		}
	}

	return nil, apperrors.ArtifactNotFound(buildRoot, r.filter.Variant)
}
