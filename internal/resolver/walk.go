package resolver

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"artifactstager/internal/fsutil"
)

// Candidate is a matching file found during a walk.
type Candidate struct {
	Path    string
	ModTime time.Time
}

// walkSpec describes one walk.
type walkSpec struct {
	root              string
	buildRoot         string
	skipIntermediates bool
}

// newest walks spec.root and returns the most recently modified matching file,
// or nil when nothing matches. Missing roots and unreadable subdirectories are
// skipped. Symlinks are never followed: a symlinked root is treated as missing,
// symlinked files are not regular files and WalkDir does not descend into
// symlinked directories.
func (r *Resolver) newest(ctx context.Context, spec walkSpec) (*Candidate, error) {
	exists, err := fsutil.RealDirExists(spec.root)
	if err != nil {
		r.logger.Debug("Skipping unreadable root", "root", spec.root, "error", err)
		return nil, nil
	}
	if !exists {
		return nil, nil
	}

	var best *Candidate
	err = filepath.WalkDir(spec.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			r.logger.Debug("Skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() && path != spec.root {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == spec.root {
				return nil
			}
			name := d.Name()
			if isScratchDir(name, r.scratchDirs) {
				return filepath.SkipDir
			}
			if spec.skipIntermediates && name == r.layout.IntermediatesDir {
				return filepath.SkipDir
			}
			if r.maxDepth > 0 && depth(spec.root, path) >= r.maxDepth {
				r.logger.Debug("Walk depth cap reached", "path", path, "maxDepth", r.maxDepth)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(spec.buildRoot, path)
		if relErr != nil || strings.HasPrefix(rel, "..") {
			rel, _ = filepath.Rel(spec.root, path)
		}
		if !r.filter.Matches(rel) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			r.logger.Debug("Skipping vanished file", "path", path, "error", infoErr)
			return nil
		}
		// WalkDir visits in lexical order, so equal timestamps keep the first path.
		if best == nil || info.ModTime().After(best.ModTime) {
			best = &Candidate{Path: path, ModTime: info.ModTime()}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

// depth counts path separators between root and path.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
