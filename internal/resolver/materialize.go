package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/fsutil"
)

// materialize promotes the newest intermediate artifact into the canonical
// tree at <outputs>/<kind>/<variant>/<name> and returns the copy. It returns
// nil without error when the intermediate tree holds no match. A symlink
// anywhere between buildRoot and the destination is a filesystem error.
func (r *Resolver) materialize(ctx context.Context, buildRoot string) (*Candidate, string, error) {
	src, err := r.newest(ctx, walkSpec{
		root:      r.layout.IntermediateRoot(buildRoot),
		buildRoot: buildRoot,
	})
	if err != nil || src == nil {
		return nil, "", err
	}

	variantDir := r.filter.Variant
	if variantDir == "" {
		variantDir = "default"
	}
	dst := filepath.Join(r.layout.CanonicalRoot(buildRoot), variantDir, filepath.Base(src.Path))
	link, err := fsutil.SymlinkBelow(buildRoot, dst)
	if err != nil {
		return nil, "", apperrors.Filesystem("materialize", dst, err)
	}
	if link != "" {
		return nil, "", apperrors.Filesystem("materialize", dst, fmt.Errorf("refusing to write through symlink %s", link))
	}
	if _, err := fsutil.CopyFile(src.Path, dst); err != nil {
		return nil, "", apperrors.Filesystem("materialize", dst, err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		return nil, "", apperrors.Filesystem("materialize", dst, err)
	}
	r.logger.Info("Materialized intermediate artifact", "from", src.Path, "to", dst)
	return &Candidate{Path: dst, ModTime: info.ModTime()}, src.Path, nil
}
