package staging

import (
	"os"
	"path/filepath"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/fsutil"
)

// Target is the fixed destination inside the consumer project.
type Target struct {
	Dir      string
	FileName string
}

// Path returns the destination file path.
func (t Target) Path() string {
	return filepath.Join(t.Dir, t.FileName)
}

// Stage copies src to the target, creating the directory if needed. An existing
// destination is replaced as a whole; a failed copy leaves it untouched.
func Stage(src string, target Target) (*fsutil.CopyResult, error) {
	dst := target.Path()
	res, err := fsutil.CopyFile(src, dst)
	if err != nil {
		return nil, apperrors.Filesystem("stage.copy", dst, err)
	}
	return res, nil
}

// Staged reports whether the target holds a regular file.
func Staged(target Target) bool {
	info, err := os.Lstat(target.Path())
	return err == nil && info.Mode().IsRegular()
}
