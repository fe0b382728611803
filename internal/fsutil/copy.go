// Package fsutil provides file system helpers shared by materialization and staging.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/atomicwriter"
)

// CopyResult describes a completed copy.
type CopyResult struct {
	Bytes  int64
	SHA256 string
}

// CopyFile replaces dst with the contents of src, creating dst's parent
// directories as needed. The destination is swapped in atomically, so readers
// see either the previous file or the complete new one.
func CopyFile(src, dst string) (*CopyResult, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	if err := atomicwriter.WriteFile(dst, data, 0o644); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	sum := sha256.Sum256(data)
	return &CopyResult{
		Bytes:  int64(len(data)),
		SHA256: hex.EncodeToString(sum[:]),
	}, nil
}

// DirExists reports whether path exists and is a directory.
// Errors other than "does not exist" are returned to the caller.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// RealDirExists is DirExists without following symlinks: a symlink to a
// directory reports false.
func RealDirExists(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// SymlinkBelow returns the first symlink on the way from root (exclusive)
// down to path (inclusive), or "" when there is none. The search stops at the
// first component that does not exist yet. path must lie inside root.
func SymlinkBelow(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}

	cur := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", nil
			}
			return "", err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return cur, nil
		}
	}
	return "", nil
}
