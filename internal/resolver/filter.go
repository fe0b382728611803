package resolver

import (
	"path/filepath"
	"strings"
)

// DefaultScratchDirs are directories holding generated or temporary content.
// Walks never descend into them.
var DefaultScratchDirs = []string{"generated", "tmp"}

// DefaultUnalignedMarker excludes pre-alignment artifacts.
const DefaultUnalignedMarker = "unaligned"

// Filter decides which files are acceptable artifacts.
type Filter struct {
	Extension       string // required file name suffix, e.g. ".apk"
	Variant         string // matched case-insensitively against the name or a parent directory
	UnalignedMarker string // excluded when present in the name, case-insensitive
}

func (f Filter) withDefaults() Filter {
	if f.Extension == "" {
		f.Extension = ".apk"
	}
	if f.UnalignedMarker == "" {
		f.UnalignedMarker = DefaultUnalignedMarker
	}
	return f
}

// Matches reports whether the file at rel (slash or OS separated, relative to
// the build root) is an artifact of the wanted variant. Callers must already
// know the entry is a regular file.
func (f Filter) Matches(rel string) bool {
	f = f.withDefaults()
	name := filepath.Base(rel)
	if !strings.HasSuffix(name, f.Extension) {
		return false
	}
	lowerName := strings.ToLower(name)
	if strings.Contains(lowerName, strings.ToLower(f.UnalignedMarker)) {
		return false
	}
	if f.Variant == "" {
		return true
	}
	variant := strings.ToLower(f.Variant)
	if strings.Contains(lowerName, variant) {
		return true
	}
	dir := filepath.ToSlash(filepath.Dir(rel))
	for _, segment := range strings.Split(dir, "/") {
		if strings.EqualFold(segment, variant) {
			return true
		}
	}
	return false
}

func isScratchDir(name string, scratch []string) bool {
	for _, s := range scratch {
		if name == s {
			return true
		}
	}
	return false
}
