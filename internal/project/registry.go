// Package project resolves build-path style project identifiers (":app_skin")
// to directories inside the workspace.
package project

import (
	"os"
	"path/filepath"
	"strings"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/config"
)

// Project is a resolved workspace project.
type Project struct {
	Name      string
	Dir       string
	BuildRoot string
	Tasks     []string // declared task names, empty when unknown
}

// Path returns the build path form of the project name (":app_skin").
func (p Project) Path() string {
	return ":" + p.Name
}

// Registry looks projects up in the workspace file first and falls back to
// conventional directories under the workspace root.
type Registry struct {
	workspace string
	file      config.WorkspaceFile
}

// NewRegistry creates a registry for a workspace.
func NewRegistry(workspace string, file config.WorkspaceFile) *Registry {
	return &Registry{workspace: workspace, file: file}
}

// Find resolves id. Unknown projects yield an apperrors.ErrProjectNotFound error.
func (r *Registry) Find(id string) (*Project, error) {
	name := config.NormalizeProjectID(id)
	if name == "" {
		return nil, apperrors.ProjectNotFound(id)
	}

	if ref, ok := r.file.Project(name); ok {
		return &Project{
			Name:      ref.Name,
			Dir:       ref.Path,
			BuildRoot: ref.BuildRoot(),
			Tasks:     ref.Tasks,
		}, nil
	}

	// Nested build paths map onto nested directories: ":libs:skin" -> libs/skin.
	dir := filepath.Join(r.workspace, filepath.FromSlash(strings.ReplaceAll(name, ":", "/")))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, apperrors.ProjectNotFound(":" + name)
	}
	return &Project{
		Name:      name,
		Dir:       dir,
		BuildRoot: filepath.Join(dir, "build"),
	}, nil
}
