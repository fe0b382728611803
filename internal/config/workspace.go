package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"artifactstager/internal/apperrors"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// DefaultWorkspaceFile is looked up in the workspace root when STAGER_CONFIG is unset.
const DefaultWorkspaceFile = "stager.yaml"

const defaultBuildDir = "build"

// ProjectRef declares one project of the workspace.
type ProjectRef struct {
	Name     string   `yaml:"name"`
	Path     string   `yaml:"path"`
	BuildDir string   `yaml:"build_dir,omitempty"`
	Tasks    []string `yaml:"tasks,omitempty"`
}

// StageSettings holds staging options declared in the workspace file.
// Empty fields fall through to environment variables and built-in defaults.
type StageSettings struct {
	Project    string `yaml:"project,omitempty"`
	Consumer   string `yaml:"consumer,omitempty"`
	Variant    string `yaml:"variant,omitempty"`
	Kind       string `yaml:"kind,omitempty"`
	Extension  string `yaml:"extension,omitempty"`
	StagingDir string `yaml:"staging_dir,omitempty"`
	FileName   string `yaml:"file_name,omitempty"`
	TaskName   string `yaml:"task_name,omitempty"`
	Required   bool   `yaml:"required,omitempty"`
	MaxDepth   int    `yaml:"max_depth,omitempty"`
}

// WorkspaceFile models stager.yaml.
type WorkspaceFile struct {
	Version  int           `yaml:"version"`
	Projects []ProjectRef  `yaml:"projects"`
	Stage    StageSettings `yaml:"stage"`
}

// LoadWorkspaceFile reads and validates the workspace file at path.
// A missing file is not an error: the defaults are returned and found is false.
// Relative project paths are resolved against base. Read failures match
// apperrors.ErrFilesystem; parse and validation failures are plain errors.
func LoadWorkspaceFile(path, base string) (file WorkspaceFile, found bool, err error) {
	file = WorkspaceFile{Version: 1}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return file, false, nil
		}
		return file, false, apperrors.Filesystem("config.read", path, err)
	}

	var parsed WorkspaceFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return file, false, fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(base)
	if err := parsed.validate(); err != nil {
		return file, false, fmt.Errorf("config: %s: %w", path, err)
	}
	return parsed, true, nil
}

// Project returns the declared project with the given name.
func (w WorkspaceFile) Project(name string) (ProjectRef, bool) {
	for _, p := range w.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return ProjectRef{}, false
}

// BuildRoot returns the absolute build output directory of the project.
func (p ProjectRef) BuildRoot() string {
	if filepath.IsAbs(p.BuildDir) {
		return p.BuildDir
	}
	return filepath.Join(p.Path, p.BuildDir)
}

func (w *WorkspaceFile) applyDefaults() {
	if w.Version == 0 {
		w.Version = 1
	}
	for i := range w.Projects {
		if strings.TrimSpace(w.Projects[i].BuildDir) == "" {
			w.Projects[i].BuildDir = defaultBuildDir
		}
	}
}

func (w *WorkspaceFile) normalize(base string) {
	for i := range w.Projects {
		w.Projects[i].normalize(base)
	}
	w.Stage.Project = NormalizeProjectID(w.Stage.Project)
	w.Stage.Consumer = NormalizeProjectID(w.Stage.Consumer)
	w.Stage.Variant = strings.TrimSpace(w.Stage.Variant)
	w.Stage.Kind = strings.TrimSpace(w.Stage.Kind)
	w.Stage.Extension = normalizeExtension(w.Stage.Extension)
}

func (w WorkspaceFile) validate() error {
	var result *multierror.Error
	if w.Version < 1 {
		result = multierror.Append(result, fmt.Errorf("version must be >= 1"))
	}
	seen := make(map[string]bool, len(w.Projects))
	for i, p := range w.Projects {
		if err := p.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("projects[%d]: %w", i, err))
			continue
		}
		if seen[p.Name] {
			result = multierror.Append(result, fmt.Errorf("projects[%d]: duplicate project %q", i, p.Name))
		}
		seen[p.Name] = true
	}
	if w.Stage.MaxDepth < 0 {
		result = multierror.Append(result, fmt.Errorf("stage.max_depth must be >= 0"))
	}
	if strings.ContainsAny(w.Stage.FileName, `/\`) {
		result = multierror.Append(result, fmt.Errorf("stage.file_name must not contain a path separator"))
	}
	return result.ErrorOrNil()
}

func (p *ProjectRef) normalize(base string) {
	p.Name = NormalizeProjectID(p.Name)
	if strings.TrimSpace(p.Path) == "" && p.Name != "" {
		p.Path = filepath.FromSlash(strings.ReplaceAll(p.Name, ":", "/"))
	}
	p.Path = resolvePath(base, p.Path)
	p.BuildDir = filepath.Clean(strings.TrimSpace(p.BuildDir))
}

func (p ProjectRef) validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// NormalizeProjectID strips surrounding space and the leading ':' of a build path,
// so ":app_skin" and "app_skin" name the same project.
func NormalizeProjectID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), ":")
}

func normalizeExtension(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
