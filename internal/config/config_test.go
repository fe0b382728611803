package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artifactstager/internal/apperrors"

	"github.com/google/go-cmp/cmp"
)

const workspaceYAML = `
version: 1
projects:
  - name: ":app_skin"
    path: skins/app_skin
    tasks: [assembleDebug, packageDebug]
  - name: app
    build_dir: out
stage:
  project: ":app_skin"
  variant: debug
  extension: apk
  staging_dir: src/main/assets/skins
  file_name: theme.apk
  required: true
`

func writeWorkspace(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultWorkspaceFile), []byte(strings.TrimSpace(content)), 0o644); err != nil {
		t.Fatalf("Failed to write workspace file: %v", err)
	}
	return dir
}

func TestLoadWorkspaceFileMissing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file, found, err := LoadWorkspaceFile(filepath.Join(dir, DefaultWorkspaceFile), dir)
	if err != nil {
		t.Fatalf("LoadWorkspaceFile() error = %v", err)
	}
	if found {
		t.Error("expected found == false for a missing file")
	}
	if file.Version != 1 {
		t.Errorf("Version = %d, want 1", file.Version)
	}
}

func TestLoadWorkspaceFileParsesYAML(t *testing.T) {
	t.Parallel()
	dir := writeWorkspace(t, workspaceYAML)

	file, found, err := LoadWorkspaceFile(filepath.Join(dir, DefaultWorkspaceFile), dir)
	if err != nil {
		t.Fatalf("LoadWorkspaceFile() error = %v", err)
	}
	if !found {
		t.Fatal("expected found == true")
	}

	skin, ok := file.Project("app_skin")
	if !ok {
		t.Fatal("expected app_skin project to be declared")
	}
	if skin.Path != filepath.Join(dir, "skins", "app_skin") {
		t.Errorf("app_skin path = %q, want resolved under workspace", skin.Path)
	}
	if skin.BuildRoot() != filepath.Join(dir, "skins", "app_skin", "build") {
		t.Errorf("app_skin build root = %q", skin.BuildRoot())
	}
	if diff := cmp.Diff([]string{"assembleDebug", "packageDebug"}, skin.Tasks); diff != "" {
		t.Errorf("tasks mismatch (-want +got):\n%s", diff)
	}

	app, ok := file.Project("app")
	if !ok {
		t.Fatal("expected app project to be declared")
	}
	if app.BuildRoot() != filepath.Join(dir, "app", "out") {
		t.Errorf("app build root = %q, want default path from name", app.BuildRoot())
	}

	if file.Stage.Project != "app_skin" {
		t.Errorf("stage.project = %q, want leading ':' stripped", file.Stage.Project)
	}
	if file.Stage.Extension != ".apk" {
		t.Errorf("stage.extension = %q, want '.apk'", file.Stage.Extension)
	}
}

func TestLoadWorkspaceFileValidationAggregates(t *testing.T) {
	t.Parallel()
	dir := writeWorkspace(t, `
version: 1
projects:
  - path: somewhere
  - name: app
  - name: app
stage:
  max_depth: -1
  file_name: nested/skin.apk
`)

	_, _, err := LoadWorkspaceFile(filepath.Join(dir, DefaultWorkspaceFile), dir)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"projects[0]: name is required", "duplicate project", "max_depth", "file_name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestLoadStagerConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STAGER_WORKSPACE", dir)

	cfg, err := LoadStagerConfig()
	if err != nil {
		t.Fatalf("LoadStagerConfig() error = %v", err)
	}
	if cfg.FileFound {
		t.Error("expected no workspace file")
	}
	if cfg.Project != DefaultProject || cfg.Consumer != DefaultConsumer {
		t.Errorf("projects = %q/%q, want defaults", cfg.Project, cfg.Consumer)
	}
	if cfg.TaskName != "copySkinDebugApk" {
		t.Errorf("TaskName = %q, want copySkinDebugApk", cfg.TaskName)
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", cfg.MaxDepth, DefaultMaxDepth)
	}
	if want := filepath.Join(dir, "app", "src", "main", "assets"); cfg.StagingPath() != want {
		t.Errorf("StagingPath() = %q, want %q", cfg.StagingPath(), want)
	}
}

func TestLoadStagerConfigFileThenEnv(t *testing.T) {
	dir := writeWorkspace(t, workspaceYAML)
	t.Setenv("STAGER_WORKSPACE", dir)
	t.Setenv("STAGER_VARIANT", "release")
	t.Setenv("STAGER_TASKS", ":app:assembleRelease,installRelease")
	t.Setenv("STAGER_BUILD_ROOT", "custom/build")

	cfg, err := LoadStagerConfig()
	if err != nil {
		t.Fatalf("LoadStagerConfig() error = %v", err)
	}
	if !cfg.FileFound {
		t.Fatal("expected workspace file to be found")
	}
	if cfg.Variant != "release" {
		t.Errorf("Variant = %q, want env override 'release'", cfg.Variant)
	}
	if cfg.FileName != "theme.apk" {
		t.Errorf("FileName = %q, want file value 'theme.apk'", cfg.FileName)
	}
	if !cfg.Required {
		t.Error("expected Required from file")
	}
	if cfg.TaskName != "copySkinReleaseApk" {
		t.Errorf("TaskName = %q, want derived from overridden variant", cfg.TaskName)
	}
	if cfg.BuildRoot != filepath.Join(dir, "custom", "build") {
		t.Errorf("BuildRoot = %q, want resolved against workspace", cfg.BuildRoot)
	}
	if want := filepath.Join(dir, "app", "src", "main", "assets", "skins"); cfg.StagingPath() != want {
		t.Errorf("StagingPath() = %q, want %q", cfg.StagingPath(), want)
	}
	if diff := cmp.Diff([]string{":app:assembleRelease", "installRelease"}, cfg.Tasks); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStagerConfigInvalidFile(t *testing.T) {
	dir := writeWorkspace(t, "projects: [unterminated")
	t.Setenv("STAGER_WORKSPACE", dir)

	_, err := LoadStagerConfig()
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("LoadStagerConfig() error = %v, want ErrValidation", err)
	}
}

func TestLoadStagerConfigUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the file fails on read, not on parse.
	if err := os.Mkdir(filepath.Join(dir, DefaultWorkspaceFile), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STAGER_WORKSPACE", dir)

	_, err := LoadStagerConfig()
	if !errors.Is(err, apperrors.ErrFilesystem) {
		t.Fatalf("LoadStagerConfig() error = %v, want ErrFilesystem", err)
	}
	if errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("read failure must not be reported as ErrValidation: %v", err)
	}
	if got := apperrors.ExitCode(err); got != apperrors.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", got, apperrors.ExitFailure)
	}
}

func TestStagerConfigValidate(t *testing.T) {
	t.Parallel()
	valid := StagerConfig{Variant: "debug", FileName: "skin.apk", MaxDepth: 4, LogFormat: "json"}

	tests := []struct {
		name   string
		mutate func(*StagerConfig)
		field  string
	}{
		{"valid", func(*StagerConfig) {}, ""},
		{"missing variant", func(c *StagerConfig) { c.Variant = " " }, "variant"},
		{"missing file name", func(c *StagerConfig) { c.FileName = "" }, "file_name"},
		{"file name with separator", func(c *StagerConfig) { c.FileName = "a/b.apk" }, "file_name"},
		{"negative depth", func(c *StagerConfig) { c.MaxDepth = -1 }, "max_depth"},
		{"bad log format", func(c *StagerConfig) { c.LogFormat = "xml" }, "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			var appErr *apperrors.Error
			if !errors.As(err, &appErr) {
				t.Fatalf("Validate() error = %v, want *apperrors.Error", err)
			}
			if appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}
}

func TestDefaultTaskName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		variant, kind, want string
	}{
		{"debug", "apk", "copySkinDebugApk"},
		{"release", "aab", "copySkinReleaseAab"},
		{"", "apk", "copySkinApk"},
	}
	for _, tt := range tests {
		if got := DefaultTaskName(tt.variant, tt.kind); got != tt.want {
			t.Errorf("DefaultTaskName(%q, %q) = %q, want %q", tt.variant, tt.kind, got, tt.want)
		}
	}
}

func TestNormalizeProjectID(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		":app_skin":  "app_skin",
		"app_skin":   "app_skin",
		" :libs:ui ": "libs:ui",
		"":           "",
	} {
		if got := NormalizeProjectID(in); got != want {
			t.Errorf("NormalizeProjectID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadServiceConfig(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "api-key")
	if err := os.WriteFile(keyFile, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatalf("Failed to write key file: %v", err)
	}
	t.Setenv("PORT", "8181")
	t.Setenv("API_KEY_FILE", keyFile)
	t.Setenv("STAGE_INTERVAL", "5s")
	t.Setenv("SHUTDOWN_DRAIN_WAIT", "2s")

	cfg := LoadServiceConfig()
	want := &ServiceConfig{
		Port:              "8181",
		MetricsPort:       "9090",
		APIKey:            "s3cret",
		Interval:          5 * time.Second,
		MaxBackoff:        5 * time.Minute,
		ShutdownDrainWait: 2 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadServiceConfig() mismatch (-want +got):\n%s", diff)
	}
}
