// Package config loads stager configuration from the workspace file and
// environment variables. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"artifactstager/internal/apperrors"
)

// Built-in defaults, matching the layout of a typical Android workspace.
const (
	DefaultProject    = "app_skin"
	DefaultConsumer   = "app"
	DefaultVariant    = "debug"
	DefaultKind       = "apk"
	DefaultExtension  = ".apk"
	DefaultStagingDir = "src/main/assets"
	DefaultFileName   = "skin.apk"
	DefaultMaxDepth   = 16
)

// StagerConfig holds everything one staging invocation needs.
type StagerConfig struct {
	Workspace  string
	ConfigFile string
	File       WorkspaceFile
	FileFound  bool

	Project    string // producer project id, without leading ':'
	Consumer   string // consumer project id; StagingDir is relative to it
	BuildRoot  string // explicit producer build root, bypasses project lookup
	Variant    string
	Kind       string
	Extension  string
	StagingDir string
	FileName   string
	TaskName   string   // name of the staging step itself
	Tasks      []string // originally requested task names
	Required   bool
	MaxDepth   int

	CallbackURL     string
	CallbackKey     string
	CallbackTimeout time.Duration
	MetricsTextfile string

	LogLevel  string
	LogFormat string
}

// LoadStagerConfig merges defaults, the workspace file and the environment.
func LoadStagerConfig() (*StagerConfig, error) {
	workspace := GetEnv("STAGER_WORKSPACE", "")
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: resolve working directory: %w", err)
		}
		workspace = wd
	}
	workspace = filepath.Clean(workspace)

	configFile := resolvePath(workspace, GetEnv("STAGER_CONFIG", DefaultWorkspaceFile))
	file, found, err := LoadWorkspaceFile(configFile, workspace)
	if err != nil {
		if errors.Is(err, apperrors.ErrFilesystem) {
			return nil, err
		}
		return nil, apperrors.Validation("config", err.Error())
	}

	cfg := &StagerConfig{
		Workspace:  workspace,
		ConfigFile: configFile,
		File:       file,
		FileFound:  found,
	}
	cfg.applyFile(file.Stage)
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *StagerConfig) applyFile(s StageSettings) {
	c.Project = s.Project
	c.Consumer = s.Consumer
	c.Variant = s.Variant
	c.Kind = s.Kind
	c.Extension = s.Extension
	c.StagingDir = s.StagingDir
	c.FileName = s.FileName
	c.TaskName = s.TaskName
	c.Required = s.Required
	c.MaxDepth = s.MaxDepth
}

func (c *StagerConfig) applyEnv() {
	c.Project = NormalizeProjectID(GetEnv("STAGER_PROJECT", c.Project))
	c.Consumer = NormalizeProjectID(GetEnv("STAGER_CONSUMER", c.Consumer))
	c.BuildRoot = GetEnv("STAGER_BUILD_ROOT", c.BuildRoot)
	c.Variant = GetEnv("STAGER_VARIANT", c.Variant)
	c.Kind = GetEnv("STAGER_KIND", c.Kind)
	c.Extension = normalizeExtension(GetEnv("STAGER_EXTENSION", c.Extension))
	c.StagingDir = GetEnv("STAGER_STAGING_DIR", c.StagingDir)
	c.FileName = GetEnv("STAGER_FILE_NAME", c.FileName)
	c.TaskName = GetEnv("STAGER_TASK_NAME", c.TaskName)
	c.Tasks = GetListEnv("STAGER_TASKS")
	c.Required = GetBoolEnv("STAGER_REQUIRED", c.Required)
	c.MaxDepth = GetIntEnv("STAGER_MAX_DEPTH", c.MaxDepth)

	c.CallbackURL = GetEnv("CALLBACK_URL", "")
	c.CallbackKey = GetSecretFile(GetEnv("CALLBACK_KEY_FILE", ""))
	c.CallbackTimeout = GetDurationEnv("CALLBACK_TIMEOUT", 10*time.Second)
	c.MetricsTextfile = GetEnv("METRICS_TEXTFILE", "")

	c.LogLevel = strings.ToLower(GetEnv("STAGER_LOG_LEVEL", "info"))
	c.LogFormat = strings.ToLower(GetEnv("STAGER_LOG_FORMAT", "json"))
}

func (c *StagerConfig) applyDefaults() {
	if c.Project == "" {
		c.Project = DefaultProject
	}
	if c.Consumer == "" {
		c.Consumer = DefaultConsumer
	}
	if c.Variant == "" {
		c.Variant = DefaultVariant
	}
	if c.Kind == "" {
		c.Kind = DefaultKind
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.StagingDir == "" {
		c.StagingDir = DefaultStagingDir
	}
	if c.FileName == "" {
		c.FileName = DefaultFileName
	}
	if c.TaskName == "" {
		c.TaskName = DefaultTaskName(c.Variant, c.Kind)
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.BuildRoot != "" {
		c.BuildRoot = resolvePath(c.Workspace, c.BuildRoot)
	}
}

// Validate checks the merged configuration.
func (c *StagerConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.Variant) == "":
		return apperrors.Validation("variant", "variant is required")
	case strings.TrimSpace(c.FileName) == "":
		return apperrors.Validation("file_name", "destination file name is required")
	case strings.ContainsAny(c.FileName, `/\`):
		return apperrors.Validation("file_name", "destination file name must not contain a path separator")
	case c.MaxDepth < 0:
		return apperrors.Validation("max_depth", "max depth must be >= 0")
	}
	switch c.LogFormat {
	case "", "json", "text":
	default:
		return apperrors.Validation("log_format", "invalid log format: must be 'text' or 'json'")
	}
	return nil
}

// ConsumerDir returns the consumer project's directory.
func (c *StagerConfig) ConsumerDir() string {
	if p, ok := c.File.Project(c.Consumer); ok {
		return p.Path
	}
	return filepath.Join(c.Workspace, filepath.FromSlash(strings.ReplaceAll(c.Consumer, ":", "/")))
}

// StagingPath returns the absolute staging directory.
func (c *StagerConfig) StagingPath() string {
	if filepath.IsAbs(c.StagingDir) {
		return filepath.Clean(c.StagingDir)
	}
	return filepath.Join(c.ConsumerDir(), c.StagingDir)
}

// DefaultTaskName derives the staging step name from the variant and kind,
// e.g. ("debug", "apk") -> "copySkinDebugApk".
func DefaultTaskName(variant, kind string) string {
	return "copySkin" + capitalize(variant) + capitalize(kind)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToTitle(r[0])
	return string(r)
}

// ServiceConfig holds configuration for the stager service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	Interval          time.Duration // time between staging runs
	MaxBackoff        time.Duration // cap on the retry delay after fatal errors
	ShutdownDrainWait time.Duration // time to wait for load balancers to drain (0 to skip)
	ShutdownTimeout   time.Duration
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		Interval:          GetDurationEnv("STAGE_INTERVAL", 30*time.Second),
		MaxBackoff:        GetDurationEnv("STAGE_MAX_BACKOFF", 5*time.Minute),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 0),
		ShutdownTimeout:   GetDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}
