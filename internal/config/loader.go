package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/agentkube/assistant/internal/orchestrator"
)

// Loader handles loading and merging settings from multiple sources.
type Loader struct {
	// userDir is the user-level config directory (e.g., ~/.assistant)
	userDir string

	// projectDir is the project-level config directory (e.g., .assistant)
	projectDir string
}

// NewLoader creates a settings loader with the default directories:
// ~/.assistant for user level and .assistant for project level.
func NewLoader() *Loader {
	homeDir, _ := os.UserHomeDir()
	return &Loader{
		userDir:    filepath.Join(homeDir, ".assistant"),
		projectDir: ".assistant",
	}
}

// NewLoaderWithOptions creates a loader with custom directories.
func NewLoaderWithOptions(userDir, projectDir string) *Loader {
	return &Loader{
		userDir:    userDir,
		projectDir: projectDir,
	}
}

// Load loads and merges settings from all sources.
// Priority (lowest to highest):
//  1. ~/.assistant/config.yaml (user level)
//  2. .assistant/config.yaml (project level)
//  3. ASSISTANT_* environment variables
//
// Later sources override earlier ones. Missing files are skipped;
// unreadable YAML in an existing file is an error so typos do not
// silently fall back to defaults.
func (l *Loader) Load() (*Settings, error) {
	settings := NewSettings()
	settings.OrchestratorURL = orchestrator.DefaultBaseURL

	sources := []string{
		filepath.Join(l.userDir, "config.yaml"),
		filepath.Join(l.projectDir, "config.yaml"),
	}
	for _, src := range sources {
		s, err := l.LoadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		settings = MergeSettings(settings, s)
	}

	ApplyEnv(settings)
	return settings, nil
}

// LoadFile loads settings from a specific file.
func (l *Loader) LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// ApplyEnv overrides settings from ASSISTANT_* environment variables.
func ApplyEnv(s *Settings) {
	if v := os.Getenv("ASSISTANT_ORCHESTRATOR_URL"); v != "" {
		s.OrchestratorURL = v
	}
	if v := os.Getenv("ASSISTANT_MODEL"); v != "" {
		s.Model = v
	}
	if v := os.Getenv("ASSISTANT_REASONING_EFFORT"); v != "" {
		s.ReasoningEffort = v
	}
	if v := os.Getenv("ASSISTANT_AUTO_APPROVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AutoApprove = &b
		}
	}
	if v := os.Getenv("ASSISTANT_KUBE_CONTEXT"); v != "" {
		s.KubeContext = v
	}
	if v := os.Getenv("ASSISTANT_KUBECONFIG"); v != "" {
		s.KubeConfig = v
	}
}

// GetUserDir returns the user config directory path.
func (l *Loader) GetUserDir() string {
	return l.userDir
}

// EnsureUserDir creates the user config directory if it doesn't exist.
func (l *Loader) EnsureUserDir() error {
	return os.MkdirAll(l.userDir, 0755)
}

// SaveToUser writes settings to the user-level config file, merging
// with existing content.
func (l *Loader) SaveToUser(settings *Settings) error {
	if err := l.EnsureUserDir(); err != nil {
		return err
	}
	path := filepath.Join(l.userDir, "config.yaml")

	var existing *Settings
	if data, err := os.ReadFile(path); err == nil {
		existing = &Settings{}
		if err := yaml.Unmarshal(data, existing); err != nil {
			existing = nil
		}
	}

	toSave := settings
	if existing != nil {
		toSave = MergeSettings(existing, settings)
	}

	data, err := yaml.Marshal(toSave)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Load is a convenience function using the default loader.
func Load() (*Settings, error) {
	return NewLoader().Load()
}
