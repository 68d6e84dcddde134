// Package config provides layered settings for the assistant CLI.
// Settings are loaded from YAML files with the following priority
// (lowest to highest):
//  1. ~/.assistant/config.yaml (user level)
//  2. .assistant/config.yaml (project level)
//  3. Environment variables (ASSISTANT_*)
package config

// Settings holds everything the CLI needs to reach and drive the
// orchestrator. Zero values mean "not set"; MergeSettings and
// ApplyEnv fill the gaps in priority order.
type Settings struct {
	// OrchestratorURL is the base URL of the orchestrator API.
	OrchestratorURL string `yaml:"orchestrator_url,omitempty"`

	// Headers are added to every orchestrator request, typically for
	// auth against remote deployments.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Model selects the backing model for new chat turns. Empty lets
	// the orchestrator choose its default.
	Model string `yaml:"model,omitempty"`

	// ReasoningEffort is low, medium or high.
	ReasoningEffort string `yaml:"reasoning_effort,omitempty"`

	// AutoApprove skips the interactive approval prompt and lets the
	// orchestrator approve every tool call.
	AutoApprove *bool `yaml:"auto_approve,omitempty"`

	// KubeContext and KubeConfig scope the orchestrator's cluster
	// access for this client.
	KubeContext string `yaml:"kube_context,omitempty"`
	KubeConfig  string `yaml:"kube_config,omitempty"`

	// SessionLimit caps how many sessions the sessions command lists.
	SessionLimit int `yaml:"session_limit,omitempty"`
}

// NewSettings returns settings with the built-in defaults applied.
func NewSettings() *Settings {
	return &Settings{
		SessionLimit: 20,
	}
}

// AutoApproveEnabled reports the effective auto-approve flag.
func (s *Settings) AutoApproveEnabled() bool {
	return s.AutoApprove != nil && *s.AutoApprove
}
