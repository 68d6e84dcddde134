package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMergesUserAndProject(t *testing.T) {
	userDir := filepath.Join(t.TempDir(), ".assistant")
	projectDir := filepath.Join(t.TempDir(), ".assistant")

	writeConfig(t, userDir, "model: gpt-large\nsession_limit: 50\nheaders:\n  X-Team: infra\n")
	writeConfig(t, projectDir, "model: gpt-small\nkube_context: staging\nheaders:\n  X-Env: staging\n")

	settings, err := NewLoaderWithOptions(userDir, projectDir).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if settings.Model != "gpt-small" {
		t.Errorf("project model should win, got %q", settings.Model)
	}
	if settings.SessionLimit != 50 {
		t.Errorf("session_limit = %d", settings.SessionLimit)
	}
	if settings.KubeContext != "staging" {
		t.Errorf("kube_context = %q", settings.KubeContext)
	}
	if settings.Headers["X-Team"] != "infra" || settings.Headers["X-Env"] != "staging" {
		t.Errorf("headers not merged: %v", settings.Headers)
	}
	if settings.OrchestratorURL == "" {
		t.Error("orchestrator URL default missing")
	}
}

func TestLoadSkipsMissingFiles(t *testing.T) {
	settings, err := NewLoaderWithOptions(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "nope")).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.SessionLimit != 20 {
		t.Errorf("default session_limit = %d", settings.SessionLimit)
	}
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	userDir := filepath.Join(t.TempDir(), ".assistant")
	writeConfig(t, userDir, "model: [unclosed\n")

	_, err := NewLoaderWithOptions(userDir, filepath.Join(t.TempDir(), "nope")).Load()
	if err == nil {
		t.Fatal("expected error for broken YAML")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_ORCHESTRATOR_URL", "http://10.0.0.5:4689")
	t.Setenv("ASSISTANT_MODEL", "env-model")
	t.Setenv("ASSISTANT_AUTO_APPROVE", "true")

	s := NewSettings()
	s.Model = "file-model"
	ApplyEnv(s)

	if s.OrchestratorURL != "http://10.0.0.5:4689" {
		t.Errorf("url = %q", s.OrchestratorURL)
	}
	if s.Model != "env-model" {
		t.Errorf("model = %q", s.Model)
	}
	if !s.AutoApproveEnabled() {
		t.Error("auto_approve not picked up")
	}
}

func TestAutoApproveMerge(t *testing.T) {
	on := true
	base := NewSettings()
	base.AutoApprove = &on

	merged := MergeSettings(base, &Settings{})
	if !merged.AutoApproveEnabled() {
		t.Error("base auto_approve lost in merge")
	}

	off := false
	merged = MergeSettings(base, &Settings{AutoApprove: &off})
	if merged.AutoApproveEnabled() {
		t.Error("overlay auto_approve=false should win")
	}
}
