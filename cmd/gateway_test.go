package cmd

import (
	"testing"

	"skypeconnector/pkg/config"
	"skypeconnector/pkg/session"
)

func completeConfig() *config.Config {
	return &config.Config{
		Skype:   config.SkypeConfig{AppID: "app", AppPassword: "secret"},
		Backend: config.BackendConfig{BaseURL: "http://127.0.0.1:9000"},
	}
}

func TestBuildDependenciesRequiresBackend(t *testing.T) {
	t.Parallel()

	cfg := completeConfig()
	cfg.Backend.BaseURL = ""
	if _, err := buildDependencies(cfg, nil); err == nil {
		t.Fatal("expected error without backend base_url")
	}
}

func TestBuildDependenciesRequiresSkypeCredentials(t *testing.T) {
	t.Parallel()

	cfg := completeConfig()
	cfg.Skype.AppPassword = ""
	if _, err := buildDependencies(cfg, nil); err == nil {
		t.Fatal("expected error without skype app_password")
	}
}

func TestBuildDependenciesRejectsUnknownSessionDriver(t *testing.T) {
	t.Parallel()

	cfg := completeConfig()
	cfg.Session.Driver = "etcd"
	if _, err := buildDependencies(cfg, nil); err == nil {
		t.Fatal("expected error for unsupported session driver")
	}
}

func TestBuildDependencies(t *testing.T) {
	t.Parallel()

	deps, err := buildDependencies(completeConfig(), nil)
	if err != nil {
		t.Fatalf("buildDependencies error: %v", err)
	}
	defer deps.Sessions.Close()

	if deps.Digester == nil || deps.Backend == nil || deps.Channel == nil || deps.Lang == nil {
		t.Fatalf("incomplete dependencies: %+v", deps)
	}
	if got := deps.Lang.Translate("yes"); got != "Yes" {
		t.Fatalf("Translate(yes) = %q, want %q", got, "Yes")
	}
}

func TestSessionDriverName(t *testing.T) {
	t.Parallel()

	if got := sessionDriverName(config.SessionConfig{}); got != session.DriverMemory {
		t.Fatalf("sessionDriverName = %q, want %q", got, session.DriverMemory)
	}
	if got := sessionDriverName(config.SessionConfig{Driver: "redis"}); got != "redis" {
		t.Fatalf("sessionDriverName = %q, want redis", got)
	}
}
