package lang

import (
	"os"
	"path/filepath"
	"testing"

	"skypeconnector/pkg/config"
)

func TestDefaultsToEnglish(t *testing.T) {
	m, err := New(config.LangConfig{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if m.Language() != "en" {
		t.Fatalf("language = %q, want %q", m.Language(), "en")
	}
	if got := m.Translate("yes"); got != "Yes" {
		t.Fatalf("Translate(yes) = %q, want %q", got, "Yes")
	}
	if got := m.Translate("ask_to_escalate"); got != "Do you want to talk to an agent?" {
		t.Fatalf("Translate(ask_to_escalate) = %q", got)
	}
}

func TestUnknownKeyTranslatesToItself(t *testing.T) {
	m, err := New(config.LangConfig{Language: "en"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := m.Translate("Maybe later"); got != "Maybe later" {
		t.Fatalf("Translate = %q, want key back", got)
	}
}

func TestBuiltinLanguageFallsBackToEnglish(t *testing.T) {
	m, err := New(config.LangConfig{Language: "ES"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := m.Translate("yes"); got != "Sí" {
		t.Fatalf("Translate(yes) = %q, want %q", got, "Sí")
	}

	m, err = New(config.LangConfig{Language: "fr"})
	if err != nil {
		t.Fatalf("New error for language without built-in file: %v", err)
	}
	if got := m.Translate("no"); got != "No" {
		t.Fatalf("Translate(no) = %q, want english fallback", got)
	}
}

func TestOverrideFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("yes: \"Yep\"\ncustom: \"Custom\"\n"), 0o600); err != nil {
		t.Fatalf("write translations: %v", err)
	}

	m, err := New(config.LangConfig{Language: "en", Path: dir})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if got := m.Translate("yes"); got != "Yep" {
		t.Fatalf("Translate(yes) = %q, want %q", got, "Yep")
	}
	if got := m.Translate("custom"); got != "Custom" {
		t.Fatalf("Translate(custom) = %q, want %q", got, "Custom")
	}
	if got := m.Translate("no"); got != "No" {
		t.Fatalf("Translate(no) = %q, want built-in value", got)
	}
}

func TestMissingOverrideFileFails(t *testing.T) {
	if _, err := New(config.LangConfig{Path: t.TempDir()}); err == nil {
		t.Fatal("expected error for missing override file")
	}
}

func TestNilManagerTranslatesToKey(t *testing.T) {
	var m *Manager
	if got := m.Translate("yes"); got != "yes" {
		t.Fatalf("Translate = %q, want %q", got, "yes")
	}
}
