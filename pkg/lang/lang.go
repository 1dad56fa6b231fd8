// Package lang resolves localized UI strings from YAML translation files.
package lang

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"skypeconnector/pkg/config"
)

const defaultLanguage = "en"

//go:embed translations/*.yaml
var builtin embed.FS

// Manager is a read-only translation table, safe for concurrent use.
type Manager struct {
	language     string
	translations map[string]string
}

// New loads the built-in English strings, then the built-in strings for the
// configured language, then the optional override file <path>/<language>.yaml.
func New(cfg config.LangConfig) (*Manager, error) {
	language := strings.ToLower(strings.TrimSpace(cfg.Language))
	if language == "" {
		language = defaultLanguage
	}

	m := &Manager{language: language, translations: make(map[string]string)}

	if err := m.mergeBuiltin(defaultLanguage); err != nil {
		return nil, err
	}
	if language != defaultLanguage {
		if err := m.mergeBuiltin(language); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if dir := strings.TrimSpace(cfg.Path); dir != "" {
		path := filepath.Join(dir, language+".yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read translations %s: %w", path, err)
		}
		if err := m.merge(data); err != nil {
			return nil, fmt.Errorf("parse translations %s: %w", path, err)
		}
	}

	return m, nil
}

// Translate returns the localized string for key, or key itself when unknown.
func (m *Manager) Translate(key string) string {
	if m == nil {
		return key
	}
	if value, ok := m.translations[key]; ok {
		return value
	}
	return key
}

func (m *Manager) Language() string {
	return m.language
}

func (m *Manager) mergeBuiltin(language string) error {
	data, err := builtin.ReadFile("translations/" + language + ".yaml")
	if err != nil {
		return fmt.Errorf("read built-in translations %q: %w", language, err)
	}
	if err := m.merge(data); err != nil {
		return fmt.Errorf("parse built-in translations %q: %w", language, err)
	}
	return nil
}

func (m *Manager) merge(data []byte) error {
	var decoded map[string]string
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return err
	}
	for key, value := range decoded {
		m.translations[key] = value
	}
	return nil
}
