package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigPath       = "SKYPECONNECTOR_CONFIG"
	envSkypeAppID       = "SKYPE_APP_ID"
	envSkypeAppPassword = "SKYPE_APP_PASSWORD"
	envBackendAPIKey    = "BACKEND_API_KEY"
	envRedisAddr        = "REDIS_ADDR"
)

// ErrNotFound reports that no config file exists at any lookup location.
var ErrNotFound = errors.New("config.json not found")

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Digester DigesterConfig `json:"digester"`
	Skype    SkypeConfig    `json:"skype"`
	Backend  BackendConfig  `json:"backend"`
	Lang     LangConfig     `json:"lang"`
	Session  SessionConfig  `json:"session"`
	Gateway  GatewayConfig  `json:"gateway"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// DigesterConfig holds the rendering options read by the message digester.
//
// Empty values disable the feature they name.
type DigesterConfig struct {
	URLButtons  URLButtonsConfig `json:"url_buttons"`
	ButtonTitle string           `json:"button_title"`
}

// URLButtonsConfig names the answer attribute carrying link buttons and the
// fields inside each button definition.
type URLButtonsConfig struct {
	AttributeName  string `json:"attribute_name"`
	ButtonTitleVar string `json:"button_title_var"`
	ButtonURLVar   string `json:"button_url_var"`
}

// SkypeConfig configures Bot Framework authentication.
type SkypeConfig struct {
	AppID       string `json:"app_id"`
	AppPassword string `json:"app_password"`
	TokenURL    string `json:"token_url,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

// BackendConfig configures the conversational backend client.
type BackendConfig struct {
	BaseURL               string `json:"base_url"`
	APIKey                string `json:"api_key"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

// LangConfig selects the translation set.
type LangConfig struct {
	Language string `json:"language"`
	Path     string `json:"path,omitempty"`
}

// SessionConfig selects where per-conversation state lives.
type SessionConfig struct {
	Driver     string      `json:"driver"`
	TTLSeconds int         `json:"ttl_seconds"`
	Redis      RedisConfig `json:"redis"`
}

// RedisConfig configures the Redis session driver.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// GatewayConfig configures HTTP gateway bind settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFile(configPath)
}

// LoadFile reads one config file and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides injects secrets and endpoints from the environment on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	overrides := []struct {
		env    string
		target *string
	}{
		{envSkypeAppID, &cfg.Skype.AppID},
		{envSkypeAppPassword, &cfg.Skype.AppPassword},
		{envBackendAPIKey, &cfg.Backend.APIKey},
		{envRedisAddr, &cfg.Session.Redis.Addr},
	}
	for _, override := range overrides {
		if value := strings.TrimSpace(os.Getenv(override.env)); value != "" {
			*override.target = value
		}
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is SKYPECONNECTOR_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w (checked %s and %s)", ErrNotFound, candidates[0], candidates[1])
}
