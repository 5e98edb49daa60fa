package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = 8629
	DefaultHost           = "127.0.0.1"
	DefaultConfigFilename = "config.json"
	DefaultYAMLFilename   = "config.yaml"

	// DefaultUpstream is the fixed provider endpoint; the :generateContent /
	// :streamGenerateContent action is appended per request.
	DefaultUpstream = "https://cloudcode-pa.googleapis.com/v1internal"
)

// DefaultModelMappings resolves the shorthand names clients send to the
// canonical identifiers the upstream accepts. Entries from the config file
// are layered on top; anything unmapped passes through as-is.
var DefaultModelMappings = map[string]string{
	"gemini-3.1-pro":    "gemini-3.1-pro-preview",
	"gemini-3-pro":      "gemini-3-pro-preview",
	"gemini-3-flash":    "gemini-3-flash-preview",
	"claude-sonnet-4.5": "claude-sonnet-4-5",
	"claude-haiku-4.5":  "claude-haiku-4-5",
}

type Config struct {
	Host     string            `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int               `json:"port,omitempty" yaml:"port,omitempty"`
	Upstream string            `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Models   map[string]string `json:"models,omitempty" yaml:"models,omitempty"`
}

// Manager loads the config file once and hands out immutable snapshots.
type Manager struct {
	baseDir     string
	configValue atomic.Value
}

func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// Load reads config.yaml when present, otherwise config.json, applies
// defaults, and stores the result as the current snapshot. A missing file is
// not an error; the defaults alone make a working gateway.
func (m *Manager) Load() (*Config, error) {
	var cfg Config

	path := m.activePath()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if filepath.Ext(path) == ".yaml" {
			err = yaml.Unmarshal(data, &cfg)
		} else {
			err = json.Unmarshal(data, &cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	m.configValue.Store(&cfg)

	return &cfg, nil
}

func (m *Manager) Get() *Config {
	if v := m.configValue.Load(); v != nil {
		return v.(*Config)
	}

	cfg, err := m.Load()
	if err != nil {
		fallback := &Config{}
		applyDefaults(fallback)
		return fallback
	}
	return cfg
}

func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(m.jsonPath(), data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	stored := *cfg
	applyDefaults(&stored)
	m.configValue.Store(&stored)

	return nil
}

func (m *Manager) GetPath() string {
	if path := m.activePath(); path != "" {
		return path
	}
	return m.jsonPath()
}

func (m *Manager) Exists() bool {
	return m.activePath() != ""
}

func (m *Manager) jsonPath() string {
	return filepath.Join(m.baseDir, DefaultConfigFilename)
}

// activePath returns the config file that would be loaded, YAML taking
// precedence, or "" when neither exists.
func (m *Manager) activePath() string {
	for _, name := range []string{DefaultYAMLFilename, DefaultConfigFilename} {
		path := filepath.Join(m.baseDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Upstream == "" {
		cfg.Upstream = DefaultUpstream
	}

	merged := make(map[string]string, len(DefaultModelMappings)+len(cfg.Models))
	for shorthand, canonical := range DefaultModelMappings {
		merged[shorthand] = canonical
	}
	for shorthand, canonical := range cfg.Models {
		merged[shorthand] = canonical
	}
	cfg.Models = merged
}
