package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	logx "wabatch/pkg/logx"
)

// Manager loads the config file, overlays the environment and applies defaults.
type Manager struct {
	path    string
	envFile string

	log logx.Logger
}

func NewManager(path string) *Manager {
	return &Manager{path: path, envFile: ".env"}
}

func (m *Manager) SetLogger(log logx.Logger) { m.log = log }

// SetEnvFile changes the dotenv file consulted by Load ("" disables it).
func (m *Manager) SetEnvFile(path string) { m.envFile = path }

// Parse decodes the config file strictly. A missing file yields an empty Config so
// a deployment can run on environment variables alone.
func (m *Manager) Parse() (*Config, error) {
	b, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		if !m.log.IsZero() {
			m.log.Debug("config file not found, using env and defaults", logx.String("path", m.path))
		}
		return &Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return &Config{}, nil
	}
	jb, _, err := coerceToJSONBytes(m.path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

// Load parses the file, overlays env and fills defaults.
// It does not validate credentials; callers decide when that matters.
func (m *Manager) Load() (*Config, error) {
	cfg, err := m.Parse()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(m.envFile) != "" {
		if err := loadDotEnv(m.envFile); err != nil && !m.log.IsZero() {
			m.log.Warn("dotenv load failed", logx.String("path", m.envFile), logx.Err(err))
		}
	}
	ApplyEnv(cfg, os.LookupEnv)
	cfg.ApplyDefaults()
	return cfg, nil
}
