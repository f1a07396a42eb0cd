// Package config loads and saves the app configuration from
// ~/.config/tasksheet/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "tasksheet"
	configFile = "config.yaml"
)

// Config holds the spreadsheet coordinates and sync policy.
type Config struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	TasksTab      string `yaml:"tasks_tab"`
	ArchiveTab    string `yaml:"archive_tab"`
	CategoryTab   string `yaml:"category_tab"`
	ProjectTab    string `yaml:"project_tab"`
	// ArchiveCompleted also moves a task to the archive tab when it is
	// marked completed.
	ArchiveCompleted bool `yaml:"archive_completed"`
	// RemoteTimeoutSeconds bounds each spreadsheet call.
	RemoteTimeoutSeconds int `yaml:"remote_timeout_seconds"`
}

// Default returns the configuration matching the original spreadsheet
// layout.
func Default() *Config {
	return &Config{
		TasksTab:             "tasks",
		ArchiveTab:           "archive",
		CategoryTab:          "category",
		ProjectTab:           "project",
		RemoteTimeoutSeconds: 30,
	}
}

// Path returns the config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName, configFile), nil
}

// Load reads the config file, returning defaults when it does not exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config file, creating the directory if needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return saveTo(path, cfg)
}

func saveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.TasksTab == "" {
		c.TasksTab = d.TasksTab
	}
	if c.ArchiveTab == "" {
		c.ArchiveTab = d.ArchiveTab
	}
	if c.CategoryTab == "" {
		c.CategoryTab = d.CategoryTab
	}
	if c.ProjectTab == "" {
		c.ProjectTab = d.ProjectTab
	}
	if c.RemoteTimeoutSeconds <= 0 {
		c.RemoteTimeoutSeconds = d.RemoteTimeoutSeconds
	}
}
