package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kirsle/configdir"
)

// GitHubConfig holds authentication configuration for GitHub.
type GitHubConfig struct {
	ClientID string `toml:"client_id"`
	Token    string `toml:"token"`
	Username string `toml:"username"`
}

// ProfileConfig holds the user's commit identity.
type ProfileConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// DefaultsConfig holds defaults applied to new repositories.
type DefaultsConfig struct {
	Private   bool   `toml:"private"`
	License   string `toml:"license"`
	Gitignore string `toml:"gitignore"`
	Editor    string `toml:"editor"`
}

// CloneConfig controls cloning a repository right after it is created.
type CloneConfig struct {
	Auto      bool   `toml:"auto"`
	Directory string `toml:"directory"`
}

// Config holds all repogen configuration.
type Config struct {
	GitHub   GitHubConfig   `toml:"github"`
	Profile  ProfileConfig  `toml:"profile"`
	Defaults DefaultsConfig `toml:"defaults"`
	Clone    CloneConfig    `toml:"clone"`
}

// LoadFrom reads configuration from the given TOML file path.
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - GITHUB_TOKEN       overrides github.token
//   - REPOGEN_CLIENT_ID  overrides github.client_id
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// DefaultConfigPath returns the default path for the repogen config file.
func DefaultConfigPath() string {
	return filepath.Join(configdir.LocalConfig("repogen"), "config.toml")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("REPOGEN_CLIENT_ID"); v != "" {
		cfg.GitHub.ClientID = v
	}
}

// Save writes cfg to the given TOML file path, creating parent directories as
// needed. Existing file contents are overwritten. Permissions on the written
// file are 0600 since it may contain a token.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}

// Clear resets the config file to an empty configuration. A missing file is
// not an error.
func Clear(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return Save(path, Config{})
}
