// Package config loads the user's configuration file. A project-level
// .tarefas/config.yaml takes precedence over the global ~/.tarefas one.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the few knobs the application has.
type Config struct {
	// StatePath is where the task list JSON lives.
	StatePath string `yaml:"state_path"`
	// BaseDir is the root under which version folders are created.
	BaseDir string `yaml:"base_dir"`
}

// Default returns the configuration used when no file exists: everything
// relative to the current working directory, like the original tool.
func Default() Config {
	return Config{
		StatePath: "tarefas.json",
		BaseDir:   ".",
	}
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tarefas", "config.yaml"), nil
}

func projectConfigPath() string {
	return filepath.Join(".tarefas", "config.yaml")
}

// Load reads the config, checking the project file first, then the global
// one. Missing files fall back to defaults; unset fields keep their default.
func Load() (Config, error) {
	if cfg, ok, err := loadFile(projectConfigPath()); err != nil || ok {
		return cfg, err
	}

	globalPath, err := globalConfigPath()
	if err != nil {
		return Default(), nil
	}
	if cfg, ok, err := loadFile(globalPath); err != nil || ok {
		return cfg, err
	}
	return Default(), nil
}

// LoadPath reads a specific config file; the file must exist.
func LoadPath(path string) (Config, error) {
	cfg, ok, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, os.ErrNotExist
	}
	return cfg, nil
}

func loadFile(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), false, nil
		}
		return Config{}, false, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, false, err
	}
	if cfg.StatePath == "" {
		cfg.StatePath = Default().StatePath
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = Default().BaseDir
	}
	return cfg, true, nil
}

// Save writes the config to the global location, creating ~/.tarefas.
func Save(cfg Config) error {
	path, err := globalConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
