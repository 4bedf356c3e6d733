package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadBridge loads the bridge configuration.
// Search order: customPath -> ~/.gdbridge/configs/bridge.yaml -> ./configs/bridge.yaml -> embedded default
func LoadBridge(customPath string) (BridgeConfig, error) {
	return load("bridge", customPath, DefaultBridgeConfig)
}

// LoadRunner loads the runner simulation configuration.
// Search order: customPath -> ~/.gdbridge/configs/runner.yaml -> ./configs/runner.yaml -> embedded default
func LoadRunner(customPath string) (RunnerConfig, error) {
	return load("runner", customPath, DefaultRunnerConfig)
}

// load resolves a named config. Files are decoded over the hardcoded
// defaults so a partial file only overrides the keys it sets.
func load[T any](name, customPath string, fallback func() T) (T, error) {
	cfg := fallback()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(ExpandHome(customPath))
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	candidates := []string{
		userConfigPath(name + ".yaml"),
		filepath.Join("configs", name+".yaml"),
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		attempt := fallback()
		if err := yaml.Unmarshal(data, &attempt); err == nil {
			return attempt, nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(GetDefaultYAML(name), &cfg); err != nil {
		return fallback(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gdbridge", "configs", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ApplyRunnerPreset modifies the config based on a difficulty preset.
func ApplyRunnerPreset(cfg *RunnerConfig, preset DifficultyPreset) {
	if preset == "" {
		return
	}
	if preset == DifficultyFixed {
		cfg.Difficulty.Enabled = false
	} else {
		cfg.Difficulty.Enabled = true
		cfg.Difficulty.InitialLevel = InitialLevelForPreset(preset)
	}

	// Adjust obstacle density based on difficulty
	switch preset {
	case DifficultyEasy:
		cfg.Level.SpikeChance = 0.45
		cfg.Level.MinSpacing += 40
	case DifficultyHard:
		cfg.Level.SpikeChance = 0.75
		cfg.Level.MaxSpacing -= 40
	}
}
