// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

var (
	globalMu sync.Mutex

	// globalConfig caches the last successful Load so CLI handlers don't
	// re-parse the config file on every access.
	globalConfig *Config
	// configPath is the resolved path of the loaded config file, or ""
	// when running on defaults.
	configPath string

	// configFilePathOverride forces Load to a specific file (--config flag).
	configFilePathOverride string

	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string
)

// Load returns the process-wide configuration, loading it on first use.
// Subsequent calls return the cached value until an override resets it.
func Load() (*Config, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: configFilePathOverride,
	})
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	configPath = path
	return cfg, nil
}

// GetConfigPath returns the path of the config file the last Load resolved,
// or "" when no file was found and defaults apply.
func GetConfigPath() string {
	globalMu.Lock()
	defer globalMu.Unlock()
	return configPath
}

// SetConfigFilePathOverride sets a custom config file path (from the --config
// flag) and invalidates the cached configuration.
func SetConfigFilePathOverride(path string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configFilePathOverride = path
	globalConfig = nil
	configPath = ""
}

// Reset clears the cache and all overrides. Call from test cleanup to
// restore defaults.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
	configPath = ""
	configFilePathOverride = ""
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configDirOverride = dir
	globalConfig = nil
	configPath = ""
}
