// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sci-bots/droplet-planning-plugin/internal/testutil"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigDirPath: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty (no file)", path)
	}

	defaults := DefaultConfig()
	if cfg.HubURI != defaults.HubURI {
		t.Errorf("HubURI = %q, want %q", cfg.HubURI, defaults.HubURI)
	}
	if cfg.PluginName != "microdrop.droplet-planning-plugin" {
		t.Errorf("PluginName = %q", cfg.PluginName)
	}
	if cfg.DefaultRuntime != RuntimeNative {
		t.Errorf("DefaultRuntime = %q, want native", cfg.DefaultRuntime)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "config.cue", `
hub_uri: "ws://127.0.0.1:7000/hub"
default_runtime: "virtual"

ui: {
	verbose: true
}
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path == "" {
		t.Error("resolved path is empty, want the config file")
	}

	if cfg.HubURI != "ws://127.0.0.1:7000/hub" {
		t.Errorf("HubURI = %q", cfg.HubURI)
	}
	if cfg.DefaultRuntime != RuntimeVirtual {
		t.Errorf("DefaultRuntime = %q, want virtual", cfg.DefaultRuntime)
	}
	if !cfg.UI.Verbose {
		t.Error("Verbose = false, want true from file")
	}
	// Unset fields keep their defaults.
	if cfg.PluginName != DefaultConfig().PluginName {
		t.Errorf("PluginName = %q, want default", cfg.PluginName)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "custom.cue", `plugin_name: "microdrop.test-plugin"`)

	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.PluginName != "microdrop.test-plugin" {
		t.Errorf("PluginName = %q", cfg.PluginName)
	}
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	_, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: "/nonexistent/config.cue",
	})
	if err == nil {
		t.Fatal("loadWithOptions() with missing explicit file succeeded")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "config.cue", `default_runtime: "container"`)

	if _, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
		t.Fatal("loadWithOptions() accepted a runtime outside the schema")
	}
}

func TestLoadRejectsInvalidHubURI(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "config.cue", `hub_uri: "http://127.0.0.1:7000"`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if !errors.Is(err, ErrInvalidHubURI) {
		t.Fatalf("error = %v, want ErrInvalidHubURI", err)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := loadWithOptions(ctx, LoadOptions{}); err == nil {
		t.Fatal("loadWithOptions() with canceled context succeeded")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HubURI = "wss://hub.example:9175/hub"
	cfg.RecipePath = "recipes/meta.yaml"
	cfg.UI.Verbose = true

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "config.cue", GenerateCUE(cfg))

	loaded, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() of generated CUE error = %v", err)
	}
	if loaded.HubURI != cfg.HubURI || loaded.RecipePath != cfg.RecipePath || !loaded.UI.Verbose {
		t.Errorf("round-tripped config = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	// Not parallel: mutates the process environment.
	t.Setenv("DPP_DEFAULT_RUNTIME", "virtual")

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if cfg.DefaultRuntime != RuntimeVirtual {
		t.Errorf("DefaultRuntime = %q, want virtual from DPP_DEFAULT_RUNTIME", cfg.DefaultRuntime)
	}
}

func TestGlobalLoadCaches(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	first, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if first != second {
		t.Error("Load() did not return the cached config")
	}
}

func TestSetConfigFilePathOverrideClearsCache(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride(t.TempDir())

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	path := testutil.WriteFile(t, t.TempDir(), "custom.cue", `plugin_name: "microdrop.alt-plugin"`)
	SetConfigFilePathOverride(path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() after override error = %v", err)
	}
	if cfg.PluginName != "microdrop.alt-plugin" {
		t.Errorf("PluginName = %q, want the override file's value", cfg.PluginName)
	}
	if got := GetConfigPath(); got != path {
		t.Errorf("GetConfigPath() = %q, want %q", got, path)
	}
}

func TestProviderLoad(t *testing.T) {
	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultRuntime != RuntimeNative {
		t.Errorf("DefaultRuntime = %q", cfg.DefaultRuntime)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/tmp/dpp-test-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != "/tmp/dpp-test-config" {
		t.Errorf("ConfigDir() = %q, want override", dir)
	}
}
