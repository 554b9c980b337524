// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sci-bots/droplet-planning-plugin/pkg/recipe"
)

const (
	// RuntimeNative runs scripts in the host system shell.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs scripts in the embedded POSIX interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a config RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidHubURI is the sentinel error wrapped by InvalidHubURIError.
	ErrInvalidHubURI = errors.New("invalid hub URI")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode specifies the execution runtime for recipe scripts.
	RuntimeMode string

	// InvalidConfigRuntimeModeError is returned when a config RuntimeMode value
	// is not recognized. It wraps ErrInvalidConfigRuntimeMode for errors.Is()
	// compatibility.
	InvalidConfigRuntimeModeError struct {
		Value RuntimeMode
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not
	// recognized. It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// HubURI is the WebSocket endpoint of the plugin's hub. A valid URI uses
	// the ws or wss scheme; the zero value ("") means "use the default".
	HubURI string

	// InvalidHubURIError is returned when a HubURI does not use a WebSocket
	// scheme. It wraps ErrInvalidHubURI for errors.Is() compatibility.
	InvalidHubURIError struct {
		Value HubURI
	}

	// UIConfig holds terminal presentation settings.
	UIConfig struct {
		// ColorScheme selects the terminal color scheme.
		ColorScheme ColorScheme `mapstructure:"color_scheme"`
		// Verbose enables verbose output.
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the tool's configuration, loaded from config.cue with
	// defaults for everything left unset.
	Config struct {
		// HubURI is where the routing commands reach the plugin endpoint.
		HubURI HubURI `mapstructure:"hub_uri"`
		// PluginName is the package name exported to recipes as PKG_NAME.
		PluginName string `mapstructure:"plugin_name"`
		// DefaultRuntime selects the runtime for build scripts and test
		// commands when no --runtime flag is given.
		DefaultRuntime RuntimeMode `mapstructure:"default_runtime"`
		// RecipePath overrides the recipe location; empty means
		// .conda-recipe/meta.yaml under the current directory.
		RecipePath string `mapstructure:"recipe_path"`
		// UI holds terminal presentation settings.
		UI UIConfig `mapstructure:"ui"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Error implements the error interface.
func (e *InvalidConfigRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (must be %q or %q)", e.Value, RuntimeNative, RuntimeVirtual)
}

// Unwrap returns ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
func (e *InvalidConfigRuntimeModeError) Unwrap() error { return ErrInvalidConfigRuntimeMode }

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (must be %q, %q, or %q)",
		e.Value, ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidHubURIError) Error() string {
	return fmt.Sprintf("invalid hub URI %q (must start with ws:// or wss://)", e.Value)
}

// Unwrap returns ErrInvalidHubURI for errors.Is() compatibility.
func (e *InvalidHubURIError) Unwrap() error { return ErrInvalidHubURI }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the RuntimeMode is recognized, and a list of
// validation errors if it is not.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidConfigRuntimeModeError{Value: m}}
	}
}

// IsValid returns whether the ColorScheme is recognized, and a list of
// validation errors if it is not.
func (s ColorScheme) IsValid() (bool, []error) {
	switch s {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: s}}
	}
}

// IsValid returns whether the HubURI uses a WebSocket scheme, and a list of
// validation errors if it does not. The zero value is valid.
func (u HubURI) IsValid() (bool, []error) {
	if u == "" || strings.HasPrefix(string(u), "ws://") || strings.HasPrefix(string(u), "wss://") {
		return true, nil
	}
	return false, []error{&InvalidHubURIError{Value: u}}
}

// String returns the string representation of the HubURI.
func (u HubURI) String() string { return string(u) }

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		HubURI:         "ws://127.0.0.1:9175/hub",
		PluginName:     "microdrop.droplet-planning-plugin",
		DefaultRuntime: RuntimeNative,
		RecipePath:     "",
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// Validate checks every field and collects the failures.
func (c *Config) Validate() error {
	var fieldErrors []error

	if valid, errs := c.HubURI.IsValid(); !valid {
		fieldErrors = append(fieldErrors, errs...)
	}
	if valid, errs := recipe.PackageName(c.PluginName).IsValid(); !valid {
		fieldErrors = append(fieldErrors, errs...)
	}
	if valid, errs := c.DefaultRuntime.IsValid(); !valid {
		fieldErrors = append(fieldErrors, errs...)
	}
	if valid, errs := c.UI.ColorScheme.IsValid(); !valid {
		fieldErrors = append(fieldErrors, errs...)
	}

	if len(fieldErrors) > 0 {
		return &InvalidConfigError{FieldErrors: fieldErrors}
	}
	return nil
}
