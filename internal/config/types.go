// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultOutputDir is where generated code goes unless configured.
	DefaultOutputDir OutputDir = "appgraph"
	// DefaultOutputPackage is the package clause of generated files unless configured.
	DefaultOutputPackage PackageName = "appgraph"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidOutputDir is the sentinel error wrapped by InvalidOutputDirError.
	ErrInvalidOutputDir = errors.New("invalid output dir")
	// ErrInvalidSearchPath is the sentinel error wrapped by InvalidSearchPathError.
	ErrInvalidSearchPath = errors.New("invalid search path")
	// ErrInvalidOutputConfig is the sentinel error wrapped by InvalidOutputConfigError.
	ErrInvalidOutputConfig = errors.New("invalid output config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// PackageName is the package clause of generated Go files. It must be a
	// lower-case Go identifier.
	PackageName string

	// InvalidPackageNameError is returned when a PackageName is not a
	// lower-case Go identifier.
	InvalidPackageNameError struct {
		Value PackageName
	}

	// OutputDir is the directory generated files are written to.
	OutputDir string

	// InvalidOutputDirError is returned when an OutputDir is empty or
	// whitespace-only.
	InvalidOutputDirError struct {
		Value OutputDir
	}

	// SearchPath is a directory scanned for declaration files.
	SearchPath string

	// InvalidSearchPathError is returned when a SearchPath is empty or
	// whitespace-only.
	InvalidSearchPathError struct {
		Value SearchPath
	}

	// InvalidOutputConfigError collects field errors of an OutputConfig.
	InvalidOutputConfigError struct {
		FieldErrors []error
	}

	// InvalidUIConfigError collects field errors of a UIConfig.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError collects field errors of every sub-component of a
	// Config. It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// AppName is the default application name for scaffolding.
		AppName string `json:"app_name" toml:"app_name,omitempty" mapstructure:"app_name"`
		// BasePackage is the Go import path prefix of the application module.
		BasePackage string `json:"base_package" toml:"base_package,omitempty" mapstructure:"base_package"`
		// SearchPaths are scanned for declaration files. Relative paths are
		// resolved against the working directory.
		SearchPaths []SearchPath `json:"search_paths" toml:"search_paths" mapstructure:"search_paths"`
		// Output configures code generation.
		Output OutputConfig `json:"output" toml:"output" mapstructure:"output"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`
	}

	// OutputConfig configures where and how generated code is written.
	OutputConfig struct {
		Dir     OutputDir   `json:"dir" toml:"dir" mapstructure:"dir"`
		Package PackageName `json:"package" toml:"package" mapstructure:"package"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" toml:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		SearchPaths: []SearchPath{"."},
		Output: OutputConfig{
			Dir:     DefaultOutputDir,
			Package: DefaultOutputPackage,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid returns whether the Config has valid fields. It delegates to every
// SearchPath, Output and UI.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, p := range c.SearchPaths {
		if valid, fieldErrs := p.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Output.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// IsValid returns whether the OutputConfig has valid fields.
func (c OutputConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Dir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Package.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidOutputConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// IsValid returns whether the UIConfig has valid fields.
// It delegates to ColorScheme.IsValid(); bool fields need no validation.
func (c UIConfig) IsValid() (bool, []error) {
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		return false, []error{&InvalidUIConfigError{FieldErrors: fieldErrs}}
	}
	return true, nil
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// String returns the string representation of the PackageName.
func (p PackageName) String() string { return string(p) }

// IsValid returns whether the PackageName is a lower-case Go identifier.
func (p PackageName) IsValid() (bool, []error) {
	s := string(p)
	if !token.IsIdentifier(s) || token.IsKeyword(s) || strings.ToLower(s) != s {
		return false, []error{&InvalidPackageNameError{Value: p}}
	}
	return true, nil
}

// String returns the string representation of the OutputDir.
func (d OutputDir) String() string { return string(d) }

// IsValid returns whether the OutputDir is non-empty and not whitespace-only.
func (d OutputDir) IsValid() (bool, []error) {
	if strings.TrimSpace(string(d)) == "" {
		return false, []error{&InvalidOutputDirError{Value: d}}
	}
	return true, nil
}

// String returns the string representation of the SearchPath.
func (p SearchPath) String() string { return string(p) }

// IsValid returns whether the SearchPath is non-empty and not whitespace-only.
func (p SearchPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidSearchPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface for InvalidPackageNameError.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: must be a lower-case Go identifier", e.Value)
}

// Unwrap returns ErrInvalidPackageName for errors.Is() compatibility.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// Error implements the error interface for InvalidOutputDirError.
func (e *InvalidOutputDirError) Error() string {
	return fmt.Sprintf("invalid output dir %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidOutputDir for errors.Is() compatibility.
func (e *InvalidOutputDirError) Unwrap() error { return ErrInvalidOutputDir }

// Error implements the error interface for InvalidSearchPathError.
func (e *InvalidSearchPathError) Error() string {
	return fmt.Sprintf("invalid search path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidSearchPath for errors.Is() compatibility.
func (e *InvalidSearchPathError) Unwrap() error { return ErrInvalidSearchPath }

// Error implements the error interface for InvalidOutputConfigError.
func (e *InvalidOutputConfigError) Error() string {
	return fmt.Sprintf("invalid output config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidOutputConfig for errors.Is() compatibility.
func (e *InvalidOutputConfigError) Unwrap() error { return ErrInvalidOutputConfig }

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
