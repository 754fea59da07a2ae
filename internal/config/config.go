// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/skeleton-dev/skeleton/internal/issue"
	"github.com/skeleton-dev/skeleton/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "skeleton"
	// ConfigFileName is the name of the global config file (without extension).
	ConfigFileName = "config"
	// LocalConfigFileName is the name of the project config file (without extension).
	LocalConfigFileName = ".skeleton"
	// ConfigFileExt is the preferred config file extension.
	ConfigFileExt = "cue"
	// TOMLFileExt is the alternative config file extension.
	TOMLFileExt = "toml"

	// EnvPrefix prefixes environment overrides, e.g. SKELETON_OUTPUT_DIR.
	EnvPrefix = "SKELETON"
	// ConfigDirEnv replaces the platform config directory when set.
	ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"
)

// ErrUnsupportedFormat is returned for config files that are neither CUE nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

//go:embed config_schema.cue
var configSchema []byte

var configSchemaDef = cueutil.MustCompileSchema(configSchema, "#Config")

// ConfigDir returns $SKELETON_CONFIG_DIR if set, else the platform config
// directory: %APPDATA% on Windows, ~/Library/Application Support on macOS and
// $XDG_CONFIG_HOME (default ~/.config) elsewhere, joined with AppName.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// GlobalConfigPath returns the path a new global config file is written to.
func GlobalConfigPath(configDirPath string) (string, error) {
	dir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// LocalConfigPath returns the path a new project config file is written to.
func LocalConfigPath(workDir string) string {
	return filepath.Join(workDir, LocalConfigFileName+"."+ConfigFileExt)
}

// loadWithOptions performs option-driven config loading. It returns the
// merged configuration and the files it was read from, lowest precedence
// first.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, []string, error) {
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var sources []string

	// A file given via --config is used exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, nil, issue.New("load configuration").
				On(opts.ConfigFilePath).
				Suggest("Verify the file path is correct",
					"Use 'skeleton config init' to create a configuration file").
				Explain(issue.ConfigLoadFailedId).
				Wrap(fs.ErrNotExist)
		}
		sources = append(sources, opts.ConfigFilePath)
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, nil, err
		}
		if path := findConfigFile(cfgDir, ConfigFileName); path != "" {
			sources = append(sources, path)
		}
		workDir := opts.WorkDir
		if workDir == "" {
			workDir = "."
		}
		if path := findConfigFile(workDir, LocalConfigFileName); path != "" {
			sources = append(sources, path)
		}
	}

	for _, path := range sources {
		if err := loadFileIntoViper(v, path); err != nil {
			return nil, nil, issue.New("load configuration").
				On(path).
				Suggest("Check that the file contains valid CUE or TOML syntax",
					"Verify the configuration values match the expected schema",
					"Run 'skeleton config show' to see the effective configuration").
				Explain(issue.ConfigLoadFailedId).
				Wrap(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the schema, so re-check the typed values.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, nil, issue.New("validate configuration").
			Suggest("Check SKELETON_* environment variables for invalid values").
			Explain(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...))
	}

	return &cfg, sources, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("app_name", defaults.AppName)
	v.SetDefault("base_package", defaults.BasePackage)
	v.SetDefault("search_paths", defaults.SearchPaths)
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.package", defaults.Output.Package)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// findConfigFile returns dir/base.cue or dir/base.toml, whichever exists
// first, or "".
func findConfigFile(dir, base string) string {
	for _, ext := range []string{ConfigFileExt, TOMLFileExt} {
		path := filepath.Join(dir, base+"."+ext)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadFileIntoViper decodes a CUE or TOML file, validates it against the
// #Config schema, and merges its contents into Viper. TOML input goes through
// the same schema after decoding.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	opts := []cueutil.Option{cueutil.WithFilename(path), cueutil.WithConcrete(false)}
	var configMap map[string]any
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case ConfigFileExt:
		err = configSchemaDef.Decode(data, &configMap, opts...)
	case TOMLFileExt:
		if int64(len(data)) > cueutil.DefaultMaxFileSize {
			return fmt.Errorf("%s: %w", path, cueutil.ErrTooLarge)
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		err = configSchemaDef.DecodeValue(normalizeKeys(raw), &configMap, opts...)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// normalizeKeys rewrites kebab-case TOML keys (base-package) to the
// snake_case form the schema uses.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		if sub, ok := val.(map[string]any); ok {
			val = normalizeKeys(sub)
		}
		out[strings.ReplaceAll(k, "-", "_")] = val
	}
	return out
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// Save writes cfg to path in the format its extension selects, creating
// parent directories as needed. An existing file is only replaced when force
// is set.
func Save(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%s already exists (use --force to overwrite): %w", path, os.ErrExist)
	}

	var content []byte
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case ConfigFileExt:
		content = []byte(GenerateCUE(cfg))
	case TOMLFileExt:
		var err error
		if content, err = GenerateTOML(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// skeleton configuration file\n\n")

	if cfg.AppName != "" {
		fmt.Fprintf(&sb, "app_name: %q\n", cfg.AppName)
	}
	if cfg.BasePackage != "" {
		fmt.Fprintf(&sb, "base_package: %q\n", cfg.BasePackage)
	}

	if len(cfg.SearchPaths) > 0 {
		sb.WriteString("search_paths: [")
		for i, p := range cfg.SearchPaths {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%q", p)
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\noutput: {\n")
	fmt.Fprintf(&sb, "\tdir:     %q\n", cfg.Output.Dir)
	fmt.Fprintf(&sb, "\tpackage: %q\n", cfg.Output.Package)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

// GenerateTOML generates a TOML representation of the configuration.
func GenerateTOML(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config as TOML: %w", err)
	}
	return out, nil
}
