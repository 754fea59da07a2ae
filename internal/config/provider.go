// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects where configuration is read from. The zero value
	// reads the global file from ConfigDir and the project file from ".".
	LoadOptions struct {
		// ConfigFilePath, when set, is the only file read.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir for the global file.
		ConfigDirPath string
		// WorkDir holds the project file (.skeleton.cue or .skeleton.toml).
		WorkDir string
	}

	// Provider is how commands obtain configuration. Tests substitute their
	// own implementation.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
		// Sources lists the files Load merges, lowest precedence first.
		Sources(ctx context.Context, opts LoadOptions) ([]string, error)
	}

	fileProvider struct{}
)

// NewProvider returns the Provider backed by CUE and TOML files.
func NewProvider() Provider {
	return fileProvider{}
}

func (fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}

func (fileProvider) Sources(ctx context.Context, opts LoadOptions) ([]string, error) {
	_, sources, err := loadWithOptions(ctx, opts)
	return sources, err
}
