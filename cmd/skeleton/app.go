// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/skeleton-dev/skeleton/internal/config"
	"github.com/skeleton-dev/skeleton/internal/discovery"
	"github.com/skeleton-dev/skeleton/internal/issue"
	"github.com/skeleton-dev/skeleton/pkg/graph"
)

// errDiscovery is returned when declaration files failed to load.
var errDiscovery = errors.New("declaration files failed to load")

type (
	// App wires CLI services and shared dependencies. All Cobra command
	// handlers receive an App reference.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger

		workDir   string
		configDir string

		// flags
		verbose    bool
		explain    bool
		configFile string

		cfg *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
		// WorkDir is the project root. Defaults to the process working directory.
		WorkDir string
		// ConfigDir overrides the user configuration directory.
		ConfigDir string
	}
)

// NewApp creates the CLI composition root.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		deps.WorkDir = wd
	}

	return &App{
		Config:    deps.Config,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		logger:    log.NewWithOptions(deps.Stderr, log.Options{Prefix: "skeleton", Level: log.WarnLevel}),
		workDir:   deps.WorkDir,
		configDir: deps.ConfigDir,
	}, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: a.configFile,
		ConfigDirPath:  a.configDir,
		WorkDir:        a.workDir,
	}
}

// loadConfig loads and caches the configuration for the current invocation.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	if a.verbose {
		a.logger.SetLevel(log.DebugLevel)
	}
	a.cfg = cfg
	return cfg, nil
}

// path resolves p against the project root.
func (a *App) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.workDir, p)
}

// loadGraph discovers the declaration files under paths (the configured
// search paths when empty) and builds the resolved graph.
func (a *App) loadGraph(ctx context.Context, paths []string) (*graph.ResolvedGraph, *discovery.Result, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []discovery.Option{
		discovery.WithBaseDir(a.workDir),
		discovery.WithLogger(a.logger),
	}
	if len(paths) > 0 {
		opts = append(opts, discovery.WithSearchPaths(paths...))
	}
	res, err := discovery.New(cfg, opts...).Discover(ctx)
	if err != nil {
		return nil, res, err
	}
	a.renderDiagnostics(res.Diagnostics)
	if discovery.HasErrors(res.Diagnostics) {
		return nil, res, errDiscovery
	}

	a.logger.Debug("building graph", "files", len(res.Files), "declarations", len(res.Set.Declarations))
	g, err := graph.Build(res.Set)
	if err != nil {
		return nil, res, err
	}
	return g, res, nil
}

// fail renders err on stderr and converts it into an ExitError. The error is
// silenced on cmd so it is not printed twice.
func (a *App) fail(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceErrors = true

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			a.renderError(exitErr.Err)
		}
		return err
	}
	a.renderError(err)
	if a.explain {
		a.renderExplanation(err)
	}
	return &ExitError{Code: ExitFailure, Err: err}
}

func (a *App) renderExplanation(err error) {
	iss := issue.ForError(err)
	if iss == nil {
		return
	}
	style := string(config.ColorSchemeAuto)
	if a.cfg != nil {
		style = string(a.cfg.UI.ColorScheme)
	}
	rendered, renderErr := iss.Render(style)
	if renderErr != nil {
		a.logger.Debug("render explanation", "error", renderErr)
		return
	}
	fmt.Fprint(a.stderr, rendered)
}
