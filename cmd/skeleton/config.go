// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/skeleton-dev/skeleton/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage skeleton configuration",
		Long: `Manage skeleton configuration.

Configuration is merged from, lowest precedence first:
  - built-in defaults
  - the global file ($XDG_CONFIG_HOME/skeleton/config.cue or config.toml)
  - the project file (.skeleton.cue or .skeleton.toml in the working directory)
  - SKELETON_* environment variables (e.g. SKELETON_OUTPUT_DIR)

--config loads a single file instead of the global and project files.`,
	}

	cmd.AddCommand(
		newConfigShowCommand(app),
		newConfigPathCommand(app),
		newConfigDumpCommand(app),
		newConfigInitCommand(app),
	)
	return cmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render("Effective configuration"))
			row := func(key string, value any) {
				fmt.Fprintf(out, "  %-18s %v\n", SubtitleStyle.Render(key), value)
			}
			row("app_name", cfg.AppName)
			row("base_package", cfg.BasePackage)
			row("search_paths", cfg.SearchPaths)
			row("output.dir", cfg.Output.Dir)
			row("output.package", cfg.Output.Package)
			row("ui.color_scheme", cfg.UI.ColorScheme)
			row("ui.verbose", cfg.UI.Verbose)
			return nil
		},
	}
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			global, err := config.GlobalConfigPath(app.configDir)
			if err != nil {
				return app.fail(cmd, err)
			}
			sources, err := app.Config.Sources(ctx, app.loadOptions())
			if err != nil {
				return app.fail(cmd, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "global:  %s\n", global)
			fmt.Fprintf(out, "project: %s\n", config.LocalConfigPath(app.workDir))
			if len(sources) == 0 {
				fmt.Fprintln(out, SubtitleStyle.Render("loaded:  (defaults only)"))
				return nil
			}
			for _, s := range sources {
				fmt.Fprintf(out, "loaded:  %s\n", s)
			}
			return nil
		},
	}
}

func newConfigDumpCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as cue, toml or json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, config.ConfigFileExt, config.TOMLFileExt, formatJSON); err != nil {
				return app.fail(cmd, &ExitError{Code: ExitUsage, Err: err})
			}
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, err)
			}
			out := cmd.OutOrStdout()
			switch format {
			case config.TOMLFileExt:
				data, err := config.GenerateTOML(cfg)
				if err != nil {
					return app.fail(cmd, err)
				}
				_, err = out.Write(data)
				return err
			case formatJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			default:
				_, err := fmt.Fprint(out, config.GenerateCUE(cfg))
				return err
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", config.ConfigFileExt, "output format: cue, toml or json")
	return cmd
}

func newConfigInitCommand(app *App) *cobra.Command {
	var (
		global      bool
		format      string
		force       bool
		appName     string
		basePackage string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Long: `Write a configuration file with default values.

By default the project file .skeleton.cue is written in the working
directory. --global writes the user-wide file instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, config.ConfigFileExt, config.TOMLFileExt); err != nil {
				return app.fail(cmd, &ExitError{Code: ExitUsage, Err: err})
			}

			path := config.LocalConfigPath(app.workDir)
			if global {
				p, err := config.GlobalConfigPath(app.configDir)
				if err != nil {
					return app.fail(cmd, err)
				}
				path = p
			}
			path = path[:len(path)-len(filepath.Ext(path))] + "." + format

			cfg := config.DefaultConfig()
			cfg.AppName = appName
			cfg.BasePackage = basePackage
			if err := config.Save(path, cfg, force); err != nil {
				return app.fail(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "write the global config file")
	cmd.Flags().StringVarP(&format, "format", "f", config.ConfigFileExt, "file format: cue or toml")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&appName, "app-name", "", "application name")
	cmd.Flags().StringVar(&basePackage, "base-package", "", "Go import path prefix of the application")
	return cmd
}
