// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skeleton-dev/skeleton/internal/scaffold"
)

func newNewCommand(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold features, subfeatures and libraries",
		Long: `Scaffold declaration files and Go stubs for new nodes.

Features are written under feature/<name>/ together with their start
subfeature. Libraries are written under library/<name>/. Existing files are
never overwritten unless --force is given.

When app_name is configured, the first feature also gets the app root
skeleton.cue starting at it. When base_package is configured, app/modules.go
is regenerated to bind every feature and library.`,
	}
	cmd.PersistentFlags().BoolVar(&force, "force", false, "overwrite existing files")

	var start string
	featureCmd := &cobra.Command{
		Use:   "feature <name>",
		Short: "Scaffold a feature with its start subfeature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.scaffolder(cmd, force)
			if err != nil {
				return app.fail(cmd, err)
			}
			files, err := s.Feature(args[0], start)
			return app.fail(cmd, app.reportScaffold(cmd, files, err))
		},
	}
	featureCmd.Flags().StringVar(&start, "start", scaffold.DefaultStartScreen, "name of the start subfeature")

	subfeatureCmd := &cobra.Command{
		Use:   "subfeature <feature> <name>",
		Short: "Add a subfeature to an existing feature",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.scaffolder(cmd, force)
			if err != nil {
				return app.fail(cmd, err)
			}
			files, err := s.Subfeature(args[0], args[1])
			return app.fail(cmd, app.reportScaffold(cmd, files, err))
		},
	}

	libraryCmd := &cobra.Command{
		Use:   "library <name>",
		Short: "Scaffold a library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.scaffolder(cmd, force)
			if err != nil {
				return app.fail(cmd, err)
			}
			files, err := s.Library(args[0])
			return app.fail(cmd, app.reportScaffold(cmd, files, err))
		},
	}

	cmd.AddCommand(featureCmd, subfeatureCmd, libraryCmd)
	return cmd
}

// scaffolder builds a Scaffolder from the loaded configuration.
func (a *App) scaffolder(cmd *cobra.Command, force bool) (*scaffold.Scaffolder, error) {
	cfg, err := a.loadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}
	return scaffold.New(a.workDir, scaffold.Options{
		Force:       force,
		AppName:     cfg.AppName,
		BasePackage: cfg.BasePackage,
	}), nil
}

func (a *App) reportScaffold(cmd *cobra.Command, files []scaffold.File, err error) error {
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range files {
		fmt.Fprintf(out, "  %s %s\n", SuccessStyle.Render("create"), f.Path)
	}
	fmt.Fprintf(out, "%s run %s to validate the graph\n", SuccessStyle.Render("✓"), CmdStyle.Render("skeleton check"))
	return nil
}
