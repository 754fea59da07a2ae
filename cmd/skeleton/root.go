// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "skeleton",
		Short: "Compile feature declarations into scoped containers and a route table",
		Long: TitleStyle.Render("skeleton") + SubtitleStyle.Render(" - modular application graph compiler") + `

skeleton reads platform, library, feature and subfeature declarations from
skeleton.cue files, checks that every required capability resolves to exactly
one provider in scope, and generates per-node container constructors plus a
route table for the runtime router.

` + SubtitleStyle.Render("Examples:") + `
  skeleton new feature search       Scaffold a feature with a start screen
  skeleton check                    Validate the declaration graph
  skeleton build                    Generate containers and the route table
  skeleton graph --format dot       Print the dependency graph for Graphviz
  skeleton routes                   List the route table`,
		SilenceUsage: true,
	}
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&app.explain, "explain", false, "explain failures with a detailed guide")
	root.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $HOME/.config/skeleton/config.cue)")

	root.AddCommand(
		newBuildCommand(app),
		newCheckCommand(app),
		newGraphCommand(app),
		newRoutesCommand(app),
		newNewCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(ExitFailure)
	}

	// fang overrides rootCmd.Version, so pass it via WithVersion.
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}
