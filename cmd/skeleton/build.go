// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skeleton-dev/skeleton/pkg/codegen"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

func newBuildCommand(app *App) *cobra.Command {
	var (
		outDir string
		pkg    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Generate containers and the route table",
		Long: `Validate the declaration graph and generate one container constructor per
node plus a route table. Paths default to the configured search paths.

Generated files start with a "Code generated" header. Stale generated files
in the output directory are removed; hand-written files are never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.runBuild(cmd, args, outDir, pkg, dryRun))
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config: output.dir)")
	cmd.Flags().StringVar(&pkg, "package", "", "package name of generated files (default from config: output.package)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the files that would be generated without writing them")

	return cmd
}

func (a *App) runBuild(cmd *cobra.Command, args []string, outDir, pkg string, dryRun bool) error {
	ctx := cmd.Context()
	g, _, err := a.loadGraph(ctx, args)
	if err != nil {
		return err
	}

	if outDir == "" {
		outDir = string(a.cfg.Output.Dir)
	}
	if pkg == "" {
		pkg = string(a.cfg.Output.Package)
	}

	artifacts, err := codegen.Generate(g, codegen.Options{Package: pkg})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		for _, name := range artifacts.Names() {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	dir := a.path(outDir)
	a.logger.Debug("writing generated code", "dir", dir, "package", pkg)
	res, err := artifacts.WriteDir(dir)
	if err != nil {
		return err
	}
	if a.verbose {
		for _, name := range res.Written {
			fmt.Fprintf(out, "  %s %s\n", SuccessStyle.Render("write"), name)
		}
		for _, name := range res.Removed {
			fmt.Fprintf(out, "  %s %s\n", WarningStyle.Render("remove"), name)
		}
	}
	fmt.Fprintf(out, "%s generated %s: %d written, %d unchanged, %d removed\n",
		SuccessStyle.Render("✓"), dir, len(res.Written), len(res.Unchanged), len(res.Removed))
	return nil
}

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Validate the declaration graph",
		Long: `Load every declaration file, collect the nodes, check the feature hierarchy,
resolve each required capability to a single in-scope provider and reject
dependency cycles. Nothing is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.runCheck(cmd, args))
		},
	}
}

func (a *App) runCheck(cmd *cobra.Command, args []string) error {
	g, res, err := a.loadGraph(cmd.Context(), args)
	if err != nil {
		return err
	}

	counts := make(map[decl.Kind]int)
	for _, n := range g.Nodes() {
		counts[n.Kind]++
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s graph is valid\n", SuccessStyle.Render("✓"))
	fmt.Fprintf(out, "  %d %s, %d %s, %d %s, %d %s\n",
		counts[decl.KindPlatform], plural(counts[decl.KindPlatform], "platform", "platforms"),
		counts[decl.KindLibrary], plural(counts[decl.KindLibrary], "library", "libraries"),
		counts[decl.KindFeature], plural(counts[decl.KindFeature], "feature", "features"),
		counts[decl.KindSubfeature], plural(counts[decl.KindSubfeature], "subfeature", "subfeatures"))
	fmt.Fprintf(out, "  %d %s, %d %s from %d %s\n",
		len(g.Edges()), plural(len(g.Edges()), "dependency", "dependencies"),
		len(g.Routes()), plural(len(g.Routes()), "route", "routes"),
		len(res.Files), plural(len(res.Files), "file", "files"))
	if app := g.App(); app != nil {
		fmt.Fprintf(out, "  app %s starts at %s\n", CmdStyle.Render(app.Name), CmdStyle.Render(string(app.Start)))
	}
	return nil
}
