// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skeleton-dev/skeleton/pkg/decl"
	"github.com/skeleton-dev/skeleton/pkg/graph"
)

const (
	formatText = "text"
	formatYAML = "yaml"
	formatJSON = "json"
	formatDOT  = "dot"
)

// errUnsupportedFormat is returned for an unknown --format value.
var errUnsupportedFormat = errors.New("unsupported output format")

func newGraphCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph [paths...]",
		Short: "Print the resolved dependency graph",
		Long: `Print the resolved dependency graph.

Formats:
  text   tree of nodes grouped by kind, with each resolved dependency
  yaml   nodes, edges, construction order and routes
  json   same content as yaml
  dot    Graphviz digraph (pipe into "dot -Tsvg")`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.runGraph(cmd, args, format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, yaml, json or dot")
	return cmd
}

func (a *App) runGraph(cmd *cobra.Command, args []string, format string) error {
	if err := checkFormat(format, formatText, formatYAML, formatJSON, formatDOT); err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	g, _, err := a.loadGraph(cmd.Context(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatDOT:
		return g.WriteDOT(out)
	case formatYAML, formatJSON:
		return encode(out, format, g.Describe())
	default:
		fmt.Fprintln(out, graphTree(g))
		return nil
	}
}

func newRoutesCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "routes [paths...]",
		Short: "List the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, app.runRoutes(cmd, args, format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text, yaml or json")
	return cmd
}

func (a *App) runRoutes(cmd *cobra.Command, args []string, format string) error {
	if err := checkFormat(format, formatText, formatYAML, formatJSON); err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	g, _, err := a.loadGraph(cmd.Context(), args)
	if err != nil {
		return err
	}

	routes := g.Describe().Routes
	out := cmd.OutOrStdout()
	if format != formatText {
		return encode(out, format, routes)
	}

	var start decl.NodeID
	if app := g.App(); app != nil {
		start = app.Start
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		Headers("ROUTE", "NODE", "KIND", "START").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	for _, r := range routes {
		mark := ""
		if r.Node == start {
			mark = "✓"
		}
		t.Row(string(r.Route), string(r.Node), string(r.Kind), mark)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w %q (expected one of: %s)", errUnsupportedFormat, format, strings.Join(allowed, ", "))
}

func encode(w io.Writer, format string, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// graphTree renders g as a tree grouped by kind. Subfeatures are nested
// under their feature.
func graphTree(g *graph.ResolvedGraph) *tree.Tree {
	rootLabel := "graph"
	if app := g.App(); app != nil {
		rootLabel = app.Name + " (start: " + string(app.Start) + ")"
	}
	root := tree.Root(TitleStyle.Render(rootLabel)).Enumerator(tree.RoundedEnumerator)

	sections := []struct {
		kind  decl.Kind
		title string
	}{
		{decl.KindPlatform, "platforms"},
		{decl.KindLibrary, "libraries"},
		{decl.KindFeature, "features"},
	}
	for _, s := range sections {
		nodes := g.NodesOfKind(s.kind)
		if len(nodes) == 0 {
			continue
		}
		section := tree.Root(SubtitleStyle.Render(s.title))
		for _, n := range nodes {
			branch := nodeBranch(g, n)
			for _, child := range n.Children {
				if c, ok := g.Node(child); ok {
					branch.Child(nodeBranch(g, c))
				}
			}
			section.Child(branch)
		}
		root.Child(section)
	}
	return root
}

func nodeBranch(g *graph.ResolvedGraph, n *graph.Node) *tree.Tree {
	label := CmdStyle.Render(string(n.ID))
	if n.Route != "" {
		label += SubtitleStyle.Render(" /" + string(n.Route))
	}
	if provides := n.ProvidedNames(); len(provides) > 0 {
		names := make([]string, len(provides))
		for i, c := range provides {
			names[i] = string(c)
		}
		label += " provides " + strings.Join(names, ", ")
	}
	branch := tree.Root(label)
	for _, e := range g.EdgesOf(n.ID) {
		branch.Child(fmt.Sprintf("%s ← %s", e.Capability, e.Provider))
	}
	return branch
}
