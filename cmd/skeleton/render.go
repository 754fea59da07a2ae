// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skeleton-dev/skeleton/internal/discovery"
	"github.com/skeleton-dev/skeleton/internal/issue"
	"github.com/skeleton-dev/skeleton/pkg/graph"
)

// renderDiagnostics prints discovery diagnostics on stderr. Warnings are
// only shown in verbose mode.
func (a *App) renderDiagnostics(diags []discovery.Diagnostic) {
	for _, d := range diags {
		if d.Severity == discovery.SeverityWarning && !a.verbose {
			continue
		}
		label := WarningStyle.Render("warning")
		if d.Severity == discovery.SeverityError {
			label = ErrorStyle.Render("error")
		}
		msg := d.Message
		if d.Path != "" {
			msg = d.Path + ": " + msg
		}
		if d.Cause != nil && d.Code == discovery.CodeParseFailed {
			msg += "\n    " + d.Cause.Error()
		}
		fmt.Fprintf(a.stderr, "%s %s %s\n", label, SubtitleStyle.Render("["+d.Code+"]"), msg)
	}
}

// renderError prints err on stderr. Build errors are listed one per line
// under the phase that produced them.
func (a *App) renderError(err error) {
	var buildErr *graph.BuildError
	if errors.As(err, &buildErr) {
		fmt.Fprintf(a.stderr, "%s graph is invalid (%s phase, %d %s)\n",
			ErrorStyle.Render("✗"), buildErr.Phase, len(buildErr.Errors), plural(len(buildErr.Errors), "error", "errors"))
		for _, e := range buildErr.Errors {
			fmt.Fprintf(a.stderr, "  • %s\n", e)
		}
		a.renderHint(err)
		return
	}

	var actErr *issue.ActionableError
	if errors.As(err, &actErr) {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+strings.TrimRight(actErr.Format(a.verbose), "\n"))
		return
	}

	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+err.Error())
	a.renderHint(err)
}

func (a *App) renderHint(err error) {
	if a.explain || issue.ForError(err) == nil {
		return
	}
	fmt.Fprintln(a.stderr, SubtitleStyle.Render("Run again with --explain for a detailed guide."))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
