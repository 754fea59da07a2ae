// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError annotates a failure with the operation that was attempted,
// the resource involved, and hints for the user. Build one with New:
//
//	return issue.New("load configuration").
//		On(path).
//		Suggest("Run 'skeleton config show' to see the effective configuration").
//		Explain(issue.ConfigLoadFailedId).
//		Wrap(err)
type ActionableError struct {
	Operation   string
	Resource    string
	Suggestions []string
	// Issue is the guide shown by --explain; zero means none.
	Issue Id
	Cause error
}

// New starts an ActionableError for operation, a verb phrase such as
// "load configuration" or "write generated code".
func New(operation string) *ActionableError {
	return &ActionableError{Operation: operation}
}

// On records the file, directory or node the operation was acting on.
func (e *ActionableError) On(resource string) *ActionableError {
	e.Resource = resource
	return e
}

// Suggest appends remediation hints.
func (e *ActionableError) Suggest(hints ...string) *ActionableError {
	e.Suggestions = append(e.Suggestions, hints...)
	return e
}

// Explain links the error to an issue guide.
func (e *ActionableError) Explain(id Id) *ActionableError {
	e.Issue = id
	return e
}

// Wrap sets cause and returns e as an error. A nil cause yields nil so the
// result can be returned directly.
func (e *ActionableError) Wrap(cause error) error {
	if cause == nil {
		return nil
	}
	e.Cause = cause
	return e
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format renders the error followed by its suggestions as a bullet list.
// verbose adds one numbered line per error in the cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	if len(e.Suggestions) > 0 {
		sb.WriteString("\n")
		for _, s := range e.Suggestions {
			sb.WriteString("\n  • " + s)
		}
	}
	if verbose && e.Cause != nil {
		sb.WriteString("\n\nCaused by:")
		for i, err := 1, e.Cause; err != nil; i, err = i+1, errors.Unwrap(err) {
			fmt.Fprintf(&sb, "\n  %d. %s", i, err)
		}
	}
	return sb.String()
}
