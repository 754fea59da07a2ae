// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"slices"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

type (
	// Violation is one reason input failed a schema.
	Violation struct {
		// Path is the JSON path of the offending value, e.g.
		// "declarations[0].route". Empty for file-level errors.
		Path string
		// Message is CUE's description of the problem.
		Message string
	}

	// SchemaError lists every violation found in one input.
	SchemaError struct {
		File       string
		Violations []Violation
	}
)

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if len(e.Violations) == 1 {
		return e.File + ": " + e.Violations[0].String()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d schema violations:", e.File, len(e.Violations))
	for _, v := range e.Violations {
		sb.WriteString("\n  ")
		sb.WriteString(v.String())
	}
	return sb.String()
}

// Unwrap returns ErrSchema for errors.Is() compatibility.
func (e *SchemaError) Unwrap() error { return ErrSchema }

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// newSchemaError converts a CUE error into a *SchemaError. Duplicate
// violations, which CUE reports once per conjunct, are dropped.
func newSchemaError(err error, file string) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return fmt.Errorf("%s: %w", file, err)
	}

	se := &SchemaError{File: file}
	for _, e := range list {
		path := jsonPath(cueerrors.Path(e))
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		v := Violation{Path: path, Message: msg}
		if !slices.Contains(se.Violations, v) {
			se.Violations = append(se.Violations, v)
		}
	}
	return se
}

// jsonPath renders a CUE selector path such as ["declarations", "0", "route"]
// as "declarations[0].route".
func jsonPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			sb.WriteString("[" + part + "]")
		case i > 0:
			sb.WriteString("." + part)
		default:
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
