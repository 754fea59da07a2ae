// SPDX-License-Identifier: MPL-2.0

package discovery

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a file that could not be loaded.
	SeverityError Severity = "error"

	// CodeSearchPathMissing reports a configured search path that does not exist.
	CodeSearchPathMissing = "search_path_missing"
	// CodeDuplicateFile reports a file reached through overlapping search paths.
	CodeDuplicateFile = "duplicate_file"
	// CodeParseFailed reports a declaration file that failed to parse.
	CodeParseFailed = "declaration_parse_failed"
	// CodeConflictingApp reports a second, different app root.
	CodeConflictingApp = "conflicting_app"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "declaration_parse_failed").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
