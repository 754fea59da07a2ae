// SPDX-License-Identifier: MPL-2.0

package cmd

import "strconv"

const (
	// ExitFailure reports an invalid graph, configuration or generation error.
	ExitFailure = 1
	// ExitUsage reports bad flags or arguments.
	ExitUsage = 2
)

// ExitError carries a process exit code out of a RunE handler. Execute maps
// it to os.Exit after fang has finished with the error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
