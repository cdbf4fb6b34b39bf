package proxyctl

import "fmt"

// IOError reports a proxy configuration file that could not be read or
// written.
type IOError struct {
	Operation string // "read" or "write"
	Path      string
	Cause     error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("proxy config %s %s: %v", e.Operation, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *IOError) Unwrap() error {
	return e.Cause
}

// CommandError reports a proxy control command that could not be executed,
// or a reload that exited non-zero. A validation run that merely reports an
// invalid config is not a CommandError.
type CommandError struct {
	Command string // "validate" or "reload"
	Cause   error
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("proxy %s command failed: %v", e.Command, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CommandError) Unwrap() error {
	return e.Cause
}
