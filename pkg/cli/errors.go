package cli

import (
	"errors"
	"fmt"

	"mercator-hq/peersync/pkg/config"
)

// Process exit codes.
const (
	ExitOK = 0

	// ExitFailure is any error not covered below.
	ExitFailure = 1

	// ExitConfig means the configuration could not be loaded or is invalid.
	ExitConfig = 2

	// ExitCycle means a one-shot reconciliation ended failed or rolled back.
	ExitCycle = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error

	// Code overrides the exit code derived from Err when non-zero.
	Code int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// WrapConfigError turns a load or validation failure into a ConfigError.
// A validation error with a single field keeps that field name.
func WrapConfigError(err error) *ConfigError {
	if err == nil {
		return nil
	}

	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce
	}

	var ve config.ValidationError
	if errors.As(err, &ve) && len(ve.Errors) == 1 {
		return &ConfigError{Field: ve.Errors[0].Field, Message: ve.Errors[0].Message, Err: err}
	}
	return &ConfigError{Message: err.Error(), Err: err}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code != 0 {
		return cmdErr.Code
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}
	var ve config.ValidationError
	if errors.As(err, &ve) {
		return ExitConfig
	}
	return ExitFailure
}
