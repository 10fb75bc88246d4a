package cli

import (
	"errors"
	"fmt"
)

// SilentError wraps an error that a command has already reported to the
// user (via logging or a printed message) so main.go's top-level handler
// does not print it a second time.
type SilentError struct {
	err error
}

// NewSilentError wraps err as a SilentError.
func NewSilentError(err error) *SilentError {
	return &SilentError{err: err}
}

func (e *SilentError) Error() string { return e.err.Error() }
func (e *SilentError) Unwrap() error { return e.err }

// ExitCode reports the process exit code to use when this error reaches
// main.go, per section 6.2's exit code table.
func (e *SilentError) ExitCode() int {
	var coded interface{ ExitCode() int }
	if errors.As(e.err, &coded) {
		return coded.ExitCode()
	}
	return 1
}

// UserError reports a malformed or missing command-line argument. Exit
// code 1.
type UserError struct {
	Msg   string
	Token string
}

func (e *UserError) Error() string {
	if e.Token == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %q", e.Msg, e.Token)
}

// ExitCode reports the process exit code for a UserError: 1.
func (e *UserError) ExitCode() int { return 1 }

// EnvironmentError reports that the host environment is unusable: the git
// binary is missing, or the current directory is not inside a working
// tree. Exit code 126.
type EnvironmentError struct {
	Msg string
	Err error
}

func (e *EnvironmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// ExitCode reports the process exit code for an EnvironmentError: 126.
func (e *EnvironmentError) ExitCode() int { return 126 }

// RepositoryStateError reports that the repository is not in a state the
// requested command can act on: the subtree was never added, or a
// required branch is not an ancestor of HEAD. Exit code 1.
type RepositoryStateError struct {
	Msg string
}

func (e *RepositoryStateError) Error() string { return e.Msg }

// ExitCode reports the process exit code for a RepositoryStateError: 1.
func (e *RepositoryStateError) ExitCode() int { return 1 }

// ExitCodeFor extracts an exit code from any error that implements
// ExitCode() int (UserError, EnvironmentError, RepositoryStateError,
// SilentError). Every other error, including the engine's
// InternalError/ConsistencyError/RememberError family, exits 1 per
// section 6.2's exit code table.
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}
