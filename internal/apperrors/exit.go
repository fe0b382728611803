package apperrors

import "errors"

// Process exit codes used by the stager binaries.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitUsage     = 2
	ExitNotStaged = 3
)

// ExitCode maps an error to the process exit code.
// A missing artifact only reaches this point when the caller marked it required.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrValidation):
		return ExitUsage
	case errors.Is(err, ErrProjectNotFound):
		return ExitOK
	case errors.Is(err, ErrArtifactNotFound):
		return ExitNotStaged
	default:
		return ExitFailure
	}
}
