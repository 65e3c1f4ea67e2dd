package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Codes group errors for callers that branch on them.
const (
	ErrConfig         = "CONFIG"
	ErrSSH            = "SSH"
	ErrExec           = "EXEC"
	ErrParse          = "PARSE"      // external tool output didn't match the expected shape
	ErrRemote         = "REMOTE"     // remote command exited non-zero outside a retry path
	ErrConnection     = "CONNECTION" // database client can't reach its target at all
	ErrTransfer       = "TRANSFER"
	ErrDecompress     = "DECOMPRESS"
	ErrImport         = "IMPORT"
	ErrClone          = "CLONE"
	ErrBranch         = "BRANCH"
	ErrLock           = "LOCK" // another run holds the site lock
	ErrAbort          = "ABORT"
	ErrTimeout        = "TIMEOUT"
	ErrNotImplemented = "NOT_IMPLEMENTED"
)

// Error is a failure the CLI can explain. It renders as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New returns an Error with no cause.
func New(code, message, suggestion string) *Error {
	return WrapWithCode(nil, code, message, suggestion)
}

// Wrap attaches message to err under ErrExec.
func Wrap(err error, message string) *Error {
	return WrapWithCode(err, ErrExec, message, "")
}

// WrapWithCode attaches code, message and suggestion to err.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{Code: code, Message: message, Suggestion: suggestion, Cause: err}
}

// NewNotImplemented reports a step neoprene leaves to the operator.
func NewNotImplemented(capability string) *Error {
	return New(ErrNotImplemented, capability+" is not implemented",
		"Run this step by hand on the target host for now.")
}

// NewAbort is the error for an operator choosing to stop. Callers treat it
// as a clean exit, not a failure.
func NewAbort(reason string) *Error {
	return New(ErrAbort, reason, "")
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n", e.Message)
	for _, detail := range []string{e.causeText(), e.Suggestion} {
		if detail != "" {
			fmt.Fprintf(&b, "\n  %s\n", detail)
		}
	}
	return b.String()
}

func (e *Error) causeText() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether the first *Error in err's chain carries code.
func IsCode(err error, code string) bool {
	var nErr *Error
	return errors.As(err, &nErr) && nErr.Code == code
}

// IsAbort reports whether err is an operator abort.
func IsAbort(err error) bool {
	return IsCode(err, ErrAbort)
}

// ExitError makes the process exit with Code without printing anything.
type ExitError struct {
	Code int
}

func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode finds an ExitError in err's chain.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
