package domain

import "fmt"

// ValidationCause enumerates the closed set of reasons a command can be
// rejected before any catalog mutation is attempted.
type ValidationCause string

// Validation causes.
const (
	CauseSourceNotFound      ValidationCause = "source-not-found"
	CauseSourceIsTemporary   ValidationCause = "source-is-temporary"
	CauseTargetNotFound      ValidationCause = "target-not-found"
	CauseTargetIsTemporary   ValidationCause = "target-is-temporary"
	CauseKindMismatch        ValidationCause = "kind-mismatch"
	CauseUnsupportedLoadKind ValidationCause = "unsupported-table-kind-for-load"
	CauseSpecIncomplete      ValidationCause = "partition-spec-incomplete"
	CauseSpecUnexpected      ValidationCause = "partition-spec-unexpected"
	CauseUnknownPartitionCol ValidationCause = "unknown-partition-column"
	CausePathMissingScheme   ValidationCause = "path-missing-scheme"
	CauseLocalPathNotFound   ValidationCause = "local-path-not-found"
)

// CommandError is the single validation error kind raised by the command
// layer. Catalog failures are never wrapped into it; they propagate as-is.
type CommandError struct {
	Cause   ValidationCause
	Message string
}

func (e *CommandError) Error() string { return e.Message }

// ErrCommand creates a CommandError with a formatted message.
func ErrCommand(cause ValidationCause, format string, args ...interface{}) *CommandError {
	return &CommandError{Cause: cause, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a catalog entry was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate table).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
