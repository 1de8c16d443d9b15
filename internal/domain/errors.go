package domain

import "fmt"

// ValidationError reports caller-supplied data failing a precondition.
// Surfaced as HTTP 400, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference to a bookmark absent from the
// caller's collection. Surfaced as HTTP 404.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found: %s", e.Kind, e.ID) }

// StorageError wraps a KV store failure. Surfaced as HTTP 500; the
// core never retries, detail is logged and not leaked to the client.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// UpstreamAuthError reports the identity provider rejecting an
// exchange or returning unexpected data. Never retried automatically.
type UpstreamAuthError struct {
	Reason string
	Err    error
}

func (e *UpstreamAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream auth: %s: %v", e.Reason, e.Err)
	}
	return "upstream auth: " + e.Reason
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }
