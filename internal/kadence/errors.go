package kadence

import "fmt"

// AuthError indicates missing or rejected credentials. It is fatal at
// startup; rows are never processed without a working credential source.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError is a non-2xx response from the remote service, carrying the
// numeric status and whatever detail the body offered so a failure can be
// diagnosed without re-running.
type RequestError struct {
	StatusCode int
	Detail     string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("remote request failed with status %d: %s", e.StatusCode, e.Detail)
}

// NotFoundError means no entity of the given kind matched the name, after
// case-insensitive, whitespace-trimmed comparison of the full listing.
type NotFoundError struct {
	Kind string // "user", "building", "floor" or "space"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ResolutionError means every listing shape for a child collection failed,
// so the name could not even be searched for.
type ResolutionError struct {
	Kind     string // collection kind, e.g. "floors"
	ParentID string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not list %s under %q: %v", e.Kind, e.ParentID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
