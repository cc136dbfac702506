package session

import "errors"

// Failure kinds. The session surfaces them as text in LastError; these
// sentinels let the controller classify collaborator failures.
var (
	// ErrPermissionDenied is the user or system refusing camera access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAcquireFailed wraps camera acquisition failures.
	ErrAcquireFailed = errors.New("camera acquisition failed")

	// ErrCaptureFailed wraps capture failures.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrStaleEvent marks a completion for an operation that is no longer
	// outstanding. Never surfaced to the user.
	ErrStaleEvent = errors.New("stale event")

	// ErrInvariant is returned by Check when a session is inconsistent.
	ErrInvariant = errors.New("session invariant violated")
)
