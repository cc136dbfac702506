package controller

import "errors"

var (
	// ErrClosed is returned when operations are attempted on a closed controller.
	ErrClosed = errors.New("controller is closed")

	// ErrRunning is returned when trying to start a running controller.
	ErrRunning = errors.New("controller is already running")

	// ErrNotRunning is returned when dispatching to or stopping a
	// controller that is not running.
	ErrNotRunning = errors.New("controller is not running")

	// ErrNilCollaborator is returned by New without a permission or
	// camera provider.
	ErrNilCollaborator = errors.New("permission and camera providers are required")
)
