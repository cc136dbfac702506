// Package controller runs a camera session against real collaborators.
//
// The session package decides; the controller executes. Events are
// applied one at a time on a single goroutine, the resulting commands are
// carried out on their own goroutines with per-kind timeouts, and each
// command's outcome is fed back as a completion event tagged with the
// command's token.
//
// Example usage:
//
//	ctl, err := controller.New(controller.Config{}, perm, cam, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctl.Close()
//
//	if err := ctl.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	_ = ctl.Dispatch(session.StartRequested{})
//
//	for u := range ctl.Updates() {
//	    fmt.Println(u.Status.Message)
//	}
package controller

import (
	"context"
	"time"

	"github.com/0xmhha/snapcam/pkg/session"
)

// Controller drives a session.
type Controller interface {
	// Start begins processing events. It returns immediately; ctx bounds
	// the lifetime of the event loop and of every command it runs.
	Start(ctx context.Context) error

	// Dispatch queues e. CaptureRequested events with a zero At are
	// stamped with the controller clock.
	Dispatch(e session.Event) error

	// Updates returns status updates for applied events. Updates are
	// dropped when the channel is full. The channel is closed by Close.
	Updates() <-chan Update

	// Snapshot returns the current session.
	Snapshot() session.Session

	// Stop tears the session down, releasing any held camera, and stops
	// the event loop. The controller can be started again.
	Stop() error

	// Close stops the controller if running and releases resources.
	Close() error
}

// Update describes the session after an applied event.
type Update struct {
	// Timestamp of the update.
	Timestamp time.Time

	// Event is the name of the event that produced the update.
	Event string

	// Status is the observer view of the session.
	Status session.Status
}

// Observer is notified synchronously of every update, in order.
type Observer interface {
	Observe(Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Update)

// Observe implements Observer.
func (f ObserverFunc) Observe(u Update) { f(u) }

// Config contains controller configuration.
type Config struct {
	// PermissionTimeout bounds a permission request (default: 60s).
	PermissionTimeout time.Duration

	// AcquireTimeout bounds opening or switching a camera (default: 10s).
	AcquireTimeout time.Duration

	// CaptureTimeout bounds taking a picture (default: 15s).
	CaptureTimeout time.Duration

	// UpdateBuffer is the capacity of the Updates channel (default: 16).
	UpdateBuffer int

	// Observers are called for every update.
	Observers []Observer

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}
