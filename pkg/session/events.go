package session

import (
	"time"

	"github.com/0xmhha/snapcam/pkg/camera"
)

// Event is something that happened to the session: a user action or the
// completion of a command. Completion events carry the Token of the
// command they complete.
type Event interface {
	eventName() string
}

// StartRequested: the user pressed start.
type StartRequested struct{}

// PermissionResult: the permission request resolved.
type PermissionResult struct {
	Token   uint64
	Granted bool
}

// PermissionFailed: the permission request errored or timed out
// without an answer.
type PermissionFailed struct {
	Token  uint64
	Reason string
}

// CameraAcquired: an AcquireCamera or ReconfigureCamera command succeeded.
type CameraAcquired struct {
	Token  uint64
	Handle camera.Handle
}

// CameraAcquireFailed: an AcquireCamera or ReconfigureCamera command failed.
type CameraAcquireFailed struct {
	Token  uint64
	Reason string
}

// CaptureRequested: the user pressed capture. At is the request time and
// names the file.
type CaptureRequested struct {
	At time.Time
}

// CaptureCompleted: a TakePicture command stored an image at Path.
type CaptureCompleted struct {
	Token uint64
	Path  string
	At    time.Time
}

// CaptureFailed: a TakePicture command failed.
type CaptureFailed struct {
	Token  uint64
	Reason string
}

// SwitchFacingRequested: the user pressed the front/back toggle.
type SwitchFacingRequested struct{}

// Teardown: the session is ending.
type Teardown struct{}

func (StartRequested) eventName() string        { return "start_requested" }
func (PermissionResult) eventName() string      { return "permission_result" }
func (PermissionFailed) eventName() string      { return "permission_failed" }
func (CameraAcquired) eventName() string        { return "camera_acquired" }
func (CameraAcquireFailed) eventName() string   { return "camera_acquire_failed" }
func (CaptureRequested) eventName() string      { return "capture_requested" }
func (CaptureCompleted) eventName() string      { return "capture_completed" }
func (CaptureFailed) eventName() string         { return "capture_failed" }
func (SwitchFacingRequested) eventName() string { return "switch_facing_requested" }
func (Teardown) eventName() string              { return "teardown" }

// EventName returns a stable name for logging.
func EventName(e Event) string {
	if e == nil {
		return "nil"
	}
	return e.eventName()
}

// Command is an instruction for a collaborator.
type Command interface {
	commandName() string
}

// RequestPermission asks the permission provider for camera access.
type RequestPermission struct {
	Token uint64
}

// AcquireCamera asks the camera provider to open the camera for Facing.
type AcquireCamera struct {
	Token  uint64
	Facing camera.Facing
}

// ReconfigureCamera asks the camera provider to switch Handle to Facing.
// The session keeps owning Handle until the result arrives.
type ReconfigureCamera struct {
	Token  uint64
	Handle camera.Handle
	Facing camera.Facing
}

// TakePicture asks the camera provider to store a frame named Name.
type TakePicture struct {
	Token  uint64
	Handle camera.Handle
	Name   string
}

// ReleaseCamera releases Handle. Fire and forget; no completion event.
type ReleaseCamera struct {
	Handle camera.Handle
}

func (RequestPermission) commandName() string { return "request_permission" }
func (AcquireCamera) commandName() string     { return "acquire_camera" }
func (ReconfigureCamera) commandName() string { return "reconfigure_camera" }
func (TakePicture) commandName() string       { return "take_picture" }
func (ReleaseCamera) commandName() string     { return "release_camera" }

// CommandName returns a stable name for logging.
func CommandName(c Command) string {
	if c == nil {
		return "nil"
	}
	return c.commandName()
}
