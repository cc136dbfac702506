// Package session implements the camera session lifecycle.
//
// A Session is a plain value. All mutation goes through Step, which takes
// the current session and one Event and returns the next session, the
// Commands to hand to collaborators and a Disposition saying whether the
// event was applied, ignored by a guard, or discarded as stale.
//
// Step never blocks and never performs I/O. The controller package runs
// the commands, turns their results into events and feeds them back.
//
// Example usage:
//
//	s := session.New()
//	s, cmds, _ := session.Step(s, session.StartRequested{})
//	// cmds[0] is a session.RequestPermission carrying a Token.
//	s, cmds, _ = session.Step(s, session.PermissionResult{Token: cmds[0].(session.RequestPermission).Token, Granted: true})
//	// s.Phase == session.PhaseInitializing; cmds[0] is a session.AcquireCamera.
package session

import (
	"time"

	"github.com/0xmhha/snapcam/pkg/camera"
)

// Phase is the lifecycle phase of a session.
type Phase string

// Session phases.
const (
	PhaseIdle              Phase = "idle"
	PhasePermissionPending Phase = "permission_pending"
	PhaseInitializing      Phase = "initializing"
	PhaseReady             Phase = "ready"
	PhaseCapturing         Phase = "capturing"
	PhaseError             Phase = "error"
)

// Phases lists every phase in lifecycle order.
var Phases = []Phase{
	PhaseIdle,
	PhasePermissionPending,
	PhaseInitializing,
	PhaseReady,
	PhaseCapturing,
	PhaseError,
}

// HoldsCamera reports whether a camera handle must be held in this phase.
func (p Phase) HoldsCamera() bool {
	return p == PhaseReady || p == PhaseCapturing
}

// PermissionState tracks the camera permission.
type PermissionState string

// Permission states.
const (
	PermissionUnrequested PermissionState = "unrequested"
	PermissionRequested   PermissionState = "requested"
	PermissionGranted     PermissionState = "granted"
	PermissionDenied      PermissionState = "denied"
)

// Capture is the record of a stored image.
type Capture struct {
	// Path is where the image was written. Never carries a query suffix.
	Path string `json:"path"`

	// TakenAt is when the capture completed.
	TakenAt time.Time `json:"taken_at"`
}

// Session is the state of one camera session.
//
// Invariants (see Check):
//   - Camera is non-nil iff Phase is Ready or Capturing.
//   - Permission is Granted whenever Phase is Initializing, Ready or Capturing.
type Session struct {
	Phase      Phase
	Permission PermissionState
	Facing     camera.Facing

	// Camera is the exclusively owned handle.
	Camera *camera.Handle

	// LastCapture survives failures and Teardown.
	LastCapture *Capture

	// LastError is the text shown to the user after a failure.
	LastError string

	// PreviewURI is LastCapture.Path with a cache-busting suffix.
	PreviewURI string

	// seq numbers async commands; pending is the token of the one
	// currently outstanding (0 when none).
	seq     uint64
	pending uint64

	// reconfiguring is set while a facing switch is outstanding in Ready.
	// previousFacing is restored if the switch fails.
	reconfiguring  bool
	previousFacing camera.Facing

	// requestedAt is the capture-request time of the outstanding capture.
	requestedAt time.Time
}

// New returns a session in its initial state.
func New() Session {
	return Session{
		Phase:      PhaseIdle,
		Permission: PermissionUnrequested,
		Facing:     camera.FacingBack,
	}
}

// Pending returns the token of the outstanding async command, or 0.
func (s Session) Pending() uint64 {
	return s.pending
}

// Reconfiguring reports whether a facing switch is in flight.
func (s Session) Reconfiguring() bool {
	return s.reconfiguring
}

// Disposition says what Step did with an event.
type Disposition int

const (
	// Applied means the event changed the session or issued commands.
	Applied Disposition = iota

	// Ignored means a guard rejected the event in the current phase.
	Ignored

	// Stale means the event completes an operation that is no longer
	// outstanding. It was discarded.
	Stale
)

// String returns the disposition name.
func (d Disposition) String() string {
	switch d {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Controls says which user controls are enabled.
type Controls struct {
	Start   bool `json:"start"`
	Capture bool `json:"capture"`
	Switch  bool `json:"switch"`
}

// Status is the record emitted to observers after every transition.
type Status struct {
	Phase       Phase           `json:"phase"`
	Permission  PermissionState `json:"permission"`
	Facing      camera.Facing   `json:"facing"`
	Message     string          `json:"message"`
	LastError   string          `json:"last_error,omitempty"`
	LastCapture *Capture        `json:"last_capture,omitempty"`
	PreviewURI  string          `json:"preview_uri,omitempty"`
	Controls    Controls        `json:"controls"`
	HasCamera   bool            `json:"has_camera"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
