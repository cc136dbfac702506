package session

import (
	"fmt"
)

// Step applies e to s. It is total: every phase accepts every event,
// possibly only to ignore it.
//
// Commands are returned even for Stale events: a camera acquired for an
// operation that was superseded is handed back as a ReleaseCamera so the
// hardware is not leaked.
func Step(s Session, e Event) (Session, []Command, Disposition) {
	switch ev := e.(type) {
	case StartRequested:
		return s.start()
	case PermissionResult:
		return s.permissionResult(ev)
	case PermissionFailed:
		return s.permissionFailed(ev)
	case CameraAcquired:
		return s.cameraAcquired(ev)
	case CameraAcquireFailed:
		return s.cameraAcquireFailed(ev)
	case CaptureRequested:
		return s.captureRequested(ev)
	case CaptureCompleted:
		return s.captureCompleted(ev)
	case CaptureFailed:
		return s.captureFailed(ev)
	case SwitchFacingRequested:
		return s.switchFacing()
	case Teardown:
		return s.teardown()
	default:
		return s, nil, Ignored
	}
}

// issue allocates the token for a new outstanding command.
func (s *Session) issue() uint64 {
	s.seq++
	s.pending = s.seq
	return s.pending
}

// completes reports whether token matches the outstanding command.
func (s Session) completes(token uint64) bool {
	return token != 0 && token == s.pending
}

func (s Session) start() (Session, []Command, Disposition) {
	if s.Phase != PhaseIdle && s.Phase != PhaseError {
		return s, nil, Ignored
	}

	s.LastError = ""

	// Permission already granted: go straight back to the hardware.
	if s.Phase == PhaseError && s.Permission == PermissionGranted {
		s.Phase = PhaseInitializing
		token := s.issue()
		return s, []Command{AcquireCamera{Token: token, Facing: s.Facing}}, Applied
	}

	s.Phase = PhasePermissionPending
	s.Permission = PermissionRequested
	token := s.issue()
	return s, []Command{RequestPermission{Token: token}}, Applied
}

func (s Session) permissionResult(ev PermissionResult) (Session, []Command, Disposition) {
	if s.Phase != PhasePermissionPending || !s.completes(ev.Token) {
		return s, nil, Stale
	}
	s.pending = 0

	if !ev.Granted {
		s.Phase = PhaseIdle
		s.Permission = PermissionDenied
		s.LastError = ErrPermissionDenied.Error()
		return s, nil, Applied
	}

	s.Permission = PermissionGranted
	s.Phase = PhaseInitializing
	s.Facing = defaultFacing
	token := s.issue()
	return s, []Command{AcquireCamera{Token: token, Facing: s.Facing}}, Applied
}

func (s Session) permissionFailed(ev PermissionFailed) (Session, []Command, Disposition) {
	if s.Phase != PhasePermissionPending || !s.completes(ev.Token) {
		return s, nil, Stale
	}
	s.pending = 0

	s.Phase = PhaseError
	s.Permission = PermissionUnrequested
	s.LastError = reasonOr(ev.Reason, "permission request failed")
	return s, nil, Applied
}

func (s Session) cameraAcquired(ev CameraAcquired) (Session, []Command, Disposition) {
	if !s.completes(ev.Token) {
		return s, []Command{ReleaseCamera{Handle: ev.Handle}}, Stale
	}

	switch {
	case s.Phase == PhaseInitializing:
	case s.Phase == PhaseReady && s.reconfiguring:
		// The provider disposed of the previous handle when it switched.
		s.reconfiguring = false
	default:
		return s, []Command{ReleaseCamera{Handle: ev.Handle}}, Stale
	}

	h := ev.Handle
	s.pending = 0
	s.Phase = PhaseReady
	s.Camera = &h
	s.Facing = h.Facing
	s.LastError = ""
	return s, nil, Applied
}

func (s Session) cameraAcquireFailed(ev CameraAcquireFailed) (Session, []Command, Disposition) {
	if !s.completes(ev.Token) {
		return s, nil, Stale
	}

	reason := reasonOr(ev.Reason, ErrAcquireFailed.Error())

	switch {
	case s.Phase == PhaseInitializing:
		s.pending = 0
		s.Phase = PhaseError
		s.LastError = reason
		return s, nil, Applied

	case s.Phase == PhaseReady && s.reconfiguring:
		var cmds []Command
		if s.Camera != nil {
			cmds = append(cmds, ReleaseCamera{Handle: *s.Camera})
		}
		s.pending = 0
		s.reconfiguring = false
		s.Camera = nil
		s.Facing = s.previousFacing
		s.Phase = PhaseError
		s.LastError = reason
		return s, cmds, Applied

	default:
		return s, nil, Stale
	}
}

func (s Session) captureRequested(ev CaptureRequested) (Session, []Command, Disposition) {
	// Capturing is exclusive and a switch in flight owns the pending slot.
	if s.Phase != PhaseReady || s.reconfiguring || s.Camera == nil {
		return s, nil, Ignored
	}

	s.Phase = PhaseCapturing
	s.LastError = ""
	s.requestedAt = ev.At
	token := s.issue()
	return s, []Command{TakePicture{
		Token:  token,
		Handle: *s.Camera,
		Name:   FileName(ev.At),
	}}, Applied
}

func (s Session) captureCompleted(ev CaptureCompleted) (Session, []Command, Disposition) {
	if s.Phase != PhaseCapturing || !s.completes(ev.Token) {
		return s, nil, Stale
	}
	if ev.Path == "" {
		return s.captureFailed(CaptureFailed{Token: ev.Token, Reason: ErrCaptureFailed.Error()})
	}

	s.pending = 0
	s.Phase = PhaseReady
	s.LastCapture = &Capture{Path: ev.Path, TakenAt: ev.At}
	s.PreviewURI = PreviewURI(ev.Path, s.requestedAt)
	s.LastError = ""
	s.requestedAt = zeroTime
	return s, nil, Applied
}

func (s Session) captureFailed(ev CaptureFailed) (Session, []Command, Disposition) {
	if s.Phase != PhaseCapturing || !s.completes(ev.Token) {
		return s, nil, Stale
	}

	s.pending = 0
	s.Phase = PhaseReady
	s.LastError = reasonOr(ev.Reason, ErrCaptureFailed.Error())
	s.requestedAt = zeroTime
	return s, nil, Applied
}

func (s Session) switchFacing() (Session, []Command, Disposition) {
	if s.Phase != PhaseReady || s.reconfiguring || s.Camera == nil {
		return s, nil, Ignored
	}

	s.previousFacing = s.Facing
	s.Facing = s.Facing.Toggle()
	s.reconfiguring = true
	s.LastError = ""
	token := s.issue()
	return s, []Command{ReconfigureCamera{
		Token:  token,
		Handle: *s.Camera,
		Facing: s.Facing,
	}}, Applied
}

func (s Session) teardown() (Session, []Command, Disposition) {
	var cmds []Command
	if s.Camera != nil {
		cmds = append(cmds, ReleaseCamera{Handle: *s.Camera})
	}

	next := New()
	// Tokens stay monotonic so completions for pre-teardown commands
	// can never match a later command.
	next.seq = s.seq
	next.LastCapture = s.LastCapture
	next.PreviewURI = s.PreviewURI
	return next, cmds, Applied
}

// Check verifies the session invariants.
func (s Session) Check() error {
	if s.Phase.HoldsCamera() != (s.Camera != nil) {
		return fmt.Errorf("%w: phase %s with camera held = %t", ErrInvariant, s.Phase, s.Camera != nil)
	}

	switch s.Phase {
	case PhaseInitializing, PhaseReady, PhaseCapturing:
		if s.Permission != PermissionGranted {
			return fmt.Errorf("%w: phase %s with permission %s", ErrInvariant, s.Phase, s.Permission)
		}
	case PhasePermissionPending:
		if s.Permission != PermissionRequested {
			return fmt.Errorf("%w: phase %s with permission %s", ErrInvariant, s.Phase, s.Permission)
		}
	}

	waiting := s.Phase == PhasePermissionPending ||
		s.Phase == PhaseInitializing ||
		s.Phase == PhaseCapturing ||
		s.reconfiguring
	if waiting != (s.pending != 0) {
		return fmt.Errorf("%w: phase %s with pending token %d", ErrInvariant, s.Phase, s.pending)
	}

	if s.reconfiguring && s.Phase != PhaseReady {
		return fmt.Errorf("%w: reconfiguring outside ready (%s)", ErrInvariant, s.Phase)
	}

	if s.LastCapture != nil && s.LastCapture.Path == "" {
		return fmt.Errorf("%w: capture record without path", ErrInvariant)
	}

	return nil
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
