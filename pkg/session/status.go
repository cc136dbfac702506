package session

import (
	"path/filepath"
	"time"

	"github.com/0xmhha/snapcam/pkg/camera"
)

// stampLayout renders YYYYMMDD_HHMMSS.
const stampLayout = "20060102_150405"

const defaultFacing = camera.FacingBack

var zeroTime time.Time

// FileName returns the capture file name for a request made at t:
// IMG_{YYYYMMDD}_{HHMMSS}.jpg.
func FileName(t time.Time) string {
	return "IMG_" + t.Format(stampLayout) + ".jpg"
}

// PreviewURI returns the display URI for path: the path with a
// ?v={YYYYMMDD_HHMMSS} cache buster taken from the request time.
func PreviewURI(path string, requestedAt time.Time) string {
	if path == "" {
		return ""
	}
	return path + "?v=" + requestedAt.Format(stampLayout)
}

// ControlsFor returns the enabled controls for a phase.
func ControlsFor(p Phase) Controls {
	switch p {
	case PhaseIdle, PhaseError:
		return Controls{Start: true}
	case PhaseReady:
		return Controls{Capture: true, Switch: true}
	default:
		return Controls{}
	}
}

// Status builds the observer record for s. The capture record is copied
// so observers cannot reach into the session.
func (s Session) Status() Status {
	st := Status{
		Phase:      s.Phase,
		Permission: s.Permission,
		Facing:     s.Facing,
		Message:    s.message(),
		LastError:  s.LastError,
		PreviewURI: s.PreviewURI,
		Controls:   ControlsFor(s.Phase),
		HasCamera:  s.Camera != nil,
	}
	if s.LastCapture != nil {
		c := *s.LastCapture
		st.LastCapture = &c
	}
	return st
}

// message is the one-line text shown next to the controls.
func (s Session) message() string {
	switch s.Phase {
	case PhaseIdle:
		if s.LastError != "" {
			return "camera off: " + s.LastError
		}
		return "press start to enable the camera"
	case PhasePermissionPending:
		return "requesting camera permission..."
	case PhaseInitializing:
		return "connecting to camera..."
	case PhaseReady:
		switch {
		case s.reconfiguring:
			return "switching to " + s.Facing.String() + " camera..."
		case s.LastError != "":
			return "capture failed: " + s.LastError
		case s.LastCapture != nil:
			return "saved: " + filepath.Base(s.LastCapture.Path)
		default:
			return "camera running"
		}
	case PhaseCapturing:
		return "capturing..."
	case PhaseError:
		return "camera error: " + s.LastError
	default:
		return string(s.Phase)
	}
}
