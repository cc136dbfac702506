// Package camera provides the camera hardware collaborators used by the
// session controller.
//
// A Provider acquires a camera for a given facing, hands back an opaque
// Handle, captures still frames through that handle and releases it when
// the session no longer needs it. Two implementations ship with snapcam:
//
//   - V4L2Provider drives Linux video devices through ffmpeg.
//   - VirtualProvider synthesizes a test pattern and needs no hardware.
//
// Example usage:
//
//	cam, err := camera.NewProvider(camera.Config{
//	    Driver:     camera.DriverV4L2,
//	    BackDevice: "/dev/video0",
//	    OutputDir:  "~/Pictures/snapcam",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h, err := cam.Acquire(ctx, camera.FacingBack)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cam.Release(h)
//
//	path, err := cam.Capture(ctx, h, "IMG_20240101_120000.jpg")
package camera

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Facing selects which physical camera is used.
type Facing int

const (
	// FacingBack is the rear (world-facing) camera. It is the default.
	FacingBack Facing = iota

	// FacingFront is the user-facing camera.
	FacingFront
)

// String returns the lower-case facing name.
func (f Facing) String() string {
	switch f {
	case FacingBack:
		return "back"
	case FacingFront:
		return "front"
	default:
		return "unknown"
	}
}

// Toggle returns the opposite facing.
func (f Facing) Toggle() Facing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// ParseFacing converts "back" or "front" to a Facing.
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "back", "rear", "":
		return FacingBack, nil
	case "front", "user":
		return FacingFront, nil
	default:
		return FacingBack, fmt.Errorf("%w: %q", ErrInvalidFacing, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Facing) UnmarshalText(text []byte) error {
	parsed, err := ParseFacing(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Handle identifies an acquired camera. Handles are values: the provider
// tracks which IDs are open, the holder never mutates one.
type Handle struct {
	// ID is unique per acquisition.
	ID string `json:"id"`

	// Facing is the camera this handle was acquired for.
	Facing Facing `json:"facing"`

	// Device is the provider-specific device name (e.g. /dev/video0).
	Device string `json:"device"`

	// AcquiredAt is when the provider opened the device.
	AcquiredAt time.Time `json:"acquired_at"`
}

// Provider is the camera hardware collaborator.
type Provider interface {
	// Acquire opens the camera for facing.
	//
	// Returns ErrNoDevice if no device is configured for facing and
	// ErrDeviceUnavailable if the device cannot be opened.
	Acquire(ctx context.Context, facing Facing) (Handle, error)

	// Reconfigure switches an open handle to a different facing.
	//
	// The returned handle replaces h. On error h must be treated as no
	// longer usable; the caller releases it.
	Reconfigure(ctx context.Context, h Handle, facing Facing) (Handle, error)

	// Capture writes one still frame named name and returns the path
	// of the stored image.
	Capture(ctx context.Context, h Handle, name string) (string, error)

	// Release closes the handle. It is best effort and never blocks on
	// the hardware.
	Release(h Handle)
}

// Driver names a Provider implementation.
type Driver string

const (
	// DriverV4L2 captures from Linux video devices through ffmpeg.
	DriverV4L2 Driver = "v4l2"

	// DriverVirtual synthesizes frames without hardware.
	DriverVirtual Driver = "virtual"
)

// Config contains camera provider configuration.
type Config struct {
	// Driver selects the implementation. Default: DriverV4L2.
	Driver Driver

	// BackDevice is the device used for FacingBack. Default: /dev/video0.
	BackDevice string

	// FrontDevice is the device used for FacingFront. Empty means the
	// device has no front camera and switching facing fails.
	FrontDevice string

	// Width and Height are the requested capture resolution.
	// Default: 1280x720.
	Width  int
	Height int

	// FFmpegPath is the ffmpeg binary. Default: "ffmpeg".
	FFmpegPath string

	// OutputDir is where captured images are written.
	OutputDir string
}
