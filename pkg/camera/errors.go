package camera

import "errors"

// Common errors returned by camera providers.
var (
	// ErrNoDevice is returned when no device is configured for a facing.
	ErrNoDevice = errors.New("no camera device configured")

	// ErrDeviceUnavailable is returned when a device cannot be opened.
	ErrDeviceUnavailable = errors.New("camera device unavailable")

	// ErrUnknownHandle is returned when a handle was never acquired or
	// has already been released.
	ErrUnknownHandle = errors.New("unknown camera handle")

	// ErrCaptureFailed is returned when the device did not produce a frame.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrInvalidFacing is returned when a facing name is not recognized.
	ErrInvalidFacing = errors.New("invalid camera facing")

	// ErrUnknownDriver is returned by NewProvider for unknown drivers.
	ErrUnknownDriver = errors.New("unknown camera driver")
)
