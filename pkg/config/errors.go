package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidDriver is returned when the camera driver is not recognized.
	ErrInvalidDriver = errors.New("invalid camera driver: must be v4l2 or virtual")

	// ErrInvalidResolution is returned when width or height is <= 0.
	ErrInvalidResolution = errors.New("invalid resolution: width and height must be > 0")

	// ErrNoOutputDir is returned when no capture directory is set.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidTimeout is returned when a capture timeout is <= 0.
	ErrInvalidTimeout = errors.New("invalid timeout: must be > 0")

	// ErrInvalidPermissionMode is returned when the permission mode is not recognized.
	ErrInvalidPermissionMode = errors.New("invalid permission mode: must be prompt, grant, or deny")

	// ErrNoDBPath is returned when no database path is set.
	ErrNoDBPath = errors.New("no database path specified")

	// ErrInvalidDisplayFormat is returned when display format is not recognized.
	ErrInvalidDisplayFormat = errors.New("invalid display format: must be table, simple, or json")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment override")
)
