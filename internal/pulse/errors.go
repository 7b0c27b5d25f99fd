package pulse

import "errors"

// ErrServerUnreachable indicates the sound server is not running or the
// control tool could not be spawned at all.
var ErrServerUnreachable = errors.New("sound server unreachable")

// ErrInvalidDeviceName indicates a device name that cannot be passed safely
// as a module argument.
var ErrInvalidDeviceName = errors.New("invalid device name")

// ErrVolumeOutOfRange indicates a volume outside the [0, 1] range.
var ErrVolumeOutOfRange = errors.New("volume out of range")

// ErrModuleRejected indicates the server refused to load a module.
var ErrModuleRejected = errors.New("module load rejected")

// ErrMalformedOutput indicates the control tool produced output that could
// not be decoded.
var ErrMalformedOutput = errors.New("malformed control tool output")

// ErrNotInitialized indicates an operation was called before Initialize
// succeeded.
var ErrNotInitialized = errors.New("link manager not initialized")
