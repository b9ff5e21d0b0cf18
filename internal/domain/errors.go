package domain

import "errors"

var (
	// ErrWindowNotFound means no window of the target application could be found.
	ErrWindowNotFound = errors.New("window not found")

	// ErrInvalidHandle means the window handle is no longer valid (1400).
	// Callers re-resolve the window once and retry the failed operation.
	ErrInvalidHandle = errors.New("invalid window handle")

	// ErrActionVerificationFailed means the OS accepted a command but the
	// post-condition check did not hold.
	ErrActionVerificationFailed = errors.New("action verification failed")

	// ErrTemplateNotFound means no template file exists for the target at any
	// available resolution. This is a configuration gap, not a transient error.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrScreenshotFailed means the desktop could not be captured.
	ErrScreenshotFailed = errors.New("screenshot failed")

	// ErrNoMatch means the best match scored below the acceptance threshold.
	ErrNoMatch = errors.New("no match")

	// ErrLocateFailed means every tracked target failed to locate.
	ErrLocateFailed = errors.New("locate failed")

	// ErrUnsupported is returned by OS primitives on platforms other than Windows.
	ErrUnsupported = errors.New("not supported on this platform")
)
