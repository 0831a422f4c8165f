// ABOUTME: Engine error taxonomy
// ABOUTME: Sentinel errors matched with errors.Is by hosts and the bridge
package engine

import "errors"

var (
	// ErrNotCached is returned when a session is requested for an asset that is not preloaded
	ErrNotCached = errors.New("asset not cached")

	// ErrDecodeUnavailable is returned once the decode capability has been lost
	ErrDecodeUnavailable = errors.New("decode capability unavailable")

	// ErrStorageRead wraps failures reading encoded bytes from storage
	ErrStorageRead = errors.New("storage read failure")

	// ErrDecodeFailure wraps failures decoding an asset
	ErrDecodeFailure = errors.New("decode failure")

	// ErrUnsupported is returned for operations a live session cannot perform
	ErrUnsupported = errors.New("operation not supported")

	// ErrInvalidSessionID marks lookups of unknown sessions. It is only ever
	// logged, routed operations treat unknown ids as no-ops.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrInvalidOffset is returned when seeking outside a buffer
	ErrInvalidOffset = errors.New("invalid playback offset")

	// ErrClosed is returned by operations on a closed engine
	ErrClosed = errors.New("engine closed")
)
