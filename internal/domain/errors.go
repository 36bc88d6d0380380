package domain

import "errors"

var (
	// ErrNotFound is returned when a game id is absent from every source.
	ErrNotFound = errors.New("game not found")

	// ErrRemoteUnavailable marks a remote catalog failure (error or timeout).
	// The catalog recovers from it locally and never hands it to callers.
	ErrRemoteUnavailable = errors.New("remote catalog unavailable")
)
