package control

import "errors"

var (
	// ErrInvalidPayload is returned for a message that cannot be decoded.
	ErrInvalidPayload = errors.New("control: invalid payload")

	// ErrAlreadyStarted is returned by Start on a running surface.
	ErrAlreadyStarted = errors.New("control: already started")
)
