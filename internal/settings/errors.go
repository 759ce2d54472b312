package settings

import "errors"

var (
	// ErrNotFound is returned by Load when no settings have been stored.
	ErrNotFound = errors.New("settings: not found")

	// ErrInvalidLimit is returned by History for a non-positive limit.
	ErrInvalidLimit = errors.New("settings: invalid history limit")
)
