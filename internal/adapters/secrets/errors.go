package secrets

import "errors"

// Sentinel kinds for secret lookups.
var (
	ErrMissing    = errors.New("secret not configured")
	ErrUnreadable = errors.New("secrets store unreadable")
)
