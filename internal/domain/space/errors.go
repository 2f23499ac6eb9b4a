package space

import "errors"

var (
	// ErrInvalidObservation indicates a present observation without any identity.
	ErrInvalidObservation = errors.New("invalid space observation")
)
