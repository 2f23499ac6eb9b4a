package registry

import "errors"

var (
	// ErrPersistence indicates registry state could not be written to the store.
	ErrPersistence = errors.New("registry persistence failed")
)
