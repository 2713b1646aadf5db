package app

import "errors"

// ErrNotFound is returned when an entry id has no match in the catalog.
var ErrNotFound = errors.New("entry not found")

// ValidationError rejects a draft locally. It never reaches the network.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
