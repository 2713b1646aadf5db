package remote

import "errors"

// ErrInFlight is returned by List when another list call is already
// outstanding. The caller relies on the in-flight call's eventual result.
var ErrInFlight = errors.New("list already in flight")

// LoadError reports a failed list operation after all retries.
type LoadError struct {
	Message string
}

func (e *LoadError) Error() string { return e.Message }

// SaveError reports a failed save operation. Saves are never retried.
type SaveError struct {
	Message string
}

func (e *SaveError) Error() string { return e.Message }

// DeleteError reports a failed delete operation. Deletes are never retried.
type DeleteError struct {
	Message string
}

func (e *DeleteError) Error() string { return e.Message }
