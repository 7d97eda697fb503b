package repository

import "errors"

// ErrNotFound is returned when a referenced entity does not exist within the
// caller's organization scope.
var ErrNotFound = errors.New("not found")
