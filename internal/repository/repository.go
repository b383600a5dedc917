package repository

import "errors"

// ErrNotFound is returned when a row does not exist. Callers depend on
// telling this apart from transport or driver failures.
var ErrNotFound = errors.New("record not found")
