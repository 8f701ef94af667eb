package primes

import "errors"

// Errors shared by the registry and the packages layered on top of it.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotPrime              = errors.New("not prime")
	ErrNotFound              = errors.New("not found")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
)
