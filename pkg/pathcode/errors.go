package pathcode

import (
	"errors"

	"github.com/kittclouds/primepath/pkg/primes"
)

// Errors
var (
	ErrEmptyPath = errors.New("empty path")
	ErrDecode    = errors.New("decode failed")
)

// Stable error codes for JSON surfaces.
const (
	CodeInvalidArgument       = "INVALID_ARGUMENT"
	CodeNotPrime              = "NOT_PRIME"
	CodeNotFound              = "NOT_FOUND"
	CodeEmptyPath             = "EMPTY_PATH"
	CodeDecodeError           = "DECODE_ERROR"
	CodeResourceLimitExceeded = "RESOURCE_LIMIT_EXCEEDED"
	CodeInternal              = "INTERNAL_ERROR"
)

// ErrorCode maps err onto one of the stable codes. DecodeError wins over
// the registry error it wraps.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return CodeDecodeError
	case errors.Is(err, ErrEmptyPath):
		return CodeEmptyPath
	case errors.Is(err, primes.ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, primes.ErrNotPrime):
		return CodeNotPrime
	case errors.Is(err, primes.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, primes.ErrResourceLimitExceeded):
		return CodeResourceLimitExceeded
	default:
		return CodeInternal
	}
}
