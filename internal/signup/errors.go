package signup

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input: bad encoding, too few fields,
	// invalid email syntax, non-numeric expiry.
	ErrValidation = errors.New("validation failed")

	// ErrBadSignature marks a token whose signature did not verify. A
	// structurally malformed token is deliberately indistinguishable.
	ErrBadSignature = errors.New("invalid signature")

	// ErrExpired marks a token whose nonzero expiry is in the past.
	ErrExpired = errors.New("link expired")
)

// ThrottledError is returned when an IP exceeds the signup rate limit.
type ThrottledError struct {
	RetryAfter int64 // seconds until the next request would be allowed
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("throttled, try again in %d seconds", e.RetryAfter)
}
