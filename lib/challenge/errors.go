package challenge

import "errors"

var (
	// ErrMalformedField is returned when a decoded field violates its
	// fixed-size or length constraints.
	ErrMalformedField = errors.New("challenge: malformed field")

	// ErrInvalidWindow is returned when a challenge's creation time is not
	// strictly before its expiration time.
	ErrInvalidWindow = errors.New("challenge: created_time must be before expiration_time")

	// ErrExpired is returned when a challenge's expiration time has passed.
	ErrExpired = errors.New("challenge: expired")
)
