package auth

import "errors"

var (
	// ErrUnauthorized is returned when a request carries no usable bearer credential.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrInvalidToken wraps every JWT rejection: bad signature, unknown role or expiry.
	ErrInvalidToken = errors.New("auth: invalid token")
)
