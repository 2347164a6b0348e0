package service

import "errors"

var (
	// ErrForbidden is returned when the admin secret does not match.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned for empty keys, empty machine ids and
	// non-positive activation ceilings.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned for missing or bad admin session tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
