package service

import "errors"

var (
	// ErrMissingUserID means a checkout event arrived without the internal
	// user identifier in its metadata. Client/configuration error, 400.
	ErrMissingUserID = errors.New("missing userId in checkout session metadata")

	// ErrUserNotFound means the event named a user this system does not
	// know. 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidHours rejects non-positive hour amounts on manual ledger
	// operations.
	ErrInvalidHours = errors.New("hours must be greater than zero")
)
