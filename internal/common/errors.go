package common

import "errors"

var (
	// Auth errors shared by the device API and its simulator.
	ErrInvalidToken  = errors.New("invalid token")
	ErrWrongPassword = errors.New("wrong password")
	ErrLockedOut     = errors.New("locked out")

	// Timer state errors reported by the device.
	ErrInvalidTransition = errors.New("invalid timer transition")
)
