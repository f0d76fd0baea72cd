package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnavailable          = errors.New("device unavailable")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrSessionExpired       = errors.New("session expired")
	ErrRejected             = errors.New("request rejected")
	ErrLockedOut            = errors.New("login locked out")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

// RejectedError is a well-formed failure answer from the device.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return ErrRejected.Error()
	}
	return ErrRejected.Error() + ": " + e.Message
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// LoginRejectedError is a refused login that did not lock the account.
type LoginRejectedError struct {
	RemainingAttempts int
	Message           string
}

func (e *LoginRejectedError) Error() string {
	return fmt.Sprintf("login rejected, %d attempts left", e.RemainingAttempts)
}

func (e *LoginRejectedError) Is(target error) bool { return target == ErrRejected }

// LockoutError blocks login attempts until Remaining has elapsed.
type LockoutError struct {
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrLockedOut, e.Remaining.Round(time.Second))
}

func (e *LockoutError) Is(target error) bool { return target == ErrLockedOut }

// Minutes is the remaining wait rounded up to whole minutes.
func (e *LockoutError) Minutes() int {
	m := int(e.Remaining / time.Minute)
	if e.Remaining%time.Minute > 0 {
		m++
	}
	return m
}
