package admin

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLocked             = errors.New("account locked")
	ErrNotFound           = errors.New("admin not found")
	ErrInvalidToken       = errors.New("invalid token")
)

// LockedError carries how long the account stays locked.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string { return ErrLocked.Error() }

func (e *LockedError) Is(target error) bool { return target == ErrLocked }
