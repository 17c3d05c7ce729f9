package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrRecordMalformed = errors.New("record malformed")
	ErrFeedUnavailable = errors.New("feed unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrSessionExpired  = errors.New("session expired")
	ErrLockHeld        = errors.New("lock held")
	ErrContextDone     = errors.New("context cancelled")
)
