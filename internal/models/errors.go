package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthorized      = errors.New("you are not an admin")
	ErrValidation         = errors.New("validation failed")
	ErrEmailExists        = fmt.Errorf("%w: email already exists", ErrValidation)
	ErrUsernameExists     = fmt.Errorf("%w: username already exists", ErrValidation)
	ErrSessionInvalid     = errors.New("session not found or expired")
)

// StoreError marks a failure of the underlying persistence layer.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }
