package service

import (
	"errors"
	"fmt"
)

// Mock test service errors. Handlers map these to HTTP statuses.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrSessionNotFound  = errors.New("mock test session not found")
	ErrSessionNotActive = errors.New("mock test session is not active")
	ErrSessionExpired   = errors.New("mock test session has expired")
	ErrGeneration       = errors.New("content generation failed")
	ErrStorage          = errors.New("storage unavailable")
	ErrStartInProgress  = errors.New("mock test start already in progress")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
