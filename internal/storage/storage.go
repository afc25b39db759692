package storage

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrEmailNotFound   = errors.New("email not found")
	ErrSessionNotFound = errors.New("session not found or revoked")
	ErrCodeInvalid     = errors.New("verification code invalid or expired")
)
