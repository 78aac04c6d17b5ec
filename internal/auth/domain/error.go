package domain

import "errors"

var (
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrInvalidCode    = errors.New("invalid verification code")
	ErrCodeExpired    = errors.New("verification code expired")
	ErrRateLimited    = errors.New("rate limited")
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionExpired = errors.New("session expired")
	ErrSessionRevoked = errors.New("session revoked")
	ErrInvalidSession = errors.New("invalid session")
)
