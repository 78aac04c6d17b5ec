package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// RequestCode generates and delivers a one-time verification code to
	// the phone number.
	RequestCode(ctx context.Context, req RequestCodeRequest) error
	// VerifyCode checks the code and issues a session, creating the user
	// account on first login.
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)

	GetUser(ctx context.Context, userID snowflake.ID) (*User, error)
	UpdateUser(ctx context.Context, userID snowflake.ID, req UpdateUserRequest) (*User, error)
	SetDeveloperMode(ctx context.Context, userID snowflake.ID, enabled bool) error

	// PurgeExpiredCodes removes stale verification codes; run by the
	// scheduler.
	PurgeExpiredCodes(ctx context.Context) (int64, error)
}

// CodeSender delivers a verification code to a phone number.
type CodeSender interface {
	Send(ctx context.Context, phone, code string) error
}

type RequestCodeRequest struct {
	Phone string
}

type VerifyCodeRequest struct {
	Phone     string
	Code      string
	UserAgent string
	IPAddress string
}

type UpdateUserRequest struct {
	Name *string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	NewUser   bool
}
