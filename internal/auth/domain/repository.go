package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	UpdateUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindUserByPhone(ctx context.Context, db *gorm.DB, phone string) (*User, error)

	InsertCode(ctx context.Context, db *gorm.DB, code *OtpCode) error
	FindLatestCodeByPhone(ctx context.Context, db *gorm.DB, phone string) (*OtpCode, error)
	MarkCodeConsumed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	PurgeExpiredCodes(ctx context.Context, db *gorm.DB, before time.Time) (int64, error)

	InsertSession(ctx context.Context, db *gorm.DB, session *Session) error
	FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	TouchSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
