// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// User represents an account reachable over WhatsApp/SMS.
type User struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	Phone            string            `gorm:"type:text;not null;uniqueIndex"`
	Name             *string           `gorm:"type:text"`
	Email            *string           `gorm:"type:text"`
	DeveloperEnabled bool              `gorm:"column:developer_enabled;not null;default:false"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// OtpCode is a single-use verification code sent to a phone number.
// Only the bcrypt hash of the code is stored.
type OtpCode struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Phone      string       `gorm:"type:text;not null;index"`
	CodeHash   string       `gorm:"column:code_hash;type:text;not null"`
	ExpiresAt  time.Time    `gorm:"column:expires_at;not null;index"`
	ConsumedAt *time.Time   `gorm:"column:consumed_at"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OtpCode) TableName() string { return "otp_codes" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
