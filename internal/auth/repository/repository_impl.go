package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() authdomain.Repository {
	return &repo{}
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, u *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, phone, name, email, developer_enabled, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Phone,
		u.Name,
		u.Email,
		u.DeveloperEnabled,
		u.Metadata,
		u.CreatedAt,
		u.UpdatedAt,
	).Error
}

func (r *repo) UpdateUser(ctx context.Context, db *gorm.DB, u *authdomain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET name = ?, email = ?, developer_enabled = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		u.Name,
		u.Email,
		u.DeveloperEnabled,
		u.Metadata,
		u.UpdatedAt,
		u.ID,
	).Error
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, phone, name, email, developer_enabled, metadata, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindUserByPhone(ctx context.Context, db *gorm.DB, phone string) (*authdomain.User, error) {
	var user authdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, phone, name, email, developer_enabled, metadata, created_at, updated_at
		 FROM users WHERE phone = ?`,
		phone,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) InsertCode(ctx context.Context, db *gorm.DB, code *authdomain.OtpCode) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO otp_codes (id, phone, code_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		code.ID,
		code.Phone,
		code.CodeHash,
		code.ExpiresAt,
		code.CreatedAt,
	).Error
}

func (r *repo) FindLatestCodeByPhone(ctx context.Context, db *gorm.DB, phone string) (*authdomain.OtpCode, error) {
	var code authdomain.OtpCode
	err := db.WithContext(ctx).Raw(
		`SELECT id, phone, code_hash, expires_at, consumed_at, created_at
		 FROM otp_codes WHERE phone = ? AND consumed_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`,
		phone,
	).Scan(&code).Error
	if err != nil {
		return nil, err
	}
	if code.ID == 0 {
		return nil, nil
	}
	return &code, nil
}

func (r *repo) MarkCodeConsumed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE otp_codes SET consumed_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}

func (r *repo) PurgeExpiredCodes(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM otp_codes WHERE expires_at < ?`,
		before,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertSession(ctx context.Context, db *gorm.DB, s *authdomain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (id, user_id, session_token_hash, user_agent, ip_address, expires_at, created_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.UserID,
		s.SessionTokenHash,
		s.UserAgent,
		s.IPAddress,
		s.ExpiresAt,
		s.CreatedAt,
		s.LastSeenAt,
	).Error
}

func (r *repo) FindSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*authdomain.Session, error) {
	var session authdomain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, session_token_hash, user_agent, ip_address, expires_at, revoked_at, created_at, last_seen_at
		 FROM sessions WHERE session_token_hash = ?`,
		tokenHash,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) RevokeSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		at,
		id,
	).Error
}

func (r *repo) TouchSession(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}
