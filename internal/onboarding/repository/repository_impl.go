package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	onboardingdomain "github.com/closebytel/closeby/internal/onboarding/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() onboardingdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, o *onboardingdomain.Onboarding) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO onboardings (id, user_id, steps, completed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.UserID,
		o.Steps,
		o.CompletedAt,
		o.CreatedAt,
		o.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, o *onboardingdomain.Onboarding) error {
	return db.WithContext(ctx).Exec(
		`UPDATE onboardings SET steps = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		o.Steps,
		o.CompletedAt,
		o.UpdatedAt,
		o.ID,
	).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*onboardingdomain.Onboarding, error) {
	var row onboardingdomain.Onboarding
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, steps, completed_at, created_at, updated_at
		 FROM onboardings WHERE user_id = ?`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}
