package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() feedbackdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, f *feedbackdomain.Feedback) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO feedbacks (id, user_id, email, title, content, tag, urls, attachment_urls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID,
		f.UserID,
		f.Email,
		f.Title,
		f.Content,
		f.Tag,
		f.URLs,
		f.AttachmentURLs,
		f.CreatedAt,
	).Error
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]feedbackdomain.Feedback, error) {
	var rows []feedbackdomain.Feedback
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, email, title, content, tag, urls, attachment_urls, created_at
		 FROM feedbacks WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
