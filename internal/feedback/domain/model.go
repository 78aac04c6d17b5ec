package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Feedback struct {
	ID             snowflake.ID                `gorm:"column:id;primaryKey" json:"id"`
	UserID         snowflake.ID                `gorm:"column:user_id" json:"user_id"`
	Email          *string                     `gorm:"column:email" json:"email,omitempty"`
	Title          string                      `gorm:"column:title" json:"title"`
	Content        string                      `gorm:"column:content" json:"content"`
	Tag            string                      `gorm:"column:tag" json:"tag"`
	URLs           datatypes.JSONSlice[string] `gorm:"column:urls" json:"urls"`
	AttachmentURLs datatypes.JSONSlice[string] `gorm:"column:attachment_urls" json:"attachment_urls"`
	CreatedAt      time.Time                   `gorm:"column:created_at" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}

const (
	TagBug     = "bug"
	TagFeature = "feature"
	TagRating  = "rating"
	TagOther   = "other"
)

const (
	MaxTitleLen       = 128
	MaxContentLen     = 2048
	MaxURLs           = 4
	MaxAttachmentURLs = 8
)

var (
	ErrInvalidFeedback = errors.New("invalid_feedback")
	ErrRateLimited     = errors.New("feedback_rate_limited")
)

type SendRequest struct {
	Email          *string  `json:"email,omitempty"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Tag            string   `json:"tag"`
	URLs           []string `json:"urls,omitempty"`
	AttachmentURLs []string `json:"attachment_urls,omitempty"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, f *Feedback) error
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) ([]Feedback, error)
}

type Service interface {
	// Send validates and stores one feedback item. Rate limited per user.
	Send(ctx context.Context, userID snowflake.ID, req SendRequest) (*Feedback, error)
}
