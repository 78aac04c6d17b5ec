package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Onboarding tracks which setup steps a user has completed. One row per
// user; created lazily on first read.
type Onboarding struct {
	ID          snowflake.ID              `gorm:"column:id;primaryKey" json:"id"`
	UserID      snowflake.ID              `gorm:"column:user_id" json:"user_id"`
	Steps       datatypes.JSONType[Steps] `gorm:"column:steps" json:"steps"`
	CompletedAt *time.Time                `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time                 `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at" json:"updated_at"`
}

func (Onboarding) TableName() string {
	return "onboardings"
}

// Steps maps step name to completion.
type Steps map[string]bool

// Known onboarding steps, in display order.
const (
	StepProfile      = "profile"
	StepFirstMessage = "first_message"
	StepSubscription = "subscription"
)

var KnownSteps = []string{StepProfile, StepFirstMessage, StepSubscription}

var ErrUnknownStep = errors.New("unknown_onboarding_step")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, o *Onboarding) error
	Update(ctx context.Context, db *gorm.DB, o *Onboarding) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Onboarding, error)
}

type Service interface {
	// Get returns the user's onboarding row, creating it when absent.
	Get(ctx context.Context, userID snowflake.ID) (*Onboarding, error)
	// CompleteStep marks a step done; completing the last remaining step
	// stamps completed_at.
	CompleteStep(ctx context.Context, userID snowflake.ID, step string) (*Onboarding, error)
	// Reset clears all progress.
	Reset(ctx context.Context, userID snowflake.ID) (*Onboarding, error)
}
