// Package domain contains the analytics event outbox types.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event is one analytics event awaiting delivery to the sink.
type Event struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	Name        string            `json:"name" gorm:"type:text;not null"`
	DistinctID  string            `json:"distinct_id" gorm:"column:distinct_id;type:text;not null"`
	Properties  datatypes.JSONMap `json:"properties" gorm:"type:jsonb;not null;default:'{}'"`
	DeliveredAt *time.Time        `json:"delivered_at" gorm:"column:delivered_at"`
	CreatedAt   time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "analytics_events" }

type TrackRequest struct {
	Name       string
	DistinctID string
	Properties map[string]any
}

// Service is a fire-and-forget event pipeline: Track never returns an
// error to the caller.
type Service interface {
	Track(ctx context.Context, req TrackRequest)
	// Flush delivers pending events to the configured sink and returns how
	// many were delivered.
	Flush(ctx context.Context) (int, error)
}
