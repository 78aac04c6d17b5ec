// Package domain contains the local mirror of billing provider state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer maps an external billing customer identity to a local user.
type Customer struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	UserID     snowflake.ID `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:ux_billing_customers_user"`
	CustomerID string       `json:"customer_id" gorm:"column:customer_id;type:text;not null;uniqueIndex"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "billing_customers" }

// SubscriptionItem is one line item of a mirrored subscription. Period
// bounds are the provider's unix timestamps.
type SubscriptionItem struct {
	PriceID            string            `json:"price_id"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	PriceMetadata      map[string]string `json:"price_metadata"`
}

// SubscriptionStatusActive is the only status that grants quota provisioning.
const SubscriptionStatusActive = "active"

// Subscription mirrors the provider's subscription object for one user.
type Subscription struct {
	ID             snowflake.ID                          `json:"id" gorm:"primaryKey"`
	UserID         snowflake.ID                          `json:"user_id" gorm:"column:user_id;not null;index"`
	CustomerID     string                                `json:"customer_id" gorm:"column:customer_id;type:text;not null;index"`
	SubscriptionID string                                `json:"subscription_id" gorm:"column:subscription_id;type:text;not null;uniqueIndex"`
	Status         string                                `json:"status" gorm:"type:text;not null"`
	Items          datatypes.JSONSlice[SubscriptionItem] `json:"items" gorm:"type:jsonb;not null"`
	CreatedAt      time.Time                             `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time                             `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "billing_subscriptions" }

// Active reports whether the subscription currently grants entitlements.
func (s *Subscription) Active() bool {
	return s != nil && s.Status == SubscriptionStatusActive
}
