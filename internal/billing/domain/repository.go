package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	UpsertCustomer(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindCustomerByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Customer, error)
	FindCustomerByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Customer, error)
	UpsertSubscription(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindSubscriptionBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*Subscription, error)
	FindActiveSubscriptionByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
}
