package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) UpsertCustomer(ctx context.Context, db *gorm.DB, c *billingdomain.Customer) error {
	existing, err := r.FindCustomerByCustomerID(ctx, db, c.CustomerID)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.WithContext(ctx).Exec(
			`INSERT INTO billing_customers (id, user_id, customer_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			c.ID,
			c.UserID,
			c.CustomerID,
			c.CreatedAt,
			c.UpdatedAt,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE billing_customers SET user_id = ?, updated_at = ? WHERE customer_id = ?`,
		c.UserID,
		c.UpdatedAt,
		c.CustomerID,
	).Error
}

func (r *repo) FindCustomerByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*billingdomain.Customer, error) {
	var customer billingdomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, customer_id, created_at, updated_at
		 FROM billing_customers WHERE customer_id = ?`,
		customerID,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) FindCustomerByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*billingdomain.Customer, error) {
	var customer billingdomain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, customer_id, created_at, updated_at
		 FROM billing_customers WHERE user_id = ?`,
		userID,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) UpsertSubscription(ctx context.Context, db *gorm.DB, s *billingdomain.Subscription) error {
	existing, err := r.FindSubscriptionBySubscriptionID(ctx, db, s.SubscriptionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.WithContext(ctx).Exec(
			`INSERT INTO billing_subscriptions (id, user_id, customer_id, subscription_id, status, items, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID,
			s.UserID,
			s.CustomerID,
			s.SubscriptionID,
			s.Status,
			s.Items,
			s.CreatedAt,
			s.UpdatedAt,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE billing_subscriptions SET status = ?, items = ?, updated_at = ? WHERE subscription_id = ?`,
		s.Status,
		s.Items,
		s.UpdatedAt,
		s.SubscriptionID,
	).Error
}

func (r *repo) FindSubscriptionBySubscriptionID(ctx context.Context, db *gorm.DB, subscriptionID string) (*billingdomain.Subscription, error) {
	var sub billingdomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, customer_id, subscription_id, status, items, created_at, updated_at
		 FROM billing_subscriptions WHERE subscription_id = ?`,
		subscriptionID,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) FindActiveSubscriptionByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*billingdomain.Subscription, error) {
	var sub billingdomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, customer_id, subscription_id, status, items, created_at, updated_at
		 FROM billing_subscriptions WHERE user_id = ? AND status = ?
		 ORDER BY updated_at DESC LIMIT 1`,
		userID,
		billingdomain.SubscriptionStatusActive,
	).Scan(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}
