package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
	UpdateQuotas(ctx context.Context, db *gorm.DB, entry *LedgerEntry) error
	FindByOwnerAndPeriod(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, billingPeriodID string) (*LedgerEntry, error)
	// FindByOwnerAndPeriodForUpdate locks the row for the duration of the
	// surrounding transaction on engines that support row locks.
	FindByOwnerAndPeriodForUpdate(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, billingPeriodID string) (*LedgerEntry, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]LedgerEntry, error)
}
