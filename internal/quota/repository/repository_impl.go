package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() quotadomain.Repository {
	return &repo{}
}

const selectColumns = `id, owner_id, billing_period_id, quotas, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, e *quotadomain.LedgerEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO quota_ledger_entries (id, owner_id, billing_period_id, quotas, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.OwnerID,
		e.BillingPeriodID,
		e.Quotas,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repo) UpdateQuotas(ctx context.Context, db *gorm.DB, e *quotadomain.LedgerEntry) error {
	return db.WithContext(ctx).Exec(
		`UPDATE quota_ledger_entries SET quotas = ?, updated_at = ? WHERE id = ?`,
		e.Quotas,
		e.UpdatedAt,
		e.ID,
	).Error
}

func (r *repo) FindByOwnerAndPeriod(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, billingPeriodID string) (*quotadomain.LedgerEntry, error) {
	return r.find(ctx, db, ownerID, billingPeriodID, false)
}

func (r *repo) FindByOwnerAndPeriodForUpdate(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, billingPeriodID string) (*quotadomain.LedgerEntry, error) {
	return r.find(ctx, db, ownerID, billingPeriodID, true)
}

func (r *repo) find(ctx context.Context, db *gorm.DB, ownerID snowflake.ID, billingPeriodID string, forUpdate bool) (*quotadomain.LedgerEntry, error) {
	query := `SELECT ` + selectColumns + `
		 FROM quota_ledger_entries WHERE owner_id = ? AND billing_period_id = ?`
	if forUpdate {
		query += lockClause(db)
	}

	var entry quotadomain.LedgerEntry
	err := db.WithContext(ctx).Raw(query, ownerID, billingPeriodID).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, ownerID snowflake.ID) ([]quotadomain.LedgerEntry, error) {
	var entries []quotadomain.LedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+`
		 FROM quota_ledger_entries WHERE owner_id = ? ORDER BY created_at ASC`,
		ownerID,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// sqlite has no row locks; its single writer serializes transactions anyway.
func lockClause(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return " FOR UPDATE"
	default:
		return ""
	}
}
