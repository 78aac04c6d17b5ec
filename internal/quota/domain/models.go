// Package domain contains the quota ledger types and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// StateType discriminates the quota variants stored in a ledger entry.
const (
	StateTypeConsumable = "consumable"
	StateTypeFixed      = "fixed"
)

// State is one named quota inside a ledger entry. Consumable quotas carry a
// running counter with invariant 0 <= current <= limit; fixed quotas are an
// informational cap only.
type State struct {
	Type    string `json:"type"`
	Current int64  `json:"current"`
	Limit   int64  `json:"limit"`
}

// QuotaMap maps quota name to its state.
type QuotaMap map[string]State

// LedgerEntry tracks quota usage for one owner within one billing period.
// At most one row exists per (owner, billing period); only Consume mutates
// the counters after creation.
type LedgerEntry struct {
	ID              snowflake.ID                 `json:"id" gorm:"primaryKey"`
	OwnerID         snowflake.ID                 `json:"owner_id" gorm:"column:owner_id;not null;uniqueIndex:ux_quota_ledger_owner_period,priority:1"`
	BillingPeriodID string                       `json:"billing_period_id" gorm:"column:billing_period_id;type:text;not null;uniqueIndex:ux_quota_ledger_owner_period,priority:2"`
	Quotas          datatypes.JSONType[QuotaMap] `json:"quotas" gorm:"type:jsonb;not null"`
	CreatedAt       time.Time                    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time                    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "quota_ledger_entries" }

// Synthetic reports whether the entry was projected for display and is not
// backed by a persisted row. Synthetic entries must never be written back.
func (e *LedgerEntry) Synthetic() bool { return e.ID == 0 }
