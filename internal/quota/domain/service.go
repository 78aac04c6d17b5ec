package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Get returns the persisted ledger entry for (owner, billing period), or
	// a synthesized default-valued entry when none exists. It never writes.
	// An unauthenticated owner (zero ID) yields (nil, nil).
	Get(ctx context.Context, ownerID snowflake.ID, billingPeriodID string) (*LedgerEntry, error)

	// Provision idempotently creates the ledger entry for the billing
	// period, resolving the external customer identity to an owner. An
	// unresolvable customer is a silent no-op; the billing provider will
	// re-send the event.
	Provision(ctx context.Context, req ProvisionRequest) error

	// Consume deducts quantity from a consumable quota. It returns false
	// without error when the quota is exhausted, so callers can present a
	// "limit reached" result without exception handling.
	Consume(ctx context.Context, req ConsumeRequest) (bool, error)
}

type ProvisionRequest struct {
	CustomerID      string
	BillingPeriodID string
	// Limits carries per-quota limit overrides from the plan's price
	// metadata. They are accepted but not applied to the inserted row,
	// which is seeded with system defaults. See DESIGN.md.
	Limits map[string]int64
}

type ConsumeRequest struct {
	OwnerID  snowflake.ID
	Quota    string
	Quantity int64
	// BillingPeriodID may be empty, in which case it is derived from the
	// owner's active subscription.
	BillingPeriodID string
}

var (
	ErrNoActiveSubscription = errors.New("no_active_subscription")
	ErrQuotaNotConsumable   = errors.New("quota_not_found_or_not_consumable")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrInvalidQuota         = errors.New("invalid_quota")
)
