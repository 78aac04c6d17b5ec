package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/closebytel/closeby/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        quotadomain.Repository
	BillingRepo billingdomain.Repository
	Quotas      *config.QuotasConfigHolder
	Clock       clock.Clock
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        quotadomain.Repository
	billingRepo billingdomain.Repository
	quotas      *config.QuotasConfigHolder
	clock       clock.Clock
}

func New(p Params) quotadomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("quota.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		billingRepo: p.BillingRepo,
		quotas:      p.Quotas,
		clock:       p.Clock,
	}
}

func (s *Service) Get(ctx context.Context, ownerID snowflake.ID, billingPeriodID string) (*quotadomain.LedgerEntry, error) {
	if ownerID == 0 {
		return nil, nil
	}

	entry, err := s.repo.FindByOwnerAndPeriod(ctx, s.db, ownerID, billingPeriodID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	sub, err := s.billingRepo.FindActiveSubscriptionByUserID(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}

	periodID := billingPeriodID
	if sub.Active() && len(sub.Items) > 0 {
		if derived := quotadomain.DeriveBillingPeriodID(sub); derived != "" {
			periodID = derived
		}
	}

	return s.synthesize(ownerID, periodID), nil
}

func (s *Service) Provision(ctx context.Context, req quotadomain.ProvisionRequest) error {
	customerID := strings.TrimSpace(req.CustomerID)
	billingPeriodID := strings.TrimSpace(req.BillingPeriodID)
	if customerID == "" || billingPeriodID == "" {
		s.log.Warn("provision skipped: missing identity",
			zap.String("customer_id", customerID),
			zap.String("billing_period_id", billingPeriodID),
		)
		return nil
	}

	customer, err := s.billingRepo.FindCustomerByCustomerID(ctx, s.db, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		// The billing provider re-sends the event; dropping it is safe.
		s.log.Warn("provision skipped: unknown customer", zap.String("customer_id", customerID))
		return nil
	}

	existing, err := s.repo.FindByOwnerAndPeriod(ctx, s.db, customer.UserID, billingPeriodID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	entry := s.newEntry(customer.UserID, billingPeriodID)
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	s.log.Info("ledger entry provisioned",
		zap.String("owner_id", customer.UserID.String()),
		zap.String("billing_period_id", billingPeriodID),
	)
	return nil
}

func (s *Service) Consume(ctx context.Context, req quotadomain.ConsumeRequest) (bool, error) {
	if req.Quantity < 0 {
		return false, quotadomain.ErrInvalidQuantity
	}
	name := strings.TrimSpace(req.Quota)
	if name == "" {
		return false, quotadomain.ErrInvalidQuota
	}

	// Consumption always requires an active subscription; a caller-supplied
	// period only overrides which ledger row is charged, never the check.
	sub, err := s.billingRepo.FindActiveSubscriptionByUserID(ctx, s.db, req.OwnerID)
	if err != nil {
		return false, err
	}
	if !sub.Active() {
		return false, quotadomain.ErrNoActiveSubscription
	}

	periodID := strings.TrimSpace(req.BillingPeriodID)
	if periodID == "" {
		periodID = quotadomain.DeriveBillingPeriodID(sub)
		if periodID == "" {
			return false, quotadomain.ErrNoActiveSubscription
		}
	}

	allowed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.lockOrCreate(ctx, tx, req.OwnerID, periodID)
		if err != nil {
			return err
		}

		quotas := entry.Quotas.Data()
		state, ok := quotas[name]
		if !ok || state.Type != quotadomain.StateTypeConsumable {
			return quotadomain.ErrQuotaNotConsumable
		}

		if state.Current == state.Limit || state.Current+req.Quantity > state.Limit {
			return nil
		}

		state.Current += req.Quantity
		quotas[name] = state
		entry.Quotas = datatypes.NewJSONType(quotas)
		entry.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateQuotas(ctx, tx, entry); err != nil {
			return err
		}

		allowed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// lockOrCreate loads the ledger row under lock, lazily inserting the
// default-seeded row on first consumption within a period.
func (s *Service) lockOrCreate(ctx context.Context, tx *gorm.DB, ownerID snowflake.ID, periodID string) (*quotadomain.LedgerEntry, error) {
	entry, err := s.repo.FindByOwnerAndPeriodForUpdate(ctx, tx, ownerID, periodID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	entry = s.newEntry(ownerID, periodID)
	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByOwnerAndPeriodForUpdate(ctx, tx, ownerID, periodID)
		}
		return nil, err
	}
	return entry, nil
}

func (s *Service) newEntry(ownerID snowflake.ID, periodID string) *quotadomain.LedgerEntry {
	now := s.clock.Now()
	return &quotadomain.LedgerEntry{
		ID:              s.genID.Generate(),
		OwnerID:         ownerID,
		BillingPeriodID: periodID,
		Quotas:          datatypes.NewJSONType(s.defaultQuotas()),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// synthesize builds a display-only entry; the zero ID marks it as not
// backed by a persisted row.
func (s *Service) synthesize(ownerID snowflake.ID, periodID string) *quotadomain.LedgerEntry {
	now := s.clock.Now()
	return &quotadomain.LedgerEntry{
		ID:              0,
		OwnerID:         ownerID,
		BillingPeriodID: periodID,
		Quotas:          datatypes.NewJSONType(s.defaultQuotas()),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *Service) defaultQuotas() quotadomain.QuotaMap {
	defaults := s.quotas.Current().Defaults
	out := make(quotadomain.QuotaMap, len(defaults))
	for name, def := range defaults {
		state := quotadomain.State{Type: def.Type, Limit: def.Limit}
		out[name] = state
	}
	return out
}
