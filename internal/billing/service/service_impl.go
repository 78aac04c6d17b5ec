package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quota limits travel on the plan's price metadata under these keys.
const (
	metadataMessagesLimit  = "messages.limit"
	metadataSchedulesLimit = "schedules.limit"
	defaultLimit           = 0
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Repo      billingdomain.Repository
	QuotaSvc  quotadomain.Service
	Analytics analyticsdomain.Service
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	verifier  *WebhookVerifier
	repo      billingdomain.Repository
	quotaSvc  quotadomain.Service
	analytics analyticsdomain.Service
	clock     clock.Clock
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("billing.service"),
		genID:     p.GenID,
		verifier:  NewWebhookVerifier(p.Cfg.StripeWebhookSecret),
		repo:      p.Repo,
		quotaSvc:  p.QuotaSvc,
		analytics: p.Analytics,
		clock:     p.Clock,
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCustomer struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
	Items    struct {
		Data []struct {
			Price struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"price"`
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := s.verifier.Verify(payload, headers); err != nil {
		return err
	}

	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return billingdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return billingdomain.ErrInvalidPayload
	}

	switch strings.TrimSpace(event.Type) {
	case "customer.created", "customer.updated":
		return s.handleCustomer(ctx, event.Data.Object)
	case "customer.subscription.created", "customer.subscription.updated":
		return s.handleSubscription(ctx, event.Data.Object)
	default:
		return billingdomain.ErrEventIgnored
	}
}

func (s *Service) GetSubscription(ctx context.Context, userID snowflake.ID) (*billingdomain.Subscription, error) {
	customer, err := s.repo.FindCustomerByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, nil
	}
	return s.repo.FindActiveSubscriptionByUserID(ctx, s.db, userID)
}

func (s *Service) handleCustomer(ctx context.Context, object json.RawMessage) error {
	var customer stripeCustomer
	if err := json.Unmarshal(object, &customer); err != nil {
		return billingdomain.ErrInvalidPayload
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(customer.Metadata["user_id"]))
	if err != nil || userID == 0 {
		s.log.Warn("customer event without user identity", zap.String("customer_id", customer.ID))
		return nil
	}

	now := s.clock.Now()
	return s.repo.UpsertCustomer(ctx, s.db, &billingdomain.Customer{
		ID:         s.genID.Generate(),
		UserID:     userID,
		CustomerID: customer.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *Service) handleSubscription(ctx context.Context, object json.RawMessage) error {
	var raw stripeSubscription
	if err := json.Unmarshal(object, &raw); err != nil {
		return billingdomain.ErrInvalidPayload
	}

	customer, err := s.repo.FindCustomerByCustomerID(ctx, s.db, raw.Customer)
	if err != nil {
		return err
	}
	if customer == nil {
		// The provider retries undeliverable events; drop it.
		s.log.Warn("subscription event for unknown customer", zap.String("customer_id", raw.Customer))
		return nil
	}

	items := make([]billingdomain.SubscriptionItem, 0, len(raw.Items.Data))
	for _, item := range raw.Items.Data {
		items = append(items, billingdomain.SubscriptionItem{
			PriceID:            item.Price.ID,
			CurrentPeriodStart: item.CurrentPeriodStart,
			CurrentPeriodEnd:   item.CurrentPeriodEnd,
			PriceMetadata:      item.Price.Metadata,
		})
	}

	now := s.clock.Now()
	sub := &billingdomain.Subscription{
		ID:             s.genID.Generate(),
		UserID:         customer.UserID,
		CustomerID:     raw.Customer,
		SubscriptionID: raw.ID,
		Status:         strings.TrimSpace(raw.Status),
		Items:          datatypes.NewJSONSlice(items),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.UpsertSubscription(ctx, s.db, sub); err != nil {
		return err
	}

	if !sub.Active() || len(items) == 0 {
		return nil
	}

	billingPeriodID := quotadomain.DeriveBillingPeriodID(sub)
	if billingPeriodID == "" {
		return nil
	}

	messagesLimit := safeParseInt(items[0].PriceMetadata[metadataMessagesLimit], defaultLimit)
	schedulesLimit := safeParseInt(items[0].PriceMetadata[metadataSchedulesLimit], defaultLimit)

	err = s.quotaSvc.Provision(ctx, quotadomain.ProvisionRequest{
		CustomerID:      raw.Customer,
		BillingPeriodID: billingPeriodID,
		Limits: map[string]int64{
			"messages":  messagesLimit,
			"schedules": schedulesLimit,
		},
	})
	if err != nil {
		return err
	}

	s.analytics.Track(ctx, analyticsdomain.TrackRequest{
		Name:       "subscription.updated",
		DistinctID: customer.UserID.String(),
		Properties: map[string]any{
			"customer_id":       raw.Customer,
			"billing_period_id": billingPeriodID,
			"messages_limit":    messagesLimit,
			"schedules_limit":   schedulesLimit,
		},
	})

	return nil
}

func safeParseInt(value string, def int64) int64 {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
