package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	billingrepo "github.com/closebytel/closeby/internal/billing/repository"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type quotaSvcStub struct {
	provisions []quotadomain.ProvisionRequest
}

func (s *quotaSvcStub) Get(ctx context.Context, ownerID snowflake.ID, billingPeriodID string) (*quotadomain.LedgerEntry, error) {
	return nil, nil
}

func (s *quotaSvcStub) Provision(ctx context.Context, req quotadomain.ProvisionRequest) error {
	s.provisions = append(s.provisions, req)
	return nil
}

func (s *quotaSvcStub) Consume(ctx context.Context, req quotadomain.ConsumeRequest) (bool, error) {
	return false, nil
}

type analyticsStub struct {
	events []analyticsdomain.TrackRequest
}

func (s *analyticsStub) Track(ctx context.Context, req analyticsdomain.TrackRequest) {
	s.events = append(s.events, req)
}

func (s *analyticsStub) Flush(ctx context.Context) (int, error) { return 0, nil }

type webhookFixture struct {
	svc       billingdomain.Service
	db        *gorm.DB
	repo      billingdomain.Repository
	quotas    *quotaSvcStub
	analytics *analyticsStub
	node      *snowflake.Node
}

func setupWebhook(t *testing.T, secret string) *webhookFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&billingdomain.Customer{}, &billingdomain.Subscription{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	quotas := &quotaSvcStub{}
	analytics := &analyticsStub{}
	repo := billingrepo.Provide()

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Cfg:       config.Config{StripeWebhookSecret: secret},
		Repo:      repo,
		QuotaSvc:  quotas,
		Analytics: analytics,
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	})

	return &webhookFixture{svc: svc, db: db, repo: repo, quotas: quotas, analytics: analytics, node: node}
}

func (f *webhookFixture) ingest(t *testing.T, payload string) error {
	t.Helper()
	return f.svc.IngestWebhook(context.Background(), []byte(payload), http.Header{})
}

func customerEvent(customerID string, userID snowflake.ID) string {
	return fmt.Sprintf(`{
		"id": "evt_customer",
		"type": "customer.created",
		"data": {"object": {"id": %q, "metadata": {"user_id": %q}}}
	}`, customerID, userID.String())
}

func subscriptionEvent(subID, customerID, status string, start, end int64, metadata string) string {
	return fmt.Sprintf(`{
		"id": "evt_subscription",
		"type": "customer.subscription.updated",
		"data": {"object": {
			"id": %q,
			"customer": %q,
			"status": %q,
			"items": {"data": [{
				"price": {"id": "price_pro", "metadata": %s},
				"current_period_start": %d,
				"current_period_end": %d
			}]}
		}}
	}`, subID, customerID, status, metadata, start, end)
}

func TestIngestCustomerCreatesMapping(t *testing.T) {
	f := setupWebhook(t, "")
	userID := f.node.Generate()

	require.NoError(t, f.ingest(t, customerEvent("cus_42", userID)))

	customer, err := f.repo.FindCustomerByCustomerID(context.Background(), f.db, "cus_42")
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, userID, customer.UserID)
}

func TestIngestCustomerWithoutUserIdentity(t *testing.T) {
	f := setupWebhook(t, "")

	payload := `{"id":"evt_1","type":"customer.created","data":{"object":{"id":"cus_anon","metadata":{}}}}`
	require.NoError(t, f.ingest(t, payload))

	customer, err := f.repo.FindCustomerByCustomerID(context.Background(), f.db, "cus_anon")
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestIngestActiveSubscriptionProvisionsQuotas(t *testing.T) {
	f := setupWebhook(t, "")
	userID := f.node.Generate()
	require.NoError(t, f.ingest(t, customerEvent("cus_42", userID)))

	metadata := `{"messages.limit": "300", "schedules.limit": "20"}`
	require.NoError(t, f.ingest(t, subscriptionEvent("sub_1", "cus_42", "active", 1717200000, 1719792000, metadata)))

	require.Len(t, f.quotas.provisions, 1)
	provision := f.quotas.provisions[0]
	assert.Equal(t, "cus_42", provision.CustomerID)
	assert.Equal(t, "1717200000.1719792000", provision.BillingPeriodID)
	assert.Equal(t, int64(300), provision.Limits["messages"])
	assert.Equal(t, int64(20), provision.Limits["schedules"])

	sub, err := f.repo.FindActiveSubscriptionByUserID(context.Background(), f.db, userID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "sub_1", sub.SubscriptionID)

	require.Len(t, f.analytics.events, 1)
	assert.Equal(t, "subscription.updated", f.analytics.events[0].Name)
}

func TestIngestSubscriptionUnparseableLimitsFallBack(t *testing.T) {
	f := setupWebhook(t, "")
	userID := f.node.Generate()
	require.NoError(t, f.ingest(t, customerEvent("cus_42", userID)))

	metadata := `{"messages.limit": "lots", "schedules.limit": ""}`
	require.NoError(t, f.ingest(t, subscriptionEvent("sub_1", "cus_42", "active", 100, 200, metadata)))

	require.Len(t, f.quotas.provisions, 1)
	assert.Equal(t, int64(0), f.quotas.provisions[0].Limits["messages"])
	assert.Equal(t, int64(0), f.quotas.provisions[0].Limits["schedules"])
}

func TestIngestInactiveSubscriptionMirrorsWithoutProvisioning(t *testing.T) {
	f := setupWebhook(t, "")
	userID := f.node.Generate()
	require.NoError(t, f.ingest(t, customerEvent("cus_42", userID)))

	require.NoError(t, f.ingest(t, subscriptionEvent("sub_1", "cus_42", "past_due", 100, 200, "{}")))

	assert.Empty(t, f.quotas.provisions)

	sub, err := f.repo.FindSubscriptionBySubscriptionID(context.Background(), f.db, "sub_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "past_due", sub.Status)
}

func TestIngestSubscriptionForUnknownCustomer(t *testing.T) {
	f := setupWebhook(t, "")

	require.NoError(t, f.ingest(t, subscriptionEvent("sub_1", "cus_missing", "active", 100, 200, "{}")))
	assert.Empty(t, f.quotas.provisions)
}

func TestIngestIgnoresUnhandledEventTypes(t *testing.T) {
	f := setupWebhook(t, "")

	err := f.ingest(t, `{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)
	assert.ErrorIs(t, err, billingdomain.ErrEventIgnored)
}

func TestIngestRejectsMalformedPayload(t *testing.T) {
	f := setupWebhook(t, "")

	assert.ErrorIs(t, f.ingest(t, "not json"), billingdomain.ErrInvalidPayload)
	assert.ErrorIs(t, f.ingest(t, `{"type":"customer.created"}`), billingdomain.ErrInvalidPayload)
}

func TestIngestEnforcesSignatureWhenConfigured(t *testing.T) {
	f := setupWebhook(t, "whsec_test")
	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{}}}`)

	err := f.svc.IngestWebhook(context.Background(), payload, signatureHeader("whsec_wrong", "1717200000", payload))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidSignature)

	err = f.svc.IngestWebhook(context.Background(), payload, signatureHeader("whsec_test", "1717200000", payload))
	assert.ErrorIs(t, err, billingdomain.ErrEventIgnored)
}
