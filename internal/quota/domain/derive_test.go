package domain

import (
	"testing"

	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestDeriveBillingPeriodID(t *testing.T) {
	sub := &billingdomain.Subscription{
		Items: datatypes.NewJSONSlice([]billingdomain.SubscriptionItem{
			{PriceID: "price_a", CurrentPeriodStart: 1717200000, CurrentPeriodEnd: 1719792000},
			{PriceID: "price_b", CurrentPeriodStart: 1, CurrentPeriodEnd: 2},
		}),
	}

	// Only the first line item determines the period.
	assert.Equal(t, "1717200000.1719792000", DeriveBillingPeriodID(sub))

	// Deterministic for equal inputs.
	assert.Equal(t, DeriveBillingPeriodID(sub), DeriveBillingPeriodID(sub))
}

func TestDeriveBillingPeriodIDUndetermined(t *testing.T) {
	assert.Equal(t, "", DeriveBillingPeriodID(nil))
	assert.Equal(t, "", DeriveBillingPeriodID(&billingdomain.Subscription{}))
}
