package domain

import (
	"fmt"

	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
)

// DeriveBillingPeriodID maps a subscription to the string identity of its
// current billing period. Only the first line item is considered; a
// subscription without items has no determinable period and yields "".
// Two subscriptions with identical period bounds share the identity, so a
// re-subscription within the same cycle reuses the same ledger row.
func DeriveBillingPeriodID(sub *billingdomain.Subscription) string {
	if sub == nil || len(sub.Items) == 0 {
		return ""
	}
	item := sub.Items[0]
	return fmt.Sprintf("%d.%d", item.CurrentPeriodStart, item.CurrentPeriodEnd)
}
