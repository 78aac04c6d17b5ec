package server

import (
	"errors"
	"io"
	"net/http"

	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/gin-gonic/gin"
)

type subscriptionResponse struct {
	SubscriptionID  string                           `json:"subscription_id"`
	Status          string                           `json:"status"`
	BillingPeriodID string                           `json:"billing_period_id"`
	Items           []billingdomain.SubscriptionItem `json:"items"`
}

func (s *Server) GetSubscription(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	sub, err := s.billingSvc.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, subscriptionResponse{
		SubscriptionID:  sub.SubscriptionID,
		Status:          sub.Status,
		BillingPeriodID: quotadomain.DeriveBillingPeriodID(sub),
		Items:           sub.Items,
	})
}

// Event types we do not act on are still acknowledged so the provider
// stops retrying them.
func (s *Server) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, billingdomain.ErrInvalidPayload)
		return
	}

	err = s.billingSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil && !errors.Is(err, billingdomain.ErrEventIgnored) {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
