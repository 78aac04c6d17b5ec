package server

import (
	"net/http"

	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/gin-gonic/gin"
)

type quotasResponse struct {
	BillingPeriodID string               `json:"billing_period_id"`
	Quotas          quotadomain.QuotaMap `json:"quotas"`
	Persisted       bool                 `json:"persisted"`
}

func (s *Server) GetQuotas(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	entry, err := s.quotaSvc.Get(c.Request.Context(), userID, c.Param("billingPeriodID"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if entry == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, quotasResponse{
		BillingPeriodID: entry.BillingPeriodID,
		Quotas:          entry.Quotas.Data(),
		Persisted:       !entry.Synthetic(),
	})
}

type consumeQuotaRequest struct {
	Quota    string `json:"quota"`
	Quantity int64  `json:"quantity"`
}

func (s *Server) ConsumeQuota(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req consumeQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	// The billing period is always derived server-side from the caller's
	// subscription; clients cannot pick which ledger row is charged.
	allowed, err := s.quotaSvc.Consume(c.Request.Context(), quotadomain.ConsumeRequest{
		OwnerID:  userID,
		Quota:    req.Quota,
		Quantity: req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}
