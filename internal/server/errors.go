package server

import (
	"errors"
	"net/http"

	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	onboardingdomain "github.com/closebytel/closeby/internal/onboarding/domain"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidPhone),
		errors.Is(err, authdomain.ErrInvalidCode),
		errors.Is(err, authdomain.ErrCodeExpired),
		errors.Is(err, quotadomain.ErrInvalidQuantity),
		errors.Is(err, quotadomain.ErrInvalidQuota),
		errors.Is(err, feedbackdomain.ErrInvalidFeedback),
		errors.Is(err, onboardingdomain.ErrUnknownStep),
		errors.Is(err, billingdomain.ErrInvalidPayload):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, billingdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_signature",
			Message: "webhook signature verification failed",
		}

	case errors.Is(err, quotadomain.ErrNoActiveSubscription):
		return http.StatusConflict, errorPayload{
			Type:    "no_active_subscription",
			Message: "no active subscription",
		}

	case errors.Is(err, quotadomain.ErrQuotaNotConsumable):
		return http.StatusNotFound, errorPayload{
			Type:    "quota_not_found",
			Message: "quota not found or not consumable",
		}

	case errors.Is(err, authdomain.ErrRateLimited),
		errors.Is(err, feedbackdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}

	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
