package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	billingdomain "github.com/closebytel/closeby/internal/billing/domain"
	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	onboardingdomain "github.com/closebytel/closeby/internal/onboarding/domain"
	quotadomain "github.com/closebytel/closeby/internal/quota/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantType   string
	}{
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{authdomain.ErrInvalidSession, http.StatusUnauthorized, "unauthorized"},
		{authdomain.ErrSessionExpired, http.StatusUnauthorized, "unauthorized"},
		{authdomain.ErrSessionRevoked, http.StatusUnauthorized, "unauthorized"},
		{ErrInvalidRequest, http.StatusBadRequest, "validation_error"},
		{authdomain.ErrInvalidPhone, http.StatusBadRequest, "validation_error"},
		{authdomain.ErrInvalidCode, http.StatusBadRequest, "validation_error"},
		{authdomain.ErrCodeExpired, http.StatusBadRequest, "validation_error"},
		{quotadomain.ErrInvalidQuantity, http.StatusBadRequest, "validation_error"},
		{quotadomain.ErrInvalidQuota, http.StatusBadRequest, "validation_error"},
		{feedbackdomain.ErrInvalidFeedback, http.StatusBadRequest, "validation_error"},
		{onboardingdomain.ErrUnknownStep, http.StatusBadRequest, "validation_error"},
		{billingdomain.ErrInvalidPayload, http.StatusBadRequest, "validation_error"},
		{billingdomain.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
		{quotadomain.ErrNoActiveSubscription, http.StatusConflict, "no_active_subscription"},
		{quotadomain.ErrQuotaNotConsumable, http.StatusNotFound, "quota_not_found"},
		{authdomain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{feedbackdomain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{ErrNotFound, http.StatusNotFound, "not_found"},
		{authdomain.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestErrorHandlingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.GET("/fail", func(c *gin.Context) {
		AbortWithError(c, quotadomain.ErrNoActiveSubscription)
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":{"type":"no_active_subscription","message":"no active subscription"}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
