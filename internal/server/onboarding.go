package server

import (
	"net/http"
	"time"

	onboardingdomain "github.com/closebytel/closeby/internal/onboarding/domain"
	"github.com/gin-gonic/gin"
)

type onboardingResponse struct {
	Steps       onboardingdomain.Steps `json:"steps"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

func toOnboardingResponse(o *onboardingdomain.Onboarding) onboardingResponse {
	return onboardingResponse{
		Steps:       o.Steps.Data(),
		CompletedAt: o.CompletedAt,
	}
}

func (s *Server) GetOnboarding(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	row, err := s.onboardingSvc.Get(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOnboardingResponse(row))
}

func (s *Server) CompleteOnboardingStep(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	row, err := s.onboardingSvc.CompleteStep(c.Request.Context(), userID, c.Param("step"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOnboardingResponse(row))
}

func (s *Server) ResetOnboarding(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	row, err := s.onboardingSvc.Reset(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOnboardingResponse(row))
}
