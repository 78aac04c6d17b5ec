package server

import (
	"net/http"
	"time"

	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"github.com/gin-gonic/gin"
)

type requestCodeRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) RequestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	err := s.authSvc.RequestCode(c.Request.Context(), authdomain.RequestCodeRequest{
		Phone: req.Phone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

type verifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type userResponse struct {
	ID               string    `json:"id"`
	Phone            string    `json:"phone"`
	Name             *string   `json:"name,omitempty"`
	Email            *string   `json:"email,omitempty"`
	DeveloperEnabled bool      `json:"developer_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

func toUserResponse(u *authdomain.User) userResponse {
	return userResponse{
		ID:               u.ID.String(),
		Phone:            u.Phone,
		Name:             u.Name,
		Email:            u.Email,
		DeveloperEnabled: u.DeveloperEnabled,
		CreatedAt:        u.CreatedAt,
	}
}

func (s *Server) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.authSvc.VerifyCode(c.Request.Context(), authdomain.VerifyCodeRequest{
		Phone:     req.Phone,
		Code:      req.Code,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"user":     toUserResponse(result.User),
		"new_user": result.NewUser,
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authSvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Self(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authSvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type updateSelfRequest struct {
	Name *string `json:"name"`
}

func (s *Server) UpdateSelf(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateSelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authSvc.UpdateUser(c.Request.Context(), userID, authdomain.UpdateUserRequest{
		Name: req.Name,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

type setDeveloperModeRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) SetDeveloperMode(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req setDeveloperModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.authSvc.SetDeveloperMode(c.Request.Context(), userID, req.Enabled); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": req.Enabled})
}
