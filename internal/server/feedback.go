package server

import (
	"net/http"

	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) SendFeedback(c *gin.Context) {
	userID, ok := s.currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req feedbackdomain.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	row, err := s.feedbackSvc.Send(c.Request.Context(), userID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": row.ID.String()})
}
