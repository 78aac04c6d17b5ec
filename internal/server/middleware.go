package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/closebytel/closeby/internal/userctx"
	"github.com/gin-gonic/gin"
)

// AuthRequired authenticates the session cookie and threads the user ID
// through the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		session, err := s.authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(userctx.WithUserID(c.Request.Context(), session.UserID))
		c.Next()
	}
}

func (s *Server) currentUserID(c *gin.Context) (snowflake.ID, bool) {
	return userctx.UserIDFromContext(c.Request.Context())
}
