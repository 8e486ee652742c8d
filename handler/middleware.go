package handler

import (
	"net/http"
	"strings"

	"audio-recorder/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const callerKey = "caller"

// AuthRequired verifies the bearer credential and stores the caller's
// claims on the request context. Every recording operation requires it.
func AuthRequired(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == "" || raw == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("request authentication failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(callerKey, claims)
		c.Next()
	}
}

func callerID(c *gin.Context) uuid.UUID {
	claims, ok := c.Get(callerKey)
	if !ok {
		return uuid.Nil
	}
	return claims.(*token.Claims).UserID
}

// RequestLogger attaches the process logger to each request context so
// zerolog.Ctx works downstream.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
