package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reqforge/reqforge-api/internal/auth"
	"github.com/reqforge/reqforge-api/internal/constants"
	apierrors "github.com/reqforge/reqforge-api/internal/errors"
	"go.uber.org/zap"
)

// TokenParser verifies a bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RequireAuth checks the bearer token of the request
func RequireAuth(tokens TokenParser, revocations auth.RevocationStore, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(constants.AuthorizationHeader)
		if !strings.HasPrefix(header, constants.BearerPrefix) {
			apierrors.Unauthorized(c, "No token provided")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, constants.BearerPrefix))
		if raw == "" {
			apierrors.Unauthorized(c, "No token provided")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid token")
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error("failed to check token revocation", zap.Error(err))
			apierrors.ServiceUnavailable(c, "")
			return
		}
		if revoked {
			apierrors.Unauthorized(c, "Invalid token")
			return
		}

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyClaims, claims)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetClaims retrieves the verified token claims from context
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
