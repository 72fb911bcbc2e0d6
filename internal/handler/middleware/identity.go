package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const (
	ctxOwnerKey     = "hold_owner"
	sessionIDHeader = "X-Session-ID"
	maxSessionIDLen = 128
)

// IdentityMiddleware resolves who a hold belongs to. An authenticated user is
// identified by the bearer token subject; an anonymous checkout is identified
// by its session id header. One of the two must be present.
type IdentityMiddleware struct {
	jwtService *jwt.Service
}

func NewIdentityMiddleware(jwtService *jwt.Service) *IdentityMiddleware {
	return &IdentityMiddleware{jwtService: jwtService}
}

func (m *IdentityMiddleware) RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			userID, err := m.jwtService.ValidateToken(token)
			if err != nil {
				slog.Warn("token validation failed", "error", err.Error())
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid or expired token",
				})
				c.Abort()
				return
			}
			c.Set(ctxOwnerKey, booking.NewUserOwner(userID))
			c.Next()
			return
		}

		sessionID := strings.TrimSpace(c.GetHeader(sessionIDHeader))
		if sessionID != "" && len(sessionID) <= maxSessionIDLen {
			owner, err := booking.NewSessionOwner(sessionID)
			if err == nil {
				c.Set(ctxOwnerKey, owner)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Bearer token or X-Session-ID required",
		})
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

func GetOwner(c *gin.Context) (booking.Owner, bool) {
	value, exists := c.Get(ctxOwnerKey)
	if !exists {
		return booking.Owner{}, false
	}
	owner, ok := value.(booking.Owner)
	return owner, ok
}
