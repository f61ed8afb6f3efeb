package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
	"salonbook/internal/pkg/response"
)

const IdentityKey = "admin"

// AdminJWTAuth requires a Bearer token belonging to an active admin.
func AdminJWTAuth(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := security.Origin{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}

		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if authHeader == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			svc.audit(c.Request.Context(), security.EventAuthFailed, security.SeverityWarn, origin, "Missing token")
			response.AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Access token required")
			return
		}

		identity, err := svc.Authenticate(c.Request.Context(), parts[1], origin)
		if err != nil {
			var locked *LockedError
			switch {
			case errors.As(err, &locked):
				response.TooManyRequests(c, "Account is temporarily locked", session.Seconds(locked.RetryAfter))
				c.Abort()
			case errors.Is(err, ErrInvalidToken):
				response.AbortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token")
			default:
				log.Error().Err(err).Msg("admin authentication failed")
				response.AbortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed")
			}
			return
		}

		c.Set(IdentityKey, identity)
		c.Set("admin_id", identity.ID)
		c.Next()
	}
}

// CurrentIdentity returns the admin set by AdminJWTAuth.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}
