package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"salonbook/internal/domain/session"
)

const (
	SessionHeader = "X-Session-ID"
	SessionKey    = "session_id"
)

type SessionResolver interface {
	ResolveOrCreate(ctx context.Context, id, clientIP, userAgent string) (*session.Session, error)
}

type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Session resolves the caller's tracking session from the cookie or the
// X-Session-ID header and hands the (possibly new) id back in both.
func Session(store SessionResolver, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(cookie.Name)
		if id == "" {
			id = c.GetHeader(SessionHeader)
		}

		sess, err := store.ResolveOrCreate(c.Request.Context(), id, c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			// the booking gate resolves again and reports the failure
			log.Error().Err(err).Msg("resolve session")
			c.Next()
			return
		}

		c.Set(SessionKey, sess.ID)
		c.Set(session.ContextKey, sess)
		c.Header(SessionHeader, sess.ID)
		// re-issued on every request so the expiry slides with activity
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     cookie.Name,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(cookie.TTL.Seconds()),
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteStrictMode,
		})
		c.Next()
	}
}
