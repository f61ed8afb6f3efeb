package live

import (
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"salonbook/internal/pkg/response"
)

// Authenticate resolves a bearer token to an active admin id. The client
// address and user agent are passed along for the audit trail.
type Authenticate func(ctx context.Context, token, clientIP, userAgent string) (int64, error)

type Handler struct {
	hub      *Hub
	auth     Authenticate
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from the listed origins; an empty list or "*"
// accepts any origin.
func NewHandler(hub *Hub, auth Authenticate, allowedOrigins []string) *Handler {
	return &Handler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/live", h.Connect)
}

// Connect upgrades to a websocket. Browsers cannot set headers on websocket
// requests, so the admin token comes in ?token=.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}

	adminID, err := h.auth(c.Request.Context(), token, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("live feed upgrade failed")
		return
	}

	log.Info().Int64("admin_id", adminID).Msg("admin connected to live feed")
	h.hub.serve(conn, adminID)
	log.Info().Int64("admin_id", adminID).Msg("admin disconnected from live feed")
}
