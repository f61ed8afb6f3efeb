package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
	"salonbook/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = LoginRequest{}
	}

	origin := security.Origin{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	if req.Username == "" || req.Password == "" {
		h.service.audit(c.Request.Context(), security.EventLoginFailed, security.SeverityWarn, origin, "Missing credentials")
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Username and password are required")
		return
	}

	token, identity, err := h.service.Login(c.Request.Context(), req.Username, req.Password, origin)
	if err != nil {
		var locked *LockedError
		switch {
		case errors.As(err, &locked):
			response.TooManyRequests(c, "Account is temporarily locked. Please try again later.", session.Seconds(locked.RetryAfter))
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
		default:
			log.Error().Err(err).Msg("admin login")
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		}
		return
	}

	response.Success(c, http.StatusOK, LoginResponse{Token: token, User: identity})
}

func (h *Handler) Verify(c *gin.Context) {
	identity, ok := CurrentIdentity(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": true, "user": identity})
}

// TestEmail checks the configured notification driver can deliver.
func (h *Handler) TestEmail(c *gin.Context) {
	res := h.service.TestNotifications(c.Request.Context())
	if !res.Success {
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, "NOTIFY_UNAVAILABLE", "Email test failed", res)
		return
	}
	response.Success(c, http.StatusOK, res)
}
