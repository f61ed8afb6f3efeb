package security

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"salonbook/internal/pkg/response"
)

type Handler struct {
	log *Log
}

func NewHandler(l *Log) *Handler {
	return &Handler{log: l}
}

// RegisterAdminRoutes expects rg to already be behind admin authentication.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/security-events", h.ListEvents)
}

func (h *Handler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ListFilter{
		Severity:  Severity(strings.ToUpper(c.Query("severity"))),
		EventType: EventType(strings.ToUpper(c.Query("event_type"))),
		SessionID: c.Query("session_id"),
		Limit:     limit,
		Offset:    offset,
	}

	events, total, err := h.log.List(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("list security events")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch security events")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"events": events,
		"total":  total,
	})
}
