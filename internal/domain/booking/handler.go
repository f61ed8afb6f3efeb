package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
	"salonbook/internal/pkg/response"
)

// SessionIDKey is where the session middleware stores the resolved id.
const SessionIDKey = "session_id"

type Handler struct {
	gate    *Gate
	service *Service
}

func NewHandler(gate *Gate, service *Service) *Handler {
	return &Handler{gate: gate, service: service}
}

// RegisterPublicRoutes mounts the customer facing endpoints behind the
// optional limit handlers.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, limit ...gin.HandlerFunc) {
	public := rg.Group("/bookings", limit...)
	{
		public.GET("/occupied-slots", h.OccupiedSlots)
		public.POST("", h.CreateBooking)
	}
}

// RegisterAdminRoutes mounts the dashboard endpoints behind auth.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	admin := rg.Group("/bookings", auth)
	{
		admin.GET("", h.ListBookings)
		admin.GET("/date/:date", h.ListByDate)
		admin.GET("/:id", h.GetBooking)
		admin.PATCH("/:id/status", h.UpdateStatus)
		admin.DELETE("/:id", h.DeleteBooking)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Debug().Err(err).Msg("unreadable booking body")
	}
	// bad bodies still go through the gate so the attempt is counted
	cand, decodeErrs := decodeCandidate(body)

	sub := Submission{
		SessionID:    c.GetString(SessionIDKey),
		ClientIP:     c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Candidate:    cand,
		DecodeErrors: decodeErrs,
	}
	if v, ok := c.Get(session.ContextKey); ok {
		sub.Session, _ = v.(*session.Session)
	}

	b, err := h.gate.Submit(c.Request.Context(), sub)
	if err != nil {
		writeGateError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) OccupiedSlots(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
			return
		}
	}

	slots, err := h.service.OccupiedSlots(c.Request.Context(), date)
	if err != nil {
		log.Error().Err(err).Msg("occupied slots")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch occupied slots")
		return
	}
	response.Success(c, http.StatusOK, slots)
}

func (h *Handler) ListBookings(c *gin.Context) {
	h.list(c, c.Query("date"))
}

func (h *Handler) ListByDate(c *gin.Context) {
	h.list(c, c.Param("date"))
}

func (h *Handler) list(c *gin.Context, date string) {
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
			return
		}
	}

	rows, err := h.service.List(c.Request.Context(), date, c.Query("lang"))
	if err != nil {
		log.Error().Err(err).Msg("list bookings")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch bookings")
		return
	}
	response.Success(c, http.StatusOK, ListResponse{Bookings: rows, Total: len(rows)})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	d, err := h.service.Get(c.Request.Context(), id, c.Query("lang"))
	if err != nil {
		writeAdminError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "status is required")
		return
	}

	d, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, adminOrigin(c))
	if err != nil {
		writeAdminError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, adminOrigin(c)); err != nil {
		writeAdminError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Booking deleted successfully"})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

func adminOrigin(c *gin.Context) security.Origin {
	return security.Origin{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func writeGateError(c *gin.Context, err error) {
	var ge *GateError
	if !errors.As(err, &ge) {
		ge = internal("submit booking", err)
	}

	switch ge.Kind {
	case KindRateLimited:
		response.TooManyRequests(c, ge.Message, ge.RetryAfter)
	case KindInvalidInput:
		if len(ge.Fields) > 0 {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", ge.Message, ge.Fields)
			return
		}
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", ge.Message)
	case KindSlotTaken:
		response.Error(c, http.StatusConflict, "SLOT_TAKEN", ge.Message)
	case KindNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", ge.Message)
	default:
		log.Error().Err(ge).Str("session_id", c.GetString(SessionIDKey)).Msg("booking submission failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
	}
}

func writeAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status. Must be confirmed, completed, or cancelled")
	case errors.Is(err, ErrSlotTaken):
		response.Error(c, http.StatusConflict, "SLOT_TAKEN", "This time slot is already booked")
	default:
		log.Error().Err(err).Msg("booking admin operation failed")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process booking")
	}
}
