package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"salonbook/internal/pkg/response"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/services", h.ListServices)
}

// ListServices returns the menu localized by ?lang= (ro by default).
func (h *Handler) ListServices(c *gin.Context) {
	lang := NormalizeLang(c.Query("lang"))

	services, err := h.repo.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list services")
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch services")
		return
	}

	out := make([]View, 0, len(services))
	for i := range services {
		out = append(out, services[i].Localize(lang))
	}
	response.Success(c, http.StatusOK, out)
}
