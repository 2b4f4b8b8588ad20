package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/healthcare-booking/internal/http/respond"
	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// Handler serves the public catalog.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/services.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list services")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"success": true, "services": services})
}

// Details handles GET /api/services/{serviceID}, returning the fields the
// booking form shows once a service is picked.
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "serviceID"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid service id")
		return
	}
	svc, err := GetActive(r.Context(), h.repo, id)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			respond.Error(w, http.StatusNotFound, "Service not found")
			return
		}
		h.logger.Error("failed to load service", "error", err, "service_id", id)
		respond.Error(w, http.StatusInternalServerError, "failed to load service")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"id":          svc.ID,
		"name":        svc.Name,
		"price":       svc.Price,
		"duration":    svc.DurationMinutes,
		"description": svc.Description,
	})
}
